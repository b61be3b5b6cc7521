// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

/*
Package api serves the read-only HTTP surface of serve mode using the chi router.

Routes:

	GET /metrics                  Prometheus exposition
	GET /healthz                  readiness (alias of /api/v1/health/ready)
	GET /api/v1/health            database and collector breaker status
	GET /api/v1/health/live       liveness
	GET /api/v1/health/ready      503 until the database answers
	GET /api/v1/status            row counts per statistic and fill state
	GET /api/v1/series            zero-filled time series of one entity

Series query parameters: statistic (required), level (user, realm or
installation; default installation), entity (default the installation
singleton), granularity (hour, day or gauge; default hour), from and to
(RFC3339; default the last 24 buckets ending now).

Responses use the models.APIResponse envelope. Every route is instrumented
by middleware.PrometheusMetrics. /api/v1 responses are gzipped for clients
that accept it and rate limited per client IP; /metrics is never limited.
*/
package api
