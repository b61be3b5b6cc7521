// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

/*
Package middleware provides HTTP middleware for the read API.

Key Components:

  - PrometheusMetrics: request count, latency and in-flight instrumentation,
    labelled by chi route pattern so path parameters never become labels
  - Compression: gzip for clients that send Accept-Encoding: gzip
  - ChiMiddleware: CORS (go-chi/cors) and per-IP rate limiting
    (go-chi/httprate) built from config.ServerConfig

Middleware Stack:

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(chiMW.CORS())
	r.Route("/api/v1", func(r chi.Router) {
	    r.Use(chiMW.RateLimit())
	    r.Use(middleware.Compression)
	    ...
	})

/metrics sits outside the rate limiter so scrapes are never throttled.

Thread Safety:

All middleware is safe for concurrent use. Compression pools its gzip writers.
*/
package middleware
