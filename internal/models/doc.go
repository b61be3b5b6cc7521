// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

/*
Package models defines the data structures shared across chatstats.

Key Components:

  - CountRow: one persisted statistic value for an entity and bucket. The tuple
    (EntityID, Statistic, EndTime, Granularity) is unique within a level table.
  - EntityLevel: the aggregation tier (user, realm, installation). Each level
    has its own counts table.
  - EntityValue: the {entity, value} pair produced by value functions.
  - FillState: per-statistic bookkeeping used to pick the resume point of the
    next scheduled run.
  - BucketEvent: notification payload emitted after a bucket is written.
  - Realm, ChatUser, ChatMessage: rows of the chat source tables the raw
    collectors read.
  - APIResponse, HealthStatus: the HTTP API envelope and health payload.

Rows are append-only. Nothing in this package mutates a CountRow after it is
created.
*/
package models
