// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

// Package collectors reads the chat source tables (realms, users, messages)
// and turns them into raw statistic values.
//
// Every query runs through a per-source circuit breaker (sony/gobreaker/v2).
// When the source database keeps failing the breaker opens and value
// functions fail fast with gobreaker.ErrOpenState; the processor reports that
// as a value function error and the bucket is retried on the next run.
//
// Value functions honor the bucket's half-open [Start, End) bounds:
//
//   - ActiveUsersByRealm: gauge, active non-bot users created before End
//   - MessagesSentByUser: messages with sent_at in [Start, End)
//   - NewUsersByRealm: non-bot users created in [Start, End)
//
// Source also implements stats.EntitySource (ValidEntities) and provides the
// user to realm ParentResolver used by entity rollups.
package collectors
