// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

// Package interval provides the time-bucket calculus used by the rollup engine.
//
// Every statistic is computed over buckets described by a TimeInterval: a
// granularity (hour, day or gauge) plus the bucket's start and end. Hour and
// day buckets are deltas over [start, end). Gauge buckets are cumulative
// snapshots as of end; their start is the fixed BeginningOfTime sentinel and
// they cannot be stepped backwards.
//
// All functions are pure and operate in UTC. Unsupported granularity tags are
// reported with ErrUnsupportedGranularity rather than coerced to a default.
//
// # Backfill
//
// BucketRange enumerates the buckets needed to catch a statistic up over a
// historical span, in ascending order:
//
//	buckets, err := interval.BucketRange(first, last, interval.Day, interval.Hour)
//	if err != nil {
//	    return err
//	}
//	for _, b := range buckets {
//	    // process b
//	}
package interval
