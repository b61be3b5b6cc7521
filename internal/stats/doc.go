// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

/*
Package stats implements the rollup engine: statistic definitions, the
idempotent bucket processor, the entity and time rollup aggregators, backfill
planning, and the run driver.

# Value functions

Every statistic is computed by a ValueFunc, which maps one bucket to a list of
{entity, value} pairs. Raw collectors and rollups share this shape, so the
Processor handles both the same way:

	stat := &stats.Statistic{
	    Name:        "active_users",
	    Level:       models.LevelRealm,
	    Granularity: interval.Gauge,
	    Value:       source.ActiveUsersByRealm,
	}

	bucket, _ := interval.New(end, interval.Gauge)
	res, err := processor.Process(ctx, stat, bucket, valid)

# Idempotency

Process first asks the store whether any row already exists for the bucket and
returns OutcomeSkipped when one does. The check is an optimization; the
uniqueness constraint in the store is what prevents duplicates, and a
constraint violation on insert is reported as OutcomeDuplicate rather than an
error.

A bucket whose insert fails part way through is left partially written and
will be skipped by later runs in the default bucket mode. ExistenceEntity
checks per entity instead, at the cost of recomputing every bucket.

# Ordering

Rollups sum whatever finer rows exist. Plan orders jobs by bucket end and then
by registration order, so finer buckets are processed before the coarser
buckets that read them as long as statistics are registered after their
dependencies (the Registry enforces this).
*/
package stats
