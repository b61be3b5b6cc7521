// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

/*
Package database provides the count store and chat source tables for chatstats.

Two embedded engines are supported through database/sql:

  - duckdb (github.com/duckdb/duckdb-go/v2), the default
  - sqlite (modernc.org/sqlite), pure Go, no cgo

# Tables

One append-only counts table per entity level (user_counts, realm_counts,
installation_counts), each with

	UNIQUE (entity_id, statistic, end_time, granularity)

fill_state keeps the resume point of each statistic. realms, users and
messages hold the chat data the collectors read.

All timestamps are BIGINT Unix seconds in UTC.

# Writes

InsertCounts issues multi-row INSERT statements of database.insert_chunk_size
rows. Chunks are not wrapped in a shared transaction: a failure part way
through a bucket leaves the earlier chunks committed. DeleteBucket removes a
partial bucket so the next run recomputes it. Uniqueness violations are
reported as models.ErrDuplicateBucketWrite.

# Usage

	db, err := database.New(&cfg.Database)
	if err != nil {
	    return err
	}
	defer db.Close()

	exists, err := db.HasBucket(ctx, models.LevelRealm, "active_users", end, interval.Gauge)
*/
package database
