// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package database

import (
	"context"
	"fmt"

	"github.com/tomtom215/chatstats/internal/models"
)

// Timestamps are stored as BIGINT Unix seconds so range predicates behave the
// same on DuckDB and SQLite.

// countTableDDL is the layout shared by every entity level table.
const countTableDDL = `CREATE TABLE IF NOT EXISTS %[1]s (
	entity_id TEXT NOT NULL,
	statistic TEXT NOT NULL,
	end_time BIGINT NOT NULL,
	granularity TEXT NOT NULL,
	value BIGINT NOT NULL,
	UNIQUE (entity_id, statistic, end_time, granularity)
)`

const countIndexDDL = `CREATE INDEX IF NOT EXISTS idx_%[1]s_bucket ON %[1]s (statistic, granularity, end_time)`

var sourceTables = []string{
	`CREATE TABLE IF NOT EXISTS realms (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		deactivated BOOLEAN NOT NULL DEFAULT FALSE,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		realm_id TEXT NOT NULL,
		is_bot BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		sender_id TEXT NOT NULL,
		realm_id TEXT NOT NULL,
		sent_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_realm ON users (realm_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_sent_at ON messages (sent_at)`,
}

const fillStateDDL = `CREATE TABLE IF NOT EXISTS fill_state (
	statistic_key TEXT PRIMARY KEY,
	end_time BIGINT NOT NULL,
	status TEXT NOT NULL,
	updated_at BIGINT NOT NULL
)`

// createTables creates the count tables, fill state and chat source tables.
func (db *DB) createTables(ctx context.Context) error {
	statements := make([]string, 0, 2*len(models.Levels)+len(sourceTables)+1)
	for _, level := range models.Levels {
		statements = append(statements,
			fmt.Sprintf(countTableDDL, level.Table()),
			fmt.Sprintf(countIndexDDL, level.Table()),
		)
	}
	statements = append(statements, fillStateDDL)
	statements = append(statements, sourceTables...)

	for _, stmt := range statements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}
