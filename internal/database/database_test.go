// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/chatstats/internal/config"
)

// testDBSemaphore limits concurrent DuckDB instances; cgo-backed databases
// are memory heavy under -race.
var testDBSemaphore = make(chan struct{}, 2)

var testDrivers = []string{DriverDuckDB, DriverSQLite}

// setupTestDB opens an in-memory database for driver and closes it when the
// test completes.
func setupTestDB(t *testing.T, driver string) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

	cfg := &config.DatabaseConfig{
		Driver:          driver,
		Path:            ":memory:",
		MaxMemory:       "256MB",
		InsertChunkSize: 2,
	}

	db, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create %s test database: %v", driver, err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return db
}

// forEachDriver runs fn as a subtest against every supported engine.
func forEachDriver(t *testing.T, fn func(t *testing.T, db *DB)) {
	t.Helper()
	for _, driver := range testDrivers {
		t.Run(driver, func(t *testing.T) {
			fn(t, setupTestDB(t, driver))
		})
	}
}

func TestNew_CreatesSchema(t *testing.T) {
	forEachDriver(t, func(t *testing.T, db *DB) {
		ctx := context.Background()
		if err := db.Ping(ctx); err != nil {
			t.Fatalf("Ping() error = %v", err)
		}
		for _, table := range []string{"user_counts", "realm_counts", "installation_counts", "fill_state", "realms", "users", "messages"} {
			var n int
			if err := db.Conn().QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
				t.Errorf("table %s not queryable: %v", table, err)
			}
		}
	})
}

func TestNew_FileDatabaseReopens(t *testing.T) {
	for _, driver := range testDrivers {
		t.Run(driver, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "stats.db")
			cfg := &config.DatabaseConfig{Driver: driver, Path: path, InsertChunkSize: 10}

			db, err := New(cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			end := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
			if err := db.InsertCounts(context.Background(), "realm", testRows("s", end, "gauge", map[string]int64{"r1": 1})); err != nil {
				t.Fatalf("InsertCounts() error = %v", err)
			}
			if err := db.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}

			// Schema creation is idempotent and data survives.
			db, err = New(cfg)
			if err != nil {
				t.Fatalf("reopen error = %v", err)
			}
			defer db.Close()
			exists, err := db.HasBucket(context.Background(), "realm", "s", end, "gauge")
			if err != nil || !exists {
				t.Errorf("HasBucket() = %v, %v after reopen", exists, err)
			}
		})
	}
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(&config.DatabaseConfig{Driver: "postgres", Path: ":memory:"})
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
