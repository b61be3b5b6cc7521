// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "modernc.org/sqlite"

	"github.com/tomtom215/chatstats/internal/config"
	"github.com/tomtom215/chatstats/internal/logging"
)

const (
	// DriverDuckDB selects the embedded DuckDB engine.
	DriverDuckDB = "duckdb"

	// DriverSQLite selects the pure-Go SQLite engine.
	DriverSQLite = "sqlite"

	defaultInsertChunkSize = 500
)

// DB wraps the SQL connection and provides count storage and chat source
// table access.
type DB struct {
	conn      *sql.DB
	cfg       *config.DatabaseConfig
	driver    string
	chunkSize int
}

// New opens the configured database and creates the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverDuckDB
	}

	// Ensure parent directory exists for database file
	// Use 0750 permissions (owner: rwx, group: rx, other: none) per gosec G301
	if cfg.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	dsn, err := dataSourceName(driver, cfg)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	chunk := cfg.InsertChunkSize
	if chunk <= 0 {
		chunk = defaultInsertChunkSize
	}

	db := &DB{
		conn:      conn,
		cfg:       cfg,
		driver:    driver,
		chunkSize: chunk,
	}

	db.configureConnectionPool()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.createTables(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logging.Info().
		Str("driver", driver).
		Str("path", cfg.Path).
		Int("insert_chunk_size", chunk).
		Msg("Database initialized")

	return db, nil
}

// dataSourceName builds the driver-specific connection string.
func dataSourceName(driver string, cfg *config.DatabaseConfig) (string, error) {
	switch driver {
	case DriverDuckDB:
		threads := cfg.Threads
		if threads <= 0 {
			threads = runtime.NumCPU()
		}
		maxMemory := cfg.MaxMemory
		if maxMemory == "" {
			maxMemory = "1GB"
		}
		// Disable auto-install/auto-load to prevent hangs in restricted network environments
		return fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
			cfg.Path, threads, maxMemory), nil
	case DriverSQLite:
		return cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// configureConnectionPool sets pool limits per engine.
func (db *DB) configureConnectionPool() {
	switch db.driver {
	case DriverSQLite:
		// Every SQLite connection to ":memory:" is a separate database, and
		// file databases allow one writer at a time anyway.
		db.conn.SetMaxOpenConns(1)
		db.conn.SetMaxIdleConns(1)
	default:
		db.conn.SetMaxOpenConns(runtime.NumCPU())
		db.conn.SetMaxIdleConns(2)
	}
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// Driver returns the SQL driver name in use.
func (db *DB) Driver() string {
	return db.driver
}

// Conn returns the underlying SQL database connection.
// The collectors package reads the chat source tables through it.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping checks the connection.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Close closes the database. DuckDB is checkpointed first so the WAL does
// not need replaying on the next start.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if db.driver == DriverDuckDB && db.cfg.Path != ":memory:" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
			logging.Warn().Err(err).Msg("Checkpoint before close failed")
		}
		cancel()
	}
	return db.conn.Close()
}
