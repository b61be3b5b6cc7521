// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package config

import (
	"time"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig   `koanf:"database"`
	Rollup     RollupConfig     `koanf:"rollup"`
	Collectors CollectorsConfig `koanf:"collectors"`
	Events     EventsConfig     `koanf:"events"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// DatabaseConfig holds count store settings
type DatabaseConfig struct {
	Driver    string `koanf:"driver" validate:"oneof=duckdb sqlite"`
	Path      string `koanf:"path" validate:"required"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads" validate:"gte=0"` // Number of DuckDB threads (0 = use NumCPU)

	// InsertChunkSize is the number of rows per INSERT statement. Each
	// statement commits on its own.
	InsertChunkSize int `koanf:"insert_chunk_size" validate:"gte=1,lte=10000"`

	SeedMockData bool `koanf:"seed_mock_data"` // Seed demo chat data on startup
}

// RollupConfig holds scheduling and processing settings
type RollupConfig struct {
	Interval         time.Duration `koanf:"interval" validate:"gte=1m"`
	InitialLookback  time.Duration `koanf:"initial_lookback" validate:"gte=0"`
	ExistenceMode    string        `koanf:"existence_mode" validate:"oneof=bucket entity"`
	BucketsPerSecond float64       `koanf:"buckets_per_second" validate:"gte=0"`
	RunOnStartup     bool          `koanf:"run_on_startup"`
}

// CollectorsConfig holds circuit breaker settings for raw collector queries
type CollectorsConfig struct {
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures" validate:"gte=1"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout" validate:"gte=1s"`
	QueryTimeout       time.Duration `koanf:"query_timeout" validate:"gte=0"`
}

// EventsConfig holds bucket notification settings
type EventsConfig struct {
	Enabled       bool          `koanf:"enabled"`
	URL           string        `koanf:"url" validate:"required_if=Enabled true"`
	Topic         string        `koanf:"topic" validate:"required_if=Enabled true"`
	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
	WAL           WALConfig     `koanf:"wal"`
}

// WALConfig holds the durable event log used to retry failed publishes
type WALConfig struct {
	Enabled       bool          `koanf:"enabled"`
	Path          string        `koanf:"path" validate:"required_if=Enabled true"` // ":memory:" keeps entries in memory only
	SyncWrites    bool          `koanf:"sync_writes"`
	RetryInterval time.Duration `koanf:"retry_interval" validate:"gte=1s"`
	RetryBackoff  time.Duration `koanf:"retry_backoff" validate:"gte=0"`
	MaxRetries    int           `koanf:"max_retries" validate:"gte=1"`
	EntryTTL      time.Duration `koanf:"entry_ttl" validate:"gte=1m"`
}

// ServerConfig holds HTTP server settings for serve mode
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"gte=1,lte=65535"`
	Timeout time.Duration `koanf:"timeout" validate:"gte=0"`

	// CORSOrigins lists origins allowed to read the API. Empty disables CORS.
	CORSOrigins []string `koanf:"cors_origins"`

	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gte=1s"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration using a layered approach:
//  1. Built-in defaults
//  2. Config file (config.yaml if exists, or path specified in CONFIG_PATH env var)
//  3. Environment variables, including any set by a .env file
//
// See LoadWithKoanf() for the underlying implementation.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
