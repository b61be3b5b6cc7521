// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/chatstats/config.yaml",
	"/etc/chatstats/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:          "duckdb",
			Path:            "/data/chatstats.duckdb",
			MaxMemory:       "1GB",
			Threads:         0,
			InsertChunkSize: 500,
			SeedMockData:    false,
		},
		Rollup: RollupConfig{
			Interval:         time.Hour,
			InitialLookback:  7 * 24 * time.Hour,
			ExistenceMode:    "bucket",
			BucketsPerSecond: 0,
			RunOnStartup:     true,
		},
		Collectors: CollectorsConfig{
			BreakerMaxFailures: 5,
			BreakerTimeout:     time.Minute,
			QueryTimeout:       30 * time.Second,
		},
		Events: EventsConfig{
			Enabled:       false,
			URL:           "nats://127.0.0.1:4222",
			Topic:         "chatstats.buckets",
			MaxReconnects: 5,
			ReconnectWait: 2 * time.Second,
			WAL: WALConfig{
				Enabled:       false,
				Path:          "/data/wal",
				SyncWrites:    true,
				RetryInterval: 30 * time.Second,
				RetryBackoff:  5 * time.Second,
				MaxRetries:    100,
				EntryTTL:      7 * 24 * time.Hour,
			},
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              9464,
			Timeout:           30 * time.Second,
			CORSOrigins:       []string{},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// A .env file in the working directory is loaded into the process environment
// first; variables that are already set win over the file.
func LoadWithKoanf() (*Config, error) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// DB_PATH -> database.path, ROLLUP_INTERVAL -> rollup.interval
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	// Database
	"db_driver":            "database.driver",
	"db_path":              "database.path",
	"duckdb_path":          "database.path",
	"duckdb_max_memory":    "database.max_memory",
	"duckdb_threads":       "database.threads",
	"db_insert_chunk_size": "database.insert_chunk_size",
	"seed_mock_data":       "database.seed_mock_data",

	// Rollup
	"rollup_interval":           "rollup.interval",
	"rollup_initial_lookback":   "rollup.initial_lookback",
	"rollup_existence_mode":     "rollup.existence_mode",
	"rollup_buckets_per_second": "rollup.buckets_per_second",
	"rollup_run_on_startup":     "rollup.run_on_startup",

	// Collectors
	"collector_breaker_max_failures": "collectors.breaker_max_failures",
	"collector_breaker_timeout":      "collectors.breaker_timeout",
	"collector_query_timeout":        "collectors.query_timeout",

	// Events
	"events_enabled":      "events.enabled",
	"nats_url":            "events.url",
	"events_topic":        "events.topic",
	"nats_max_reconnects": "events.max_reconnects",
	"nats_reconnect_wait": "events.reconnect_wait",

	// Event WAL
	"wal_enabled":        "events.wal.enabled",
	"wal_path":           "events.wal.path",
	"wal_sync_writes":    "events.wal.sync_writes",
	"wal_retry_interval": "events.wal.retry_interval",
	"wal_retry_backoff":  "events.wal.retry_backoff",
	"wal_max_retries":    "events.wal.max_retries",
	"wal_entry_ttl":      "events.wal.entry_ttl",

	// Server
	"http_host":           "server.host",
	"http_port":           "server.port",
	"http_timeout":        "server.timeout",
	"cors_origins":        "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_requests",
	"rate_limit_window":   "server.rate_limit_window",
	"disable_rate_limit":  "server.rate_limit_disabled",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - DB_PATH -> database.path
//   - ROLLUP_EXISTENCE_MODE -> rollup.existence_mode
//   - NATS_URL -> events.url
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents random environment variables from polluting config
	return ""
}
