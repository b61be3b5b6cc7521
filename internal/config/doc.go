// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

/*
Package config provides centralized configuration management for chatstats.

# Configuration Sources

Configuration is layered with Koanf v2, later layers overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. Optional YAML file: CONFIG_PATH, or the first of DefaultConfigPaths that exists
 3. Environment variables, after loading a .env file from the working directory

Only the environment variables listed in envMappings are read; anything else
in the environment is ignored.

# Configuration Structure

  - DatabaseConfig: driver (duckdb or sqlite), path, DuckDB tuning, insert chunk size
  - RollupConfig: schedule interval, initial lookback, existence mode, throttling
  - CollectorsConfig: circuit breaker settings for raw collector queries
  - EventsConfig: bucket-written notifications over NATS
  - ServerConfig: metrics and health HTTP listener for serve mode
  - LoggingConfig: level, format, caller

# Environment Variables

Database:
  - DB_DRIVER: duckdb or sqlite (default: duckdb)
  - DB_PATH: database file path, ":memory:" for in-memory (default: /data/chatstats.duckdb)
  - DUCKDB_MAX_MEMORY, DUCKDB_THREADS: DuckDB tuning
  - DB_INSERT_CHUNK_SIZE: rows per INSERT statement (default: 500)

Rollup:
  - ROLLUP_INTERVAL: time between scheduled runs (default: 1h)
  - ROLLUP_INITIAL_LOOKBACK: first-run backfill span (default: 168h)
  - ROLLUP_EXISTENCE_MODE: bucket or entity (default: bucket)
  - ROLLUP_BUCKETS_PER_SECOND: throttle, 0 disables (default: 0)
  - ROLLUP_RUN_ON_STARTUP: run immediately when serve starts (default: true)

Events:
  - EVENTS_ENABLED, NATS_URL, EVENTS_TOPIC

Server:
  - HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Validation

Load validates struct tags through the validation package and then applies
cross-field checks in Validate.
*/
package config
