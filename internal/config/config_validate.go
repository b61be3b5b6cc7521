// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/tomtom215/chatstats/internal/validation"
)

// Validate checks struct tags and then cross-field constraints.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateRollup(); err != nil {
		return err
	}

	return c.validateEvents()
}

// validateDatabase rejects DuckDB-only settings on SQLite
func (c *Config) validateDatabase() error {
	if c.Database.Driver == "sqlite" && c.Database.Threads > 0 {
		return fmt.Errorf("database.threads only applies to the duckdb driver")
	}
	return nil
}

// validateRollup validates the schedule against the bucket widths
func (c *Config) validateRollup() error {
	// Hour is the finest bucket, so a shorter lookback never covers a full bucket.
	if c.Rollup.InitialLookback > 0 && c.Rollup.InitialLookback < time.Hour {
		return fmt.Errorf("rollup.initial_lookback must be 0 or at least 1h, got %s", c.Rollup.InitialLookback)
	}
	return nil
}

// validateEvents validates the NATS connection URL (only if enabled)
func (c *Config) validateEvents() error {
	if !c.Events.Enabled {
		if c.Events.WAL.Enabled {
			return fmt.Errorf("events.wal.enabled requires events.enabled")
		}
		return nil
	}
	u, err := url.Parse(c.Events.URL)
	if err != nil {
		return fmt.Errorf("events.url is invalid: %w", err)
	}
	if u.Scheme != "nats" && u.Scheme != "tls" {
		return fmt.Errorf("events.url must use the nats:// or tls:// scheme, got %q", c.Events.URL)
	}
	return nil
}
