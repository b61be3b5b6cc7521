// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/chatstats/internal/catalog"
	"github.com/tomtom215/chatstats/internal/collectors"
	"github.com/tomtom215/chatstats/internal/config"
	"github.com/tomtom215/chatstats/internal/database"
	"github.com/tomtom215/chatstats/internal/events"
	"github.com/tomtom215/chatstats/internal/logging"
	"github.com/tomtom215/chatstats/internal/stats"
	"github.com/tomtom215/chatstats/internal/wal"
)

// app is the wired rollup pipeline.
type app struct {
	cfg      *config.Config
	db       *database.DB
	source   *collectors.Source
	registry *stats.Registry
	runner   *stats.Runner
	notifier *events.Notifier
	journal  *wal.BadgerWAL
	retry    *wal.RetryLoop
}

// openApp opens the store and wires collectors, catalog, processor and
// runner. Bucket events are published only when withEvents is set and
// events are enabled in cfg.
func openApp(ctx context.Context, cfg *config.Config, withEvents bool) (a *app, err error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a = &app{cfg: cfg, db: db}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()
	logging.Info().
		Str("driver", db.Driver()).
		Str("path", cfg.Database.Path).
		Msg("Database initialized")

	if cfg.Database.SeedMockData {
		if err := seedIfEmpty(ctx, db); err != nil {
			return nil, err
		}
	}

	a.source = collectors.New(db.Conn(), "chat-source", &cfg.Collectors)
	a.registry = stats.NewRegistry()
	if err := catalog.Register(a.registry, db, a.source); err != nil {
		return nil, err
	}

	mode, err := stats.ParseExistenceMode(cfg.Rollup.ExistenceMode)
	if err != nil {
		return nil, err
	}
	opts := []stats.ProcessorOption{stats.WithExistenceMode(mode)}

	if withEvents {
		notifier, err := events.Open(&cfg.Events)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize bucket events: %w", err)
		}
		// A nil *Notifier must not reach the processor as a non-nil interface.
		if notifier != nil {
			a.notifier = notifier
			opts = append(opts, stats.WithNotifier(notifier))
			if cfg.Events.WAL.Enabled {
				if err := a.openJournal(ctx); err != nil {
					return nil, err
				}
			}
		}
	}

	processor := stats.NewProcessor(db, opts...)
	a.runner = stats.NewRunner(a.registry, processor, a.source, db, stats.RunnerConfig{
		InitialLookback:  cfg.Rollup.InitialLookback,
		BucketsPerSecond: cfg.Rollup.BucketsPerSecond,
	})

	ready := logging.Info().
		Int("statistics", a.registry.Len()).
		Str("existence_mode", string(processor.Mode())).
		Bool("event_wal", a.journal != nil)
	if a.notifier != nil {
		ready = ready.Str("event_topic", a.notifier.Topic())
	}
	ready.Msg("Rollup pipeline ready")
	return a, nil
}

// openJournal attaches the event WAL and republishes whatever a previous
// process left pending.
func (a *app) openJournal(ctx context.Context) error {
	journal, err := wal.Open(&a.cfg.Events.WAL)
	if err != nil {
		return fmt.Errorf("failed to open event WAL: %w", err)
	}
	a.journal = journal
	a.notifier.UseJournal(journal)
	a.retry = wal.NewRetryLoop(journal, a.notifier)

	res, err := a.retry.RetryPending(ctx)
	if err != nil {
		return fmt.Errorf("failed to recover event WAL: %w", err)
	}
	if res.Pending > 0 {
		logging.Info().
			Int("pending", res.Pending).
			Int("republished", res.Succeeded).
			Msg("Recovered pending bucket events")
	}
	return nil
}

func seedIfEmpty(ctx context.Context, db *database.DB) error {
	has, err := db.HasChatData(ctx)
	if err != nil {
		return err
	}
	if has {
		logging.Info().Msg("Chat tables already populated, skipping mock data seed")
		return nil
	}
	if _, err := db.SeedMockData(ctx, database.DefaultSeedOptions()); err != nil {
		return fmt.Errorf("failed to seed mock data: %w", err)
	}
	return nil
}

// Close releases the notifier, the event WAL and the database.
func (a *app) Close() {
	if a.notifier != nil {
		if err := a.notifier.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event publisher")
		}
	}
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event WAL")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}
}

// logReport writes a run summary.
func logReport(msg string, report stats.RunReport) {
	logging.Info().
		Int("jobs", report.Jobs).
		Int("written", report.Written).
		Int("skipped", report.Skipped).
		Int("duplicates", report.Duplicates).
		Int("empty", report.Empty).
		Int("rows", report.Rows).
		Int("filtered", report.Filtered).
		Dur("duration", report.Duration.Round(time.Millisecond)).
		Msg(msg)
}
