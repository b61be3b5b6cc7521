// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/tomtom215/chatstats/internal/logging"
	"github.com/tomtom215/chatstats/internal/stats"
)

// Runner is satisfied by *stats.Runner.
type Runner interface {
	RunUntil(ctx context.Context, now time.Time) (stats.RunReport, error)
}

// RollupService calls RunUntil every interval, and once at start when
// runOnStartup is set. A failed run is logged and retried at the next tick;
// it does not crash the service, since the runner already resumes from the
// last completed bucket.
type RollupService struct {
	runner       Runner
	interval     time.Duration
	runOnStartup bool
	now          func() time.Time
	lastRun      atomic.Int64
	runs         atomic.Int64
	name         string
}

// NewRollupService creates the scheduler service.
func NewRollupService(runner Runner, interval time.Duration, runOnStartup bool) *RollupService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &RollupService{
		runner:       runner,
		interval:     interval,
		runOnStartup: runOnStartup,
		now:          time.Now,
		name:         "rollup-scheduler",
	}
}

// Serve implements suture.Service.
func (s *RollupService) Serve(ctx context.Context) error {
	logging.Info().
		Dur("interval", s.interval).
		Bool("run_on_startup", s.runOnStartup).
		Msg("Rollup scheduler started")

	if s.runOnStartup {
		s.runOnce(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *RollupService) runOnce(ctx context.Context) {
	s.runs.Add(1)
	report, err := s.runner.RunUntil(ctx, s.now())
	switch {
	case err == nil:
		s.lastRun.Store(s.now().UnixNano())
		logging.Info().
			Int("jobs", report.Jobs).
			Int("written", report.Written).
			Int("skipped", report.Skipped).
			Int("duplicates", report.Duplicates).
			Int("rows", report.Rows).
			Dur("duration", report.Duration).
			Msg("Scheduled rollup run complete")
	case errors.Is(err, stats.ErrRunInProgress):
		logging.Warn().Msg("Previous rollup run still in progress, skipping tick")
	case ctx.Err() != nil:
		logging.Info().Msg("Rollup run interrupted by shutdown")
	default:
		logging.Error().Err(err).
			Int("written", report.Written).
			Msg("Scheduled rollup run failed, retrying next tick")
	}
}

// LastRun returns when the last successful run finished, or the zero time.
func (s *RollupService) LastRun() time.Time {
	ns := s.lastRun.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Runs returns how many runs have been attempted.
func (s *RollupService) Runs() int64 {
	return s.runs.Load()
}

func (s *RollupService) String() string {
	return s.name
}
