// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package wal

import (
	"context"
	"math"
	"time"

	"github.com/tomtom215/chatstats/internal/logging"
	"github.com/tomtom215/chatstats/internal/metrics"
)

// maxBackoff caps the delay between attempts on one entry.
const maxBackoff = 5 * time.Minute

// Publisher republishes a logged entry.
type Publisher interface {
	PublishEntry(ctx context.Context, entry *Entry) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, entry *Entry) error

// PublishEntry implements Publisher.
func (f PublisherFunc) PublishEntry(ctx context.Context, entry *Entry) error {
	return f(ctx, entry)
}

// RetryResult counts the outcomes of one pass over the pending entries.
type RetryResult struct {
	Pending   int
	Succeeded int
	Failed    int
	Deferred  int
	Expired   int
	Exhausted int
}

// RetryLoop republishes pending entries. It implements suture.Service.
type RetryLoop struct {
	wal       *BadgerWAL
	publisher Publisher
	config    RetryConfig
	now       func() time.Time
}

// RetryConfig controls RetryLoop timing.
type RetryConfig struct {
	Interval   time.Duration
	Backoff    time.Duration
	MaxRetries int
	EntryTTL   time.Duration
}

// NewRetryLoop creates a retry loop using the WAL's configuration.
func NewRetryLoop(w *BadgerWAL, publisher Publisher) *RetryLoop {
	cfg := w.Config()
	return &RetryLoop{
		wal:       w,
		publisher: publisher,
		config: RetryConfig{
			Interval:   cfg.RetryInterval,
			Backoff:    cfg.RetryBackoff,
			MaxRetries: cfg.MaxRetries,
			EntryTTL:   cfg.EntryTTL,
		},
		now: time.Now,
	}
}

// Serve retries pending entries every interval until ctx is canceled.
func (r *RetryLoop) Serve(ctx context.Context) error {
	interval := r.config.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logging.Info().
		Dur("interval", interval).
		Int("max_retries", r.config.MaxRetries).
		Msg("WAL retry loop started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.RetryPending(ctx); err != nil && ctx.Err() == nil {
				logging.Error().Err(err).Msg("WAL retry: failed to read pending entries")
			}
			if err := r.wal.RunGC(); err != nil {
				logging.Warn().Err(err).Msg("WAL garbage collection failed")
			}
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (r *RetryLoop) String() string {
	return "event-wal-retry"
}

// RetryPending makes one pass over the pending entries.
func (r *RetryLoop) RetryPending(ctx context.Context) (RetryResult, error) {
	entries, err := r.wal.GetPending(ctx)
	if err != nil {
		return RetryResult{}, err
	}

	result := RetryResult{Pending: len(entries)}
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		r.process(ctx, entry, &result)
	}
	r.wal.Stats()

	if result.Succeeded > 0 || result.Failed > 0 || result.Expired > 0 || result.Exhausted > 0 {
		logging.Info().
			Int("succeeded", result.Succeeded).
			Int("failed", result.Failed).
			Int("expired", result.Expired).
			Int("max_retried", result.Exhausted).
			Msg("WAL retry complete")
	}
	return result, nil
}

func (r *RetryLoop) process(ctx context.Context, entry *Entry, result *RetryResult) {
	now := r.now()
	switch {
	case r.config.EntryTTL > 0 && now.Sub(entry.CreatedAt) > r.config.EntryTTL:
		r.drop(ctx, entry, "expired")
		result.Expired++
		return
	case r.config.MaxRetries > 0 && entry.Attempts >= r.config.MaxRetries:
		r.drop(ctx, entry, "max_retries")
		result.Exhausted++
		return
	case !entry.LastAttemptAt.IsZero() && now.Sub(entry.LastAttemptAt) < r.backoff(entry.Attempts):
		result.Deferred++
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err := r.publisher.PublishEntry(pubCtx, entry)
	cancel()
	metrics.RecordWALRetry(err)

	if err != nil {
		logging.Warn().
			Err(err).
			Str("entry_id", entry.ID).
			Int("attempt", entry.Attempts+1).
			Msg("WAL retry: failed to publish entry")
		if updateErr := r.wal.UpdateAttempt(ctx, entry.ID, err.Error()); updateErr != nil {
			logging.Error().Err(updateErr).Str("entry_id", entry.ID).Msg("WAL retry: failed to update attempt")
		}
		result.Failed++
		return
	}

	if err := r.wal.Confirm(ctx, entry.ID); err != nil {
		logging.Error().Err(err).Str("entry_id", entry.ID).Msg("WAL retry: failed to confirm entry")
		result.Failed++
		return
	}
	result.Succeeded++
}

func (r *RetryLoop) drop(ctx context.Context, entry *Entry, reason string) {
	logging.Warn().
		Str("entry_id", entry.ID).
		Int("attempts", entry.Attempts).
		Str("reason", reason).
		Str("last_error", entry.LastError).
		Msg("WAL retry: dropping entry")
	if err := r.wal.DeleteEntry(ctx, entry.ID); err != nil {
		logging.Error().Err(err).Str("entry_id", entry.ID).Msg("WAL retry: failed to delete entry")
	}
	metrics.RecordWALDropped(reason)
}

// backoff is base * 2^attempts, capped at maxBackoff.
func (r *RetryLoop) backoff(attempts int) time.Duration {
	if attempts > 50 {
		return maxBackoff
	}
	d := time.Duration(float64(r.config.Backoff) * math.Pow(2, float64(attempts)))
	if d < 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}
