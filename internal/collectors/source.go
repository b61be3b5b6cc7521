// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package collectors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/chatstats/internal/config"
	"github.com/tomtom215/chatstats/internal/logging"
	"github.com/tomtom215/chatstats/internal/metrics"
	"github.com/tomtom215/chatstats/internal/models"
)

// Source runs collector queries against the chat source tables.
type Source struct {
	db      *sql.DB
	name    string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[interface{}]
}

// New creates a Source over db. name labels the breaker in logs and metrics.
func New(db *sql.DB, name string, cfg *config.CollectorsConfig) *Source {
	s := &Source{
		db:      db,
		name:    name,
		timeout: cfg.QueryTimeout,
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerMaxFailures
		},
		// A canceled run says nothing about the health of the source.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Collector circuit breaker state changed")
			metrics.SetCollectorBreakerState(name, int(to))
		},
	}
	s.breaker = gobreaker.NewCircuitBreaker[interface{}](settings)
	metrics.SetCollectorBreakerState(name, int(gobreaker.StateClosed))
	return s
}

// BreakerState returns the breaker state for health reporting.
func (s *Source) BreakerState() string {
	return s.breaker.State().String()
}

// execute runs fn under the breaker with the per-query timeout applied.
func execute[T any](ctx context.Context, s *Source, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err := s.breaker.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("collector %s: unexpected result type %T", s.name, result)
	}
	return typed, nil
}

// queryValues runs a two-column (entity_id, value) query.
func (s *Source) queryValues(ctx context.Context, op, table, query string, args ...interface{}) ([]models.EntityValue, error) {
	return execute(ctx, s, func(ctx context.Context) (values []models.EntityValue, err error) {
		start := time.Now()
		defer func() {
			metrics.RecordDBQuery(op, table, time.Since(start), err)
		}()

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		defer rows.Close()

		values = []models.EntityValue{}
		for rows.Next() {
			var v models.EntityValue
			if err := rows.Scan(&v.EntityID, &v.Value); err != nil {
				return nil, fmt.Errorf("%s: scan: %w", op, err)
			}
			values = append(values, v)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return values, nil
	})
}

// queryStrings runs a single-column string query.
func (s *Source) queryStrings(ctx context.Context, op, table, query string, args ...interface{}) ([]string, error) {
	return execute(ctx, s, func(ctx context.Context) (ids []string, err error) {
		start := time.Now()
		defer func() {
			metrics.RecordDBQuery(op, table, time.Since(start), err)
		}()

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		defer rows.Close()

		ids = []string{}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return nil, fmt.Errorf("%s: scan: %w", op, err)
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return ids, nil
	})
}
