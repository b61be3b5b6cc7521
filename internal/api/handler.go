// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package api

import (
	"context"
	"time"

	"github.com/tomtom215/chatstats/internal/database"
	"github.com/tomtom215/chatstats/internal/interval"
	"github.com/tomtom215/chatstats/internal/models"
)

// Version is reported by the health endpoint. Set at build time.
var Version = "dev"

// Store is the read side of the count store.
type Store interface {
	Ping(ctx context.Context) error
	Summarize(ctx context.Context) ([]database.CountSummary, error)
	ListFillStates(ctx context.Context) ([]models.FillState, error)
	TimeSeries(ctx context.Context, level models.EntityLevel, statistic, entityID string, g interval.Granularity, ends []time.Time) ([]models.CountPoint, error)
}

// BreakerReporter exposes the collector circuit breaker state.
type BreakerReporter interface {
	BreakerState() string
}

// RunTracker reports when the scheduler last finished a run successfully.
type RunTracker interface {
	LastRun() time.Time
}

// Handler serves the HTTP API.
type Handler struct {
	store     Store
	breaker   BreakerReporter
	runs      RunTracker
	startTime time.Time
	now       func() time.Time
}

// NewHandler creates a handler. breaker and runs may be nil.
func NewHandler(store Store, breaker BreakerReporter, runs RunTracker) *Handler {
	return &Handler{
		store:     store,
		breaker:   breaker,
		runs:      runs,
		startTime: time.Now(),
		now:       time.Now,
	}
}
