// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/chatstats/internal/models"
)

// Health reports database connectivity, the collector breaker state and the
// last successful run. The status is "degraded" when the database is
// unreachable or the breaker is open.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	dbConnected := h.store.Ping(r.Context()) == nil

	health := models.HealthStatus{
		Status:            "healthy",
		Version:           Version,
		DatabaseConnected: dbConnected,
		Uptime:            time.Since(h.startTime).Seconds(),
	}
	if h.breaker != nil {
		health.CollectorBreaker = h.breaker.BreakerState()
	}
	if h.runs != nil {
		if last := h.runs.LastRun(); !last.IsZero() {
			last = last.UTC()
			health.LastRun = &last
		}
	}
	if !dbConnected || health.CollectorBreaker == "open" {
		health.Status = "degraded"
	}

	respondSuccess(w, health, started)
}

// HealthLive returns 200 while the process is up.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	}, time.Now())
}

// HealthReady returns 200 when the database answers, 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "NOT_READY", "database unavailable", err)
		return
	}
	respondSuccess(w, map[string]interface{}{"ready": true}, time.Now())
}
