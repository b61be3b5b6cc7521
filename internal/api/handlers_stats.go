// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/chatstats/internal/database"
	"github.com/tomtom215/chatstats/internal/interval"
	"github.com/tomtom215/chatstats/internal/models"
)

// maxSeriesPoints bounds a single series request.
const maxSeriesPoints = 2000

// defaultSeriesPoints is the length of a series when from is omitted.
const defaultSeriesPoints = 24

// StatusResponse is the payload of /api/v1/status.
type StatusResponse struct {
	Counts    []database.CountSummary `json:"counts"`
	FillState []models.FillState      `json:"fill_state"`
}

// SeriesResponse is the payload of /api/v1/series.
type SeriesResponse struct {
	Statistic   string               `json:"statistic"`
	Level       models.EntityLevel   `json:"level"`
	EntityID    string               `json:"entity_id"`
	Granularity interval.Granularity `json:"granularity"`
	Points      []models.CountPoint  `json:"points"`
}

// Status lists stored row counts and the scheduler's fill state.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	counts, err := h.store.Summarize(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to summarize counts", err)
		return
	}
	fills, err := h.store.ListFillStates(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to read fill state", err)
		return
	}
	if counts == nil {
		counts = []database.CountSummary{}
	}
	if fills == nil {
		fills = []models.FillState{}
	}
	respondSuccess(w, StatusResponse{Counts: counts, FillState: fills}, started)
}

// seriesQuery is a parsed /api/v1/series request.
type seriesQuery struct {
	statistic   string
	level       models.EntityLevel
	entityID    string
	granularity interval.Granularity
	ends        []time.Time
}

func (h *Handler) parseSeriesQuery(r *http.Request) (seriesQuery, error) {
	q := r.URL.Query()
	sq := seriesQuery{
		statistic:   q.Get("statistic"),
		level:       models.LevelInstallation,
		entityID:    q.Get("entity"),
		granularity: interval.Hour,
	}
	if sq.statistic == "" {
		return sq, fmt.Errorf("statistic is required")
	}

	var err error
	if v := q.Get("level"); v != "" {
		if sq.level, err = models.ParseEntityLevel(v); err != nil {
			return sq, err
		}
	}
	if sq.entityID == "" {
		if sq.level != models.LevelInstallation {
			return sq, fmt.Errorf("entity is required for level %s", sq.level)
		}
		sq.entityID = models.InstallationEntityID
	}
	if v := q.Get("granularity"); v != "" {
		if sq.granularity, err = interval.ParseGranularity(v); err != nil {
			return sq, err
		}
	}
	step, err := interval.StepFor(sq.granularity)
	if err != nil {
		return sq, err
	}

	to := h.now().UTC()
	if v := q.Get("to"); v != "" {
		if to, err = time.Parse(time.RFC3339, v); err != nil {
			return sq, fmt.Errorf("invalid to: %w", err)
		}
	}
	var from time.Time
	if v := q.Get("from"); v != "" {
		if from, err = time.Parse(time.RFC3339, v); err != nil {
			return sq, fmt.Errorf("invalid from: %w", err)
		}
	} else {
		if from, err = interval.FloorToBoundary(to, step); err != nil {
			return sq, err
		}
		for i := 1; i < defaultSeriesPoints; i++ {
			if from, err = interval.SubtractInterval(from, step); err != nil {
				return sq, err
			}
		}
	}
	if from.After(to) {
		return sq, fmt.Errorf("from must not be after to")
	}

	n, err := interval.CountBuckets(from, to, step)
	if err != nil {
		return sq, err
	}
	if n > maxSeriesPoints {
		return sq, fmt.Errorf("range spans %d buckets, limit is %d", n, maxSeriesPoints)
	}
	buckets, err := interval.BucketRange(from, to, sq.granularity, step)
	if err != nil {
		return sq, err
	}
	sq.ends = interval.Ends(buckets)
	return sq, nil
}

// Series returns one entity's statistic over a range of buckets, zero-filled.
func (h *Handler) Series(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	sq, err := h.parseSeriesQuery(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	points, err := h.store.TimeSeries(r.Context(), sq.level, sq.statistic, sq.entityID, sq.granularity, sq.ends)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "failed to read series", err)
		return
	}
	respondSuccess(w, SeriesResponse{
		Statistic:   sq.statistic,
		Level:       sq.level,
		EntityID:    sq.entityID,
		Granularity: sq.granularity,
		Points:      points,
	}, started)
}
