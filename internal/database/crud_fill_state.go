// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/chatstats/internal/models"
)

// GetFillState returns the fill state for a statistic key.
// found is false when the statistic has never been processed.
func (db *DB) GetFillState(ctx context.Context, statisticKey string) (state models.FillState, found bool, err error) {
	var end, updated int64
	var status string
	err = db.conn.QueryRowContext(ctx,
		`SELECT end_time, status, updated_at FROM fill_state WHERE statistic_key = ?`, statisticKey,
	).Scan(&end, &status, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FillState{}, false, nil
	}
	if err != nil {
		return models.FillState{}, false, fmt.Errorf("failed to get fill state for %s: %w", statisticKey, err)
	}
	return models.FillState{
		StatisticKey: statisticKey,
		EndTime:      time.Unix(end, 0).UTC(),
		Status:       models.FillStatus(status),
		UpdatedAt:    time.Unix(updated, 0).UTC(),
	}, true, nil
}

// SetFillState upserts the fill state for a statistic key.
func (db *DB) SetFillState(ctx context.Context, state models.FillState) error {
	updated := state.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO fill_state (statistic_key, end_time, status, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (statistic_key) DO UPDATE SET
			end_time = excluded.end_time,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		state.StatisticKey, state.EndTime.Unix(), string(state.Status), updated.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to set fill state for %s: %w", state.StatisticKey, err)
	}
	return nil
}

// ListFillStates returns every fill state ordered by key.
func (db *DB) ListFillStates(ctx context.Context) ([]models.FillState, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT statistic_key, end_time, status, updated_at FROM fill_state ORDER BY statistic_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list fill states: %w", err)
	}
	defer closeQuietly(rows)

	var states []models.FillState
	for rows.Next() {
		var (
			s            models.FillState
			end, updated int64
			status       string
		)
		if err := rows.Scan(&s.StatisticKey, &end, &status, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan fill state: %w", err)
		}
		s.EndTime = time.Unix(end, 0).UTC()
		s.Status = models.FillStatus(status)
		s.UpdatedAt = time.Unix(updated, 0).UTC()
		states = append(states, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fill states: %w", err)
	}
	return states, nil
}

// DeleteFillState removes the fill state for a statistic key, so the next
// scheduled run starts from the initial lookback again.
func (db *DB) DeleteFillState(ctx context.Context, statisticKey string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM fill_state WHERE statistic_key = ?`, statisticKey); err != nil {
		return fmt.Errorf("failed to delete fill state for %s: %w", statisticKey, err)
	}
	return nil
}
