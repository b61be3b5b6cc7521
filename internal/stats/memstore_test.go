// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package stats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/chatstats/internal/interval"
	"github.com/tomtom215/chatstats/internal/models"
)

// memStore is an in-memory Store, RowReader and FillStateStore that enforces
// the same uniqueness key as the real tables.
type memStore struct {
	mu    sync.Mutex
	rows  map[models.EntityLevel][]models.CountRow
	fills map[string]models.FillState

	// failInsertAfter makes InsertCounts commit only the first n rows and
	// then fail, mimicking a chunked insert that dies part way. Negative disables.
	failInsertAfter int
	inserts         int
}

func newMemStore() *memStore {
	return &memStore{
		rows:            make(map[models.EntityLevel][]models.CountRow),
		fills:           make(map[string]models.FillState),
		failInsertAfter: -1,
	}
}

func sameBucket(r models.CountRow, statistic string, end time.Time, g interval.Granularity) bool {
	return r.Statistic == statistic && r.EndTime.Equal(end) && r.Granularity == g
}

func (m *memStore) HasBucket(_ context.Context, level models.EntityLevel, statistic string, end time.Time, g interval.Granularity) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows[level] {
		if sameBucket(r, statistic, end, g) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ExistingEntityIDs(_ context.Context, level models.EntityLevel, statistic string, end time.Time, g interval.Granularity) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make(map[string]struct{})
	for _, r := range m.rows[level] {
		if sameBucket(r, statistic, end, g) {
			ids[r.EntityID] = struct{}{}
		}
	}
	return ids, nil
}

func (m *memStore) InsertCounts(_ context.Context, level models.EntityLevel, rows []models.CountRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	for i, row := range rows {
		if m.failInsertAfter >= 0 && i >= m.failInsertAfter {
			return fmt.Errorf("connection lost after %d rows", i)
		}
		for _, r := range m.rows[level] {
			if r.EntityID == row.EntityID && sameBucket(r, row.Statistic, row.EndTime, row.Granularity) {
				return models.ErrDuplicateBucketWrite
			}
		}
		m.rows[level] = append(m.rows[level], row)
	}
	return nil
}

func (m *memStore) BucketRows(_ context.Context, level models.EntityLevel, statistic string, end time.Time, g interval.Granularity) ([]models.CountRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CountRow
	for _, r := range m.rows[level] {
		if sameBucket(r, statistic, end, g) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) RowsInRange(_ context.Context, level models.EntityLevel, statistic string, g interval.Granularity, after, upTo time.Time) ([]models.CountRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CountRow
	for _, r := range m.rows[level] {
		if r.Statistic == statistic && r.Granularity == g && r.EndTime.After(after) && !r.EndTime.After(upTo) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) GetFillState(_ context.Context, key string) (models.FillState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.fills[key]
	return s, ok, nil
}

func (m *memStore) SetFillState(_ context.Context, state models.FillState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fills[state.StatisticKey] = state
	return nil
}

// add seeds rows directly, bypassing uniqueness checks.
func (m *memStore) add(level models.EntityLevel, rows ...models.CountRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[level] = append(m.rows[level], rows...)
}

func (m *memStore) all(level models.EntityLevel) []models.CountRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.CountRow, len(m.rows[level]))
	copy(out, m.rows[level])
	return out
}

// staticEntities returns fixed valid sets and counts lookups.
type staticEntities struct {
	sets  map[models.EntityLevel]ValidSet
	calls map[models.EntityLevel]int
}

func (s *staticEntities) ValidEntities(_ context.Context, level models.EntityLevel) (ValidSet, error) {
	if s.calls == nil {
		s.calls = make(map[models.EntityLevel]int)
	}
	s.calls[level]++
	return s.sets[level], nil
}

// constant returns a ValueFunc that always yields values.
func constant(values ...models.EntityValue) ValueFunc {
	return func(context.Context, interval.TimeInterval) ([]models.EntityValue, error) {
		out := make([]models.EntityValue, len(values))
		copy(out, values)
		return out, nil
	}
}

func ev(id string, v int64) models.EntityValue {
	return models.EntityValue{EntityID: id, Value: v}
}

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}
