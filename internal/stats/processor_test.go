// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package stats

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/chatstats/internal/interval"
	"github.com/tomtom215/chatstats/internal/models"
)

type recordingNotifier struct {
	events []models.BucketEvent
	err    error
}

func (n *recordingNotifier) BucketWritten(_ context.Context, e models.BucketEvent) error {
	n.events = append(n.events, e)
	return n.err
}

func gaugeBucket(t *testing.T, end string) interval.TimeInterval {
	t.Helper()
	b, err := interval.New(mustTime(end), interval.Gauge)
	require.NoError(t, err)
	return b
}

func TestNewProcessor_Mode(t *testing.T) {
	assert.Equal(t, ExistenceBucket, NewProcessor(newMemStore()).Mode())
	assert.Equal(t, ExistenceEntity, NewProcessor(newMemStore(), WithExistenceMode(ExistenceEntity)).Mode())
}

func TestProcess_ActiveUsersScenario(t *testing.T) {
	store := newMemStore()
	p := NewProcessor(store)
	stat := &Statistic{
		Name:        "active_users",
		Level:       models.LevelRealm,
		Granularity: interval.Gauge,
		Value:       constant(ev("tenantA", 10), ev("tenantB", 0)),
	}
	bucket := gaugeBucket(t, "2024-01-02T00:00:00Z")

	res, err := p.Process(context.Background(), stat, bucket, NewValidSet("tenantA"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeWritten, res.Outcome)
	assert.Equal(t, 1, res.Rows)
	assert.Equal(t, 1, res.Filtered)

	rows := store.all(models.LevelRealm)
	require.Len(t, rows, 1)
	assert.Equal(t, "tenantA", rows[0].EntityID)
	assert.Equal(t, "active_users", rows[0].Statistic)
	assert.True(t, rows[0].EndTime.Equal(mustTime("2024-01-02T00:00:00Z")))
	assert.Equal(t, interval.Gauge, rows[0].Granularity)
	assert.Equal(t, int64(10), rows[0].Value)
}

func TestProcess_Idempotent(t *testing.T) {
	store := newMemStore()
	p := NewProcessor(store)
	calls := 0
	stat := &Statistic{
		Name:        "messages_sent",
		Level:       models.LevelUser,
		Granularity: interval.Hour,
		Value: func(context.Context, interval.TimeInterval) ([]models.EntityValue, error) {
			calls++
			return []models.EntityValue{ev("u1", 4), ev("u2", 1)}, nil
		},
	}
	bucket, err := interval.New(mustTime("2024-03-01T10:00:00Z"), interval.Hour)
	require.NoError(t, err)
	valid := NewValidSet("u1", "u2")

	first, err := p.Process(context.Background(), stat, bucket, valid)
	require.NoError(t, err)
	before := store.all(models.LevelUser)

	second, err := p.Process(context.Background(), stat, bucket, valid)
	require.NoError(t, err)

	assert.Equal(t, OutcomeWritten, first.Outcome)
	assert.Equal(t, OutcomeSkipped, second.Outcome)
	assert.Equal(t, 1, calls, "value function should not run for an existing bucket")
	assert.Equal(t, before, store.all(models.LevelUser))
}

func TestProcess_ValidityFilteringKeepsOtherRows(t *testing.T) {
	store := newMemStore()
	p := NewProcessor(store)
	stat := &Statistic{
		Name:        "new_users",
		Level:       models.LevelRealm,
		Granularity: interval.Day,
		Value:       constant(ev("gone", 7), ev("r1", 2), ev("r2", 3)),
	}
	bucket, err := interval.New(mustTime("2024-03-02T00:00:00Z"), interval.Day)
	require.NoError(t, err)

	res, err := p.Process(context.Background(), stat, bucket, NewValidSet("r1", "r2"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeWritten, res.Outcome)

	rows := store.all(models.LevelRealm)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.NotEqual(t, "gone", r.EntityID)
	}

	again, err := p.Process(context.Background(), stat, bucket, NewValidSet("r1", "r2"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, again.Outcome)
}

func TestProcess_ValueFunctionErrorWritesNothing(t *testing.T) {
	store := newMemStore()
	p := NewProcessor(store)
	cause := errors.New("source unreachable")
	stat := &Statistic{
		Name:        "active_users",
		Level:       models.LevelRealm,
		Granularity: interval.Gauge,
		Value: func(context.Context, interval.TimeInterval) ([]models.EntityValue, error) {
			return nil, cause
		},
	}

	_, err := p.Process(context.Background(), stat, gaugeBucket(t, "2024-01-02T00:00:00Z"), NewValidSet("a"))
	require.Error(t, err)

	var vfErr *ValueFunctionError
	require.ErrorAs(t, err, &vfErr)
	assert.Equal(t, "active_users:realm:gauge", vfErr.Statistic)
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, store.all(models.LevelRealm))
}

func TestProcess_DuplicateWriteIsSwallowed(t *testing.T) {
	store := newMemStore()
	p := NewProcessor(store, WithExistenceMode(ExistenceBucket))
	end := mustTime("2024-01-02T00:00:00Z")
	stat := &Statistic{
		Name:        "active_users",
		Level:       models.LevelRealm,
		Granularity: interval.Gauge,
		// Simulates a concurrent run committing between the existence check
		// and this run's insert.
		Value: func(context.Context, interval.TimeInterval) ([]models.EntityValue, error) {
			store.add(models.LevelRealm, models.CountRow{
				EntityID: "a", Statistic: "active_users", EndTime: end, Granularity: interval.Gauge, Value: 1,
			})
			return []models.EntityValue{ev("a", 1)}, nil
		},
	}

	res, err := p.Process(context.Background(), stat, gaugeBucket(t, "2024-01-02T00:00:00Z"), NewValidSet("a"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, res.Outcome)
	assert.Len(t, store.all(models.LevelRealm), 1)
}

func TestProcess_GranularityMismatch(t *testing.T) {
	p := NewProcessor(newMemStore())
	stat := &Statistic{Name: "x", Level: models.LevelUser, Granularity: interval.Day, Value: constant()}
	bucket, err := interval.New(mustTime("2024-01-02T05:00:00Z"), interval.Hour)
	require.NoError(t, err)

	_, err = p.Process(context.Background(), stat, bucket, NewValidSet())
	assert.ErrorIs(t, err, ErrGranularityMismatch)
}

func TestProcess_EmptyResultIsNotPersisted(t *testing.T) {
	store := newMemStore()
	p := NewProcessor(store)
	stat := &Statistic{Name: "x", Level: models.LevelRealm, Granularity: interval.Gauge, Value: constant(ev("other", 1))}

	res, err := p.Process(context.Background(), stat, gaugeBucket(t, "2024-01-02T00:00:00Z"), NewValidSet("r1"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeEmpty, res.Outcome)
	assert.Equal(t, 0, store.inserts)
}

func TestProcess_MergesDuplicateEntities(t *testing.T) {
	store := newMemStore()
	p := NewProcessor(store)
	stat := &Statistic{Name: "x", Level: models.LevelUser, Granularity: interval.Gauge, Value: constant(ev("u1", 2), ev("u1", 3))}

	_, err := p.Process(context.Background(), stat, gaugeBucket(t, "2024-01-02T00:00:00Z"), NewValidSet("u1"))
	require.NoError(t, err)

	rows := store.all(models.LevelUser)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(5), rows[0].Value)
}

func TestProcess_PartialBatchGap(t *testing.T) {
	bucket := gaugeBucket(t, "2024-01-02T00:00:00Z")
	stat := &Statistic{Name: "active_users", Level: models.LevelRealm, Granularity: interval.Gauge, Value: constant(ev("A", 1), ev("B", 2))}
	valid := NewValidSet("A", "B")

	t.Run("bucket mode skips the partial bucket", func(t *testing.T) {
		store := newMemStore()
		store.failInsertAfter = 1
		p := NewProcessor(store)

		_, err := p.Process(context.Background(), stat, bucket, valid)
		require.Error(t, err)
		require.Len(t, store.all(models.LevelRealm), 1)

		store.failInsertAfter = -1
		res, err := p.Process(context.Background(), stat, bucket, valid)
		require.NoError(t, err)
		assert.Equal(t, OutcomeSkipped, res.Outcome)
		assert.Len(t, store.all(models.LevelRealm), 1, "B stays missing in bucket mode")
	})

	t.Run("entity mode completes the partial bucket", func(t *testing.T) {
		store := newMemStore()
		store.failInsertAfter = 1
		p := NewProcessor(store, WithExistenceMode(ExistenceEntity))

		_, err := p.Process(context.Background(), stat, bucket, valid)
		require.Error(t, err)

		store.failInsertAfter = -1
		res, err := p.Process(context.Background(), stat, bucket, valid)
		require.NoError(t, err)
		assert.Equal(t, OutcomeWritten, res.Outcome)
		assert.Equal(t, 1, res.Rows)
		assert.Len(t, store.all(models.LevelRealm), 2)

		res, err = p.Process(context.Background(), stat, bucket, valid)
		require.NoError(t, err)
		assert.Equal(t, OutcomeSkipped, res.Outcome)
	})
}

func TestProcess_Notifier(t *testing.T) {
	n := &recordingNotifier{err: errors.New("broker down")}
	p := NewProcessor(newMemStore(), WithNotifier(n))
	stat := &Statistic{Name: "active_users", Level: models.LevelRealm, Granularity: interval.Gauge, Value: constant(ev("a", 4), ev("b", 6))}

	res, err := p.Process(context.Background(), stat, gaugeBucket(t, "2024-01-02T00:00:00Z"), NewValidSet("a", "b"))
	require.NoError(t, err, "notifier failures must not fail the bucket")
	assert.Equal(t, OutcomeWritten, res.Outcome)

	require.Len(t, n.events, 1)
	e := n.events[0]
	assert.Equal(t, "active_users", e.Statistic)
	assert.Equal(t, models.LevelRealm, e.Level)
	assert.Equal(t, 2, e.Rows)
	assert.Equal(t, int64(10), e.Total)
	assert.NotEmpty(t, e.EventID)
}

func TestParseExistenceMode(t *testing.T) {
	m, err := ParseExistenceMode("")
	require.NoError(t, err)
	assert.Equal(t, ExistenceBucket, m)

	m, err = ParseExistenceMode("entity")
	require.NoError(t, err)
	assert.Equal(t, ExistenceEntity, m)

	_, err = ParseExistenceMode("row")
	assert.Error(t, err)
}
