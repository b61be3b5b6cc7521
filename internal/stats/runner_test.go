// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/chatstats/internal/interval"
	"github.com/tomtom215/chatstats/internal/models"
)

type runnerFixture struct {
	store    *memStore
	registry *Registry
	entities *staticEntities
	runner   *Runner
	calls    []time.Time
}

func newRunnerFixture(t *testing.T, cfg RunnerConfig) *runnerFixture {
	t.Helper()
	f := &runnerFixture{
		store:    newMemStore(),
		registry: NewRegistry(),
		entities: &staticEntities{sets: map[models.EntityLevel]ValidSet{
			models.LevelRealm:        NewValidSet("r1", "r2"),
			models.LevelInstallation: NewValidSet(models.InstallationEntityID),
		}},
	}
	raw := &Statistic{
		Name:        "active_users",
		Level:       models.LevelRealm,
		Granularity: interval.Gauge,
		Value: func(_ context.Context, b interval.TimeInterval) ([]models.EntityValue, error) {
			f.calls = append(f.calls, b.End)
			return []models.EntityValue{ev("r1", 3), ev("r2", 4), ev("deactivated", 100)}, nil
		},
	}
	require.NoError(t, f.registry.Register(raw))
	require.NoError(t, f.registry.Register(NewEntityRollupStatistic(f.store, "active_users", models.LevelRealm, models.LevelInstallation, interval.Gauge, InstallationParents)))

	f.runner = NewRunner(f.registry, NewProcessor(f.store), f.entities, f.store, cfg)
	return f
}

func TestRunner_RunUntil_FromLookback(t *testing.T) {
	f := newRunnerFixture(t, RunnerConfig{InitialLookback: 3 * time.Hour})
	now := mustTime("2024-05-02T01:30:00Z")

	report, err := f.runner.RunUntil(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 6, report.Jobs)
	assert.Equal(t, 6, report.Written)
	assert.Equal(t, 3, report.Filtered)
	assert.Len(t, f.calls, 3)

	inst := f.store.all(models.LevelInstallation)
	require.Len(t, inst, 3)
	for _, r := range inst {
		assert.Equal(t, int64(7), r.Value, "installation rollup excludes filtered realms")
	}

	state, ok, err := f.store.GetFillState(context.Background(), "active_users:installation:gauge")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.FillDone, state.Status)
	assert.True(t, state.EndTime.Equal(mustTime("2024-05-02T01:00:00Z")))

	assert.Equal(t, 1, f.entities.calls[models.LevelRealm], "valid set loaded once per level per run")
	assert.Equal(t, 1, f.entities.calls[models.LevelInstallation])
}

func TestRunner_RunUntil_Resumes(t *testing.T) {
	f := newRunnerFixture(t, RunnerConfig{InitialLookback: time.Hour})

	_, err := f.runner.RunUntil(context.Background(), mustTime("2024-05-02T01:30:00Z"))
	require.NoError(t, err)
	f.calls = nil

	report, err := f.runner.RunUntil(context.Background(), mustTime("2024-05-02T03:10:00Z"))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{mustTime("2024-05-02T02:00:00Z"), mustTime("2024-05-02T03:00:00Z")}, f.calls)
	assert.Equal(t, 4, report.Written)
	assert.Equal(t, 0, report.Skipped)
}

func TestRunner_RunUntil_RetriesStartedBucket(t *testing.T) {
	f := newRunnerFixture(t, RunnerConfig{InitialLookback: time.Hour})
	started := mustTime("2024-05-02T01:00:00Z")
	for _, key := range []string{"active_users:realm:gauge", "active_users:installation:gauge"} {
		require.NoError(t, f.store.SetFillState(context.Background(), models.FillState{StatisticKey: key, EndTime: started, Status: models.FillStarted}))
	}

	_, err := f.runner.RunUntil(context.Background(), mustTime("2024-05-02T01:59:00Z"))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{started}, f.calls)
}

func TestRunner_AbortsOnFirstError(t *testing.T) {
	f := newRunnerFixture(t, RunnerConfig{InitialLookback: 2 * time.Hour})
	boom := errors.New("collector down")
	failing := &Statistic{
		Name:        "new_users",
		Level:       models.LevelRealm,
		Granularity: interval.Gauge,
		Value: func(context.Context, interval.TimeInterval) ([]models.EntityValue, error) {
			return nil, boom
		},
	}
	require.NoError(t, f.registry.Register(failing))

	report, err := f.runner.RunUntil(context.Background(), mustTime("2024-05-02T01:30:00Z"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var vfErr *ValueFunctionError
	assert.ErrorAs(t, err, &vfErr)
	// First bucket end: realm and installation written before new_users failed.
	assert.Equal(t, 2, report.Written)
	assert.Len(t, f.calls, 1)

	state, ok, err := f.store.GetFillState(context.Background(), "new_users:realm:gauge")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.FillStarted, state.Status)
}

func TestRunner_BackfillDoesNotRewindFillState(t *testing.T) {
	f := newRunnerFixture(t, RunnerConfig{InitialLookback: time.Hour})
	now := mustTime("2024-05-10T00:30:00Z")
	_, err := f.runner.RunUntil(context.Background(), now)
	require.NoError(t, err)

	report, err := f.runner.Backfill(context.Background(), []string{"active_users:installation:gauge"},
		mustTime("2024-05-01T00:00:00Z"), mustTime("2024-05-01T02:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, 6, report.Written)

	state, _, err := f.store.GetFillState(context.Background(), "active_users:realm:gauge")
	require.NoError(t, err)
	assert.True(t, state.EndTime.Equal(mustTime("2024-05-10T00:00:00Z")))

	again, err := f.runner.Backfill(context.Background(), nil, mustTime("2024-05-01T00:00:00Z"), mustTime("2024-05-01T02:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, 6, again.Skipped)
	assert.Equal(t, 0, again.Written)
}

func TestRunner_BackfillUnknownStatistic(t *testing.T) {
	f := newRunnerFixture(t, RunnerConfig{})
	_, err := f.runner.Backfill(context.Background(), []string{"nope"}, time.Now(), time.Now())
	assert.ErrorIs(t, err, ErrUnknownStatistic)
}

func TestRunner_RejectsOverlappingRuns(t *testing.T) {
	f := newRunnerFixture(t, RunnerConfig{InitialLookback: time.Hour})
	var nested error
	reentrant := &Statistic{
		Name:        "reentrant",
		Level:       models.LevelRealm,
		Granularity: interval.Gauge,
		Value: func(ctx context.Context, _ interval.TimeInterval) ([]models.EntityValue, error) {
			_, nested = f.runner.RunUntil(ctx, time.Now())
			return nil, nil
		},
	}
	require.NoError(t, f.registry.Register(reentrant))

	_, err := f.runner.RunUntil(context.Background(), mustTime("2024-05-02T00:10:00Z"))
	require.NoError(t, err)
	assert.ErrorIs(t, nested, ErrRunInProgress)
}

func TestRunner_Throttled(t *testing.T) {
	f := newRunnerFixture(t, RunnerConfig{InitialLookback: time.Hour, BucketsPerSecond: 1000})
	report, err := f.runner.RunUntil(context.Background(), mustTime("2024-05-02T00:10:00Z"))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Written)
}

func TestRunner_CanceledContext(t *testing.T) {
	f := newRunnerFixture(t, RunnerConfig{InitialLookback: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.runner.RunUntil(ctx, mustTime("2024-05-02T00:10:00Z"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.calls)
}

// newHourlyFixture registers an hourly user stat worth 1 per hour and its day
// rollup.
func newHourlyFixture(t *testing.T, cfg RunnerConfig) (*Runner, *memStore) {
	t.Helper()
	store := newMemStore()
	registry := NewRegistry()
	require.NoError(t, registry.Register(&Statistic{
		Name:        "messages_sent",
		Level:       models.LevelUser,
		Granularity: interval.Hour,
		Value:       constant(ev("u1", 1)),
	}))
	require.NoError(t, registry.Register(NewDayRollupStatistic(store, "messages_sent", models.LevelUser)))

	entities := &staticEntities{sets: map[models.EntityLevel]ValidSet{models.LevelUser: NewValidSet("u1")}}
	return NewRunner(registry, NewProcessor(store), entities, store, cfg), store
}

func dayValue(t *testing.T, store *memStore, end string) int64 {
	t.Helper()
	rows, err := store.BucketRows(context.Background(), models.LevelUser, "messages_sent", mustTime(end), interval.Day)
	require.NoError(t, err)
	require.Len(t, rows, 1, "day row at %s", end)
	return rows[0].Value
}

func TestRunner_BackfillFromMidDayWritesFullDay(t *testing.T) {
	runner, store := newHourlyFixture(t, RunnerConfig{})

	_, err := runner.Backfill(context.Background(), nil, mustTime("2024-05-01T03:00:00Z"), mustTime("2024-05-02T00:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, int64(24), dayValue(t, store, "2024-05-02T00:00:00Z"))

	_, err = runner.Backfill(context.Background(), nil, mustTime("2024-05-01T00:00:00Z"), mustTime("2024-05-02T00:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, int64(24), dayValue(t, store, "2024-05-01T00:00:00Z"))
	assert.Equal(t, int64(24), dayValue(t, store, "2024-05-02T00:00:00Z"))
}

func TestRunner_RunUntilFromMidDayWritesFullDays(t *testing.T) {
	runner, store := newHourlyFixture(t, RunnerConfig{InitialLookback: 30 * time.Hour})

	_, err := runner.RunUntil(context.Background(), mustTime("2024-05-03T12:30:00Z"))
	require.NoError(t, err)
	assert.Equal(t, int64(24), dayValue(t, store, "2024-05-03T00:00:00Z"))

	// The next run resumes the day stat after its last day and pulls in
	// whatever hours that day still needs.
	_, err = runner.RunUntil(context.Background(), mustTime("2024-05-04T01:30:00Z"))
	require.NoError(t, err)
	assert.Equal(t, int64(24), dayValue(t, store, "2024-05-04T00:00:00Z"))
}

func TestRunner_EmptyBucketRevisitedOnlyByBackfill(t *testing.T) {
	store := newMemStore()
	registry := NewRegistry()
	var calls []time.Time
	require.NoError(t, registry.Register(&Statistic{
		Name:        "quiet",
		Level:       models.LevelRealm,
		Granularity: interval.Hour,
		Value: func(_ context.Context, b interval.TimeInterval) ([]models.EntityValue, error) {
			calls = append(calls, b.End)
			return nil, nil
		},
	}))
	entities := &staticEntities{sets: map[models.EntityLevel]ValidSet{models.LevelRealm: NewValidSet("r1")}}
	runner := NewRunner(registry, NewProcessor(store), entities, store, RunnerConfig{InitialLookback: time.Hour})

	report, err := runner.RunUntil(context.Background(), mustTime("2024-05-02T01:30:00Z"))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Empty)
	assert.Empty(t, store.all(models.LevelRealm))

	state, ok, err := store.GetFillState(context.Background(), "quiet:realm:hour")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.FillDone, state.Status)

	calls = nil
	_, err = runner.RunUntil(context.Background(), mustTime("2024-05-02T01:45:00Z"))
	require.NoError(t, err)
	assert.Empty(t, calls, "scheduled runs move past an empty bucket")

	report, err = runner.Backfill(context.Background(), nil, mustTime("2024-05-02T01:00:00Z"), mustTime("2024-05-02T01:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Empty)
	assert.Equal(t, []time.Time{mustTime("2024-05-02T01:00:00Z")}, calls)
}
