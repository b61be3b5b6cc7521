// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/chatstats/internal/interval"
	"github.com/tomtom215/chatstats/internal/models"
)

// RowReader reads persisted rows for rollups.
type RowReader interface {
	// BucketRows returns every row of one bucket at level.
	BucketRows(ctx context.Context, level models.EntityLevel, statistic string, end time.Time, g interval.Granularity) ([]models.CountRow, error)

	// RowsInRange returns rows at level with granularity g and end_time in (after, upTo].
	RowsInRange(ctx context.Context, level models.EntityLevel, statistic string, g interval.Granularity, after, upTo time.Time) ([]models.CountRow, error)
}

// EntityRollup returns a ValueFunc that sums the rows of the same bucket at
// the finer level from, grouped by the parent each entity resolves to.
// Entities without a parent are dropped. Missing finer rows undercount.
func EntityRollup(reader RowReader, name string, from models.EntityLevel, parents ParentResolver) ValueFunc {
	return func(ctx context.Context, bucket interval.TimeInterval) ([]models.EntityValue, error) {
		rows, err := reader.BucketRows(ctx, from, name, bucket.End, bucket.Granularity)
		if err != nil {
			return nil, fmt.Errorf("read %s rows for %s: %w", from, name, err)
		}
		if len(rows) == 0 {
			return nil, nil
		}

		ids := make([]string, len(rows))
		for i, r := range rows {
			ids[i] = r.EntityID
		}
		owner, err := parents(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("resolve parents of %d %s entities: %w", len(ids), from, err)
		}

		sums := make(map[string]int64)
		for _, r := range rows {
			parent, ok := owner[r.EntityID]
			if !ok {
				continue
			}
			sums[parent] += r.Value
		}
		return sortedValues(sums), nil
	}
}

// HourToDay returns a ValueFunc for a day bucket that sums the hourly rows at
// level whose end_time falls in (End - 24h, End], per entity. Missing hours
// undercount rather than fail.
func HourToDay(reader RowReader, level models.EntityLevel, name string) ValueFunc {
	return func(ctx context.Context, bucket interval.TimeInterval) ([]models.EntityValue, error) {
		if bucket.Granularity != interval.Day {
			return nil, fmt.Errorf("%w: hour-to-day rollup for %s bucket", interval.ErrUnsupportedGranularity, bucket.Granularity)
		}
		after, err := interval.SubtractInterval(bucket.End, interval.Day)
		if err != nil {
			return nil, err
		}

		rows, err := reader.RowsInRange(ctx, level, name, interval.Hour, after, bucket.End)
		if err != nil {
			return nil, fmt.Errorf("read hourly %s rows for %s: %w", level, name, err)
		}

		sums := make(map[string]int64)
		for _, r := range rows {
			sums[r.EntityID] += r.Value
		}
		return sortedValues(sums), nil
	}
}

func sortedValues(sums map[string]int64) []models.EntityValue {
	out := make([]models.EntityValue, 0, len(sums))
	for id, v := range sums {
		out = append(out, models.EntityValue{EntityID: id, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out
}

// NewEntityRollupStatistic defines name at level to as the rollup of name at
// the finer level from, for the same granularity.
func NewEntityRollupStatistic(reader RowReader, name string, from, to models.EntityLevel, g interval.Granularity, parents ParentResolver) *Statistic {
	return &Statistic{
		Name:        name,
		Level:       to,
		Granularity: g,
		Value:       EntityRollup(reader, name, from, parents),
		RollsUpFrom: from,
		DependsOn:   []string{MakeKey(name, from, g)},
	}
}

// NewDayRollupStatistic defines the day bucket of name at level as the sum of
// its hourly buckets.
func NewDayRollupStatistic(reader RowReader, name string, level models.EntityLevel) *Statistic {
	return &Statistic{
		Name:        name,
		Level:       level,
		Granularity: interval.Day,
		Value:       HourToDay(reader, level, name),
		DependsOn:   []string{MakeKey(name, level, interval.Hour)},
	}
}
