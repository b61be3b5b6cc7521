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
	"strings"
	"time"

	"github.com/tomtom215/chatstats/internal/interval"
	"github.com/tomtom215/chatstats/internal/metrics"
	"github.com/tomtom215/chatstats/internal/models"
)

// HasBucket reports whether any row exists for (statistic, end, g) at level.
func (db *DB) HasBucket(ctx context.Context, level models.EntityLevel, statistic string, end time.Time, g interval.Granularity) (exists bool, err error) {
	table, err := tableFor(level)
	if err != nil {
		return false, err
	}
	start := time.Now()
	defer func() { metrics.RecordDBQuery("has_bucket", table, time.Since(start), err) }()

	query := fmt.Sprintf(`SELECT 1 FROM %s WHERE statistic = ? AND end_time = ? AND granularity = ? LIMIT 1`, table)
	var one int
	err = db.conn.QueryRowContext(ctx, query, statistic, end.Unix(), string(g)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check bucket: %w", err)
	}
	return true, nil
}

// ExistingEntityIDs returns the entity ids that have a row for the bucket.
func (db *DB) ExistingEntityIDs(ctx context.Context, level models.EntityLevel, statistic string, end time.Time, g interval.Granularity) (map[string]struct{}, error) {
	rows, err := db.BucketRows(ctx, level, statistic, end, g)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		ids[r.EntityID] = struct{}{}
	}
	return ids, nil
}

// InsertCounts appends rows to the level's table as multi-row INSERT
// statements of at most chunkSize rows.
//
// Each statement commits on its own, so a failure after the first chunk
// leaves the bucket partially written. In the default bucket existence mode
// such a bucket is skipped by later runs until it is removed with
// DeleteBucket.
func (db *DB) InsertCounts(ctx context.Context, level models.EntityLevel, rows []models.CountRow) (err error) {
	if len(rows) == 0 {
		return nil
	}
	table, err := tableFor(level)
	if err != nil {
		return err
	}
	start := time.Now()
	defer func() { metrics.RecordDBQuery("insert_counts", table, time.Since(start), err) }()

	for offset := 0; offset < len(rows); offset += db.chunkSize {
		end := offset + db.chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := db.insertChunk(ctx, table, rows[offset:end]); err != nil {
			return fmt.Errorf("failed to insert rows %d-%d of %d into %s: %w", offset, end-1, len(rows), table, mapInsertError(err))
		}
	}
	return nil
}

func (db *DB) insertChunk(ctx context.Context, table string, rows []models.CountRow) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (entity_id, statistic, end_time, granularity, value) VALUES ", table)
	args := make([]interface{}, 0, len(rows)*5)
	for i, r := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?)")
		args = append(args, r.EntityID, r.Statistic, r.EndTime.Unix(), string(r.Granularity), r.Value)
	}
	_, err := db.conn.ExecContext(ctx, sb.String(), args...)
	return err
}

// BucketRows returns every row of one bucket at level, ordered by entity id.
func (db *DB) BucketRows(ctx context.Context, level models.EntityLevel, statistic string, end time.Time, g interval.Granularity) ([]models.CountRow, error) {
	table, err := tableFor(level)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT entity_id, statistic, end_time, granularity, value FROM %s
		WHERE statistic = ? AND end_time = ? AND granularity = ?
		ORDER BY entity_id`, table)
	return db.queryCounts(ctx, "bucket_rows", table, query, statistic, end.Unix(), string(g))
}

// RowsInRange returns rows at level with granularity g and end_time in (after, upTo].
func (db *DB) RowsInRange(ctx context.Context, level models.EntityLevel, statistic string, g interval.Granularity, after, upTo time.Time) ([]models.CountRow, error) {
	table, err := tableFor(level)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT entity_id, statistic, end_time, granularity, value FROM %s
		WHERE statistic = ? AND granularity = ? AND end_time > ? AND end_time <= ?
		ORDER BY end_time, entity_id`, table)
	return db.queryCounts(ctx, "rows_in_range", table, query, statistic, string(g), after.Unix(), upTo.Unix())
}

func (db *DB) queryCounts(ctx context.Context, op, table, query string, args ...interface{}) (result []models.CountRow, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery(op, table, time.Since(start), err) }()

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer closeQuietly(rows)

	for rows.Next() {
		var (
			r    models.CountRow
			end  int64
			gran string
		)
		if err := rows.Scan(&r.EntityID, &r.Statistic, &end, &gran, &r.Value); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		r.EndTime = time.Unix(end, 0).UTC()
		r.Granularity = interval.Granularity(gran)
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating count rows: %w", err)
	}
	return result, nil
}

// DeleteBucket removes every row of one bucket. It is the manual repair for
// partially written buckets. Returns the number of rows removed.
func (db *DB) DeleteBucket(ctx context.Context, level models.EntityLevel, statistic string, end time.Time, g interval.Granularity) (int64, error) {
	table, err := tableFor(level)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE statistic = ? AND end_time = ? AND granularity = ?`, table)
	return db.execCount(ctx, "delete_bucket", table, query, statistic, end.Unix(), string(g))
}

// DeleteStatistic removes every row of statistic at level.
func (db *DB) DeleteStatistic(ctx context.Context, level models.EntityLevel, statistic string) (int64, error) {
	table, err := tableFor(level)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE statistic = ?`, table)
	return db.execCount(ctx, "delete_statistic", table, query, statistic)
}

func (db *DB) execCount(ctx context.Context, op, table, query string, args ...interface{}) (n int64, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery(op, table, time.Since(start), err) }()

	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to %s: %w", strings.ReplaceAll(op, "_", " "), err)
	}
	n, err = res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}

// TimeSeries returns the value of one entity's statistic at each end,
// with zero for ends that have no row.
func (db *DB) TimeSeries(ctx context.Context, level models.EntityLevel, statistic, entityID string, g interval.Granularity, ends []time.Time) ([]models.CountPoint, error) {
	points := make([]models.CountPoint, len(ends))
	for i, e := range ends {
		points[i] = models.CountPoint{EndTime: e.UTC()}
	}
	if len(ends) == 0 {
		return points, nil
	}

	first, last := ends[0], ends[0]
	for _, e := range ends[1:] {
		if e.Before(first) {
			first = e
		}
		if e.After(last) {
			last = e
		}
	}

	rows, err := db.RowsInRange(ctx, level, statistic, g, first.Add(-time.Second), last)
	if err != nil {
		return nil, err
	}
	byEnd := make(map[int64]int64, len(rows))
	for _, r := range rows {
		if r.EntityID == entityID {
			byEnd[r.EndTime.Unix()] = r.Value
		}
	}
	for i := range points {
		points[i].Value = byEnd[points[i].EndTime.Unix()]
	}
	return points, nil
}

// CountSummary is the row count of one statistic and granularity at a level.
type CountSummary struct {
	Level       models.EntityLevel   `json:"level"`
	Statistic   string               `json:"statistic"`
	Granularity interval.Granularity `json:"granularity"`
	Rows        int64                `json:"rows"`
	FirstEnd    time.Time            `json:"first_end"`
	LastEnd     time.Time            `json:"last_end"`
}

// Summarize returns per-statistic row counts for every level.
func (db *DB) Summarize(ctx context.Context) ([]CountSummary, error) {
	var out []CountSummary
	for _, level := range models.Levels {
		query := fmt.Sprintf(`SELECT statistic, granularity, COUNT(*), MIN(end_time), MAX(end_time)
			FROM %s GROUP BY statistic, granularity ORDER BY statistic, granularity`, level.Table())
		rows, err := db.conn.QueryContext(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("failed to summarize %s: %w", level.Table(), err)
		}
		for rows.Next() {
			var (
				s           CountSummary
				gran        string
				first, last int64
			)
			if err := rows.Scan(&s.Statistic, &gran, &s.Rows, &first, &last); err != nil {
				closeQuietly(rows)
				return nil, fmt.Errorf("failed to scan summary: %w", err)
			}
			s.Level = level
			s.Granularity = interval.Granularity(gran)
			s.FirstEnd = time.Unix(first, 0).UTC()
			s.LastEnd = time.Unix(last, 0).UTC()
			out = append(out, s)
		}
		err = rows.Err()
		closeWithLog(rows, "summary rows")
		if err != nil {
			return nil, fmt.Errorf("error iterating summary: %w", err)
		}
	}
	return out, nil
}
