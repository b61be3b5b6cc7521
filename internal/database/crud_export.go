// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package database

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/chatstats/internal/interval"
	"github.com/tomtom215/chatstats/internal/models"
)

// ExportFilter narrows ExportCounts. Zero fields match everything.
type ExportFilter struct {
	Statistic string
	From      time.Time
	To        time.Time
}

// exportRecord is one JSON line of an export.
type exportRecord struct {
	Level models.EntityLevel `json:"level"`
	models.CountRow
}

// ExportCounts writes every matching row at level as newline-delimited JSON
// ordered by end time. Returns the number of rows written.
func (db *DB) ExportCounts(ctx context.Context, w io.Writer, level models.EntityLevel, filter ExportFilter) (int, error) {
	table, err := tableFor(level)
	if err != nil {
		return 0, err
	}

	var (
		where []string
		args  []interface{}
	)
	if filter.Statistic != "" {
		where = append(where, "statistic = ?")
		args = append(args, filter.Statistic)
	}
	if !filter.From.IsZero() {
		where = append(where, "end_time >= ?")
		args = append(args, filter.From.Unix())
	}
	if !filter.To.IsZero() {
		where = append(where, "end_time <= ?")
		args = append(args, filter.To.Unix())
	}

	query := "SELECT entity_id, statistic, end_time, granularity, value FROM " + table
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY end_time, statistic, granularity, entity_id"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to query %s for export: %w", table, err)
	}
	defer closeQuietly(rows)

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	n := 0
	for rows.Next() {
		var (
			rec  = exportRecord{Level: level}
			end  int64
			gran string
		)
		if err := rows.Scan(&rec.EntityID, &rec.Statistic, &end, &gran, &rec.Value); err != nil {
			return n, fmt.Errorf("failed to scan export row: %w", err)
		}
		rec.EndTime = time.Unix(end, 0).UTC()
		rec.Granularity = interval.Granularity(gran)
		if err := enc.Encode(&rec); err != nil {
			return n, fmt.Errorf("failed to encode export row: %w", err)
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return n, fmt.Errorf("error iterating export rows: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return n, fmt.Errorf("failed to flush export: %w", err)
	}
	return n, nil
}
