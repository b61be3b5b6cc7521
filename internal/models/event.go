// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package models

import (
	"time"

	"github.com/tomtom215/chatstats/internal/interval"
)

// BucketEvent is published after a bucket's rows have been persisted.
type BucketEvent struct {
	EventID     string               `json:"event_id"`
	Statistic   string               `json:"statistic"`
	Level       EntityLevel          `json:"level"`
	Granularity interval.Granularity `json:"granularity"`
	EndTime     time.Time            `json:"end_time"`
	Rows        int                  `json:"rows"`
	Total       int64                `json:"total"`
	WrittenAt   time.Time            `json:"written_at"`
}
