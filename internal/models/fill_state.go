// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package models

import "time"

// FillStatus records whether the most recent bucket of a statistic finished.
type FillStatus string

const (
	FillStarted FillStatus = "started"
	FillDone    FillStatus = "done"
)

// FillState is the scheduler's bookkeeping for one statistic.
//
// It only decides where the next run resumes. Whether a bucket has been
// processed is always answered by the count tables themselves.
type FillState struct {
	StatisticKey string     `json:"statistic_key"`
	EndTime      time.Time  `json:"end_time"`
	Status       FillStatus `json:"status"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
