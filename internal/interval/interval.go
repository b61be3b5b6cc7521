// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package interval

import (
	"fmt"
	"time"
)

// BeginningOfTime is the start of every gauge interval.
var BeginningOfTime = time.Unix(0, 0).UTC()

// TimeInterval describes one bucket of work.
type TimeInterval struct {
	Granularity Granularity
	Start       time.Time
	End         time.Time
}

// New builds the interval of granularity g whose end is end floored to the
// granularity's boundary.
func New(end time.Time, g Granularity) (TimeInterval, error) {
	floored, err := FloorToBoundary(end, g)
	if err != nil {
		return TimeInterval{}, err
	}
	return at(floored, g)
}

// at builds an interval ending exactly at end. end must already be aligned to
// the caller's step boundary.
func at(end time.Time, g Granularity) (TimeInterval, error) {
	if g == Gauge {
		return TimeInterval{Granularity: g, Start: BeginningOfTime, End: end}, nil
	}
	start, err := SubtractInterval(end, g)
	if err != nil {
		return TimeInterval{}, err
	}
	return TimeInterval{Granularity: g, Start: start, End: end}, nil
}

// IsGauge reports whether the interval is a cumulative snapshot.
func (ti TimeInterval) IsGauge() bool {
	return ti.Granularity == Gauge
}

// Contains reports whether t falls in [Start, End).
func (ti TimeInterval) Contains(t time.Time) bool {
	return !t.Before(ti.Start) && t.Before(ti.End)
}

// String implements fmt.Stringer.
func (ti TimeInterval) String() string {
	return fmt.Sprintf("%s[%s, %s)", ti.Granularity, ti.Start.Format(time.RFC3339), ti.End.Format(time.RFC3339))
}

// FloorToBoundary zeroes the sub-granularity fields of t, in UTC.
// Gauge buckets floor to the hour.
func FloorToBoundary(t time.Time, g Granularity) (time.Time, error) {
	t = t.UTC()
	switch g {
	case Hour, Gauge:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC), nil
	case Day:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	default:
		return time.Time{}, unsupported("floor", g)
	}
}

// SubtractInterval steps t back by exactly one bucket width.
// Gauges are snapshots, not deltas, and cannot be subtracted.
func SubtractInterval(t time.Time, g Granularity) (time.Time, error) {
	w, err := Width(g)
	if err != nil {
		return time.Time{}, unsupported("subtract", g)
	}
	return t.UTC().Add(-w), nil
}

// Width is the span of one bucket of g. Gauges have none.
func Width(g Granularity) (time.Duration, error) {
	switch g {
	case Hour:
		return time.Hour, nil
	case Day:
		return 24 * time.Hour, nil
	default:
		return 0, unsupported("width", g)
	}
}

// Subintervals lists the granularities that can compose g, coarsest first.
// A daily value may be computed directly or rolled up from hourly buckets.
func Subintervals(g Granularity) ([]Granularity, error) {
	switch g {
	case Day:
		return []Granularity{Day, Hour}, nil
	case Hour:
		return []Granularity{Hour}, nil
	case Gauge:
		return []Granularity{Gauge}, nil
	default:
		return nil, unsupported("subintervals", g)
	}
}

// StepFor returns the step at which buckets of granularity g are scheduled.
func StepFor(g Granularity) (Granularity, error) {
	switch g {
	case Hour, Gauge:
		return Hour, nil
	case Day:
		return Day, nil
	default:
		return "", unsupported("step", g)
	}
}
