// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package interval

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedGranularity is returned when a granularity tag is passed to an
// operation that does not support it.
var ErrUnsupportedGranularity = errors.New("unsupported granularity")

// Granularity is the shape of a time bucket.
type Granularity string

const (
	// Hour buckets cover [end-1h, end).
	Hour Granularity = "hour"
	// Day buckets cover [end-24h, end).
	Day Granularity = "day"
	// Gauge buckets are cumulative snapshots as of end.
	Gauge Granularity = "gauge"
)

// String implements fmt.Stringer.
func (g Granularity) String() string {
	return string(g)
}

// Valid reports whether g is one of the supported granularities.
func (g Granularity) Valid() bool {
	switch g {
	case Hour, Day, Gauge:
		return true
	default:
		return false
	}
}

// ParseGranularity converts a configuration or CLI string to a Granularity.
// Matching is case-insensitive.
func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(strings.ToLower(strings.TrimSpace(s)))
	if !g.Valid() {
		return "", unsupported("parse", g)
	}
	return g, nil
}

func unsupported(op string, g Granularity) error {
	return fmt.Errorf("%s %q: %w", op, string(g), ErrUnsupportedGranularity)
}
