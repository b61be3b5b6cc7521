// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package interval

import (
	"slices"
	"time"
)

// BucketRange enumerates every bucket of granularity g, stepped by step,
// covering [first, last]. The result is ascending.
//
// Bucket ends sit on step boundaries. When step is finer than g the buckets
// are trailing windows, e.g. a day-wide bucket ending on every hour.
func BucketRange(first, last time.Time, g, step Granularity) ([]TimeInterval, error) {
	if !g.Valid() {
		return nil, unsupported("range", g)
	}
	if step != Hour && step != Day {
		return nil, unsupported("range step", step)
	}
	end, err := FloorToBoundary(last, step)
	if err != nil {
		return nil, err
	}
	first = first.UTC()

	var buckets []TimeInterval
	for !end.Before(first) {
		bucket, err := at(end, g)
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, bucket)

		end, err = SubtractInterval(end, step)
		if err != nil {
			return nil, err
		}
	}

	slices.Reverse(buckets)
	return buckets, nil
}

// CountBuckets returns how many buckets BucketRange would produce for step
// over [first, last] without building them.
func CountBuckets(first, last time.Time, step Granularity) (int64, error) {
	width, err := Width(step)
	if err != nil {
		return 0, unsupported("range step", step)
	}
	end, err := FloorToBoundary(last, step)
	if err != nil {
		return 0, err
	}
	if end.Before(first) {
		return 0, nil
	}
	// Sub saturates, so absurd spans still compare as too large.
	return int64(end.Sub(first)/width) + 1, nil
}

// Ends returns the End of each bucket.
func Ends(buckets []TimeInterval) []time.Time {
	ends := make([]time.Time, len(buckets))
	for i, b := range buckets {
		ends[i] = b.End
	}
	return ends
}
