// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package stats

import (
	"fmt"
	"slices"
	"time"

	"github.com/tomtom215/chatstats/internal/interval"
)

// Job is one bucket of one statistic.
type Job struct {
	Statistic *Statistic
	Bucket    interval.TimeInterval
}

// Span is the range of bucket ends to cover for one statistic.
type Span struct {
	Statistic *Statistic
	First     time.Time
	Last      time.Time
}

// Plan covers [first, last] for every statistic. stats must be in dependency
// order, as returned by Registry.All or Registry.Select. Dependencies are
// widened as PlanSpans describes.
func Plan(stats []*Statistic, first, last time.Time) ([]Job, error) {
	spans := make([]Span, len(stats))
	for i, s := range stats {
		spans[i] = Span{Statistic: s, First: first, Last: last}
	}
	return PlanSpans(spans)
}

// PlanSpans enumerates the buckets of each span, stepped by the statistic's
// natural step, and orders all jobs by bucket end and then by span order.
// With spans in dependency order, every bucket comes after the finer buckets
// that end at or before it.
//
// A dependency's span is moved back so that it covers every constituent of
// its dependents' earliest bucket. A day rollup whose window starts before
// First still sees all 24 of its hours.
func PlanSpans(spans []Span) ([]Job, error) {
	spans = slices.Clone(spans)
	index := make(map[string]int, len(spans))
	for i, sp := range spans {
		index[sp.Statistic.Key()] = i
	}

	// Walking backwards widens each dependency before its own buckets are
	// enumerated.
	buckets := make([][]interval.TimeInterval, len(spans))
	for i := len(spans) - 1; i >= 0; i-- {
		sp := spans[i]
		step, err := interval.StepFor(sp.Statistic.Granularity)
		if err != nil {
			return nil, fmt.Errorf("plan %s: %w", sp.Statistic.Key(), err)
		}
		buckets[i], err = interval.BucketRange(sp.First, sp.Last, sp.Statistic.Granularity, step)
		if err != nil {
			return nil, fmt.Errorf("plan %s: %w", sp.Statistic.Key(), err)
		}
		if len(buckets[i]) == 0 {
			continue
		}

		need := coverageStart(buckets[i][0])
		for _, dep := range sp.Statistic.DependsOn {
			if j, ok := index[dep]; ok && j < i && need.Before(spans[j].First) {
				spans[j].First = need
			}
		}
	}

	var jobs []Job
	for i, sp := range spans {
		for _, b := range buckets[i] {
			jobs = append(jobs, Job{Statistic: sp.Statistic, Bucket: b})
		}
	}

	slices.SortStableFunc(jobs, func(a, b Job) int {
		return a.Bucket.End.Compare(b.Bucket.End)
	})
	return jobs, nil
}

// coverageStart is the earliest bucket end a dependency must include for b.
// BucketRange keeps ends at or after its first argument, so one second past
// Start excludes the bucket that closes the previous window. A gauge only
// reads rows at its own end.
func coverageStart(b interval.TimeInterval) time.Time {
	if b.IsGauge() {
		return b.End
	}
	return b.Start.Add(time.Second)
}
