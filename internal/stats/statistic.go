// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package stats

import (
	"context"
	"fmt"

	"github.com/tomtom215/chatstats/internal/interval"
	"github.com/tomtom215/chatstats/internal/models"
)

// ValueFunc computes the raw {entity, value} pairs for one bucket, before
// validity filtering. Implementations must honor the bucket's [Start, End)
// bounds (for gauges: everything before End).
type ValueFunc func(ctx context.Context, bucket interval.TimeInterval) ([]models.EntityValue, error)

// Statistic is a named count computed at one entity level and granularity.
type Statistic struct {
	Name        string
	Level       models.EntityLevel
	Granularity interval.Granularity
	Value       ValueFunc

	// RollsUpFrom is the finer level an entity rollup reads from. Empty for
	// raw and time-rollup statistics.
	RollsUpFrom models.EntityLevel

	// DependsOn lists the keys of statistics whose rows this one reads.
	DependsOn []string
}

// MakeKey builds the registry key name:level:granularity.
func MakeKey(name string, level models.EntityLevel, g interval.Granularity) string {
	return fmt.Sprintf("%s:%s:%s", name, level, g)
}

// Key returns the statistic's registry key.
func (s *Statistic) Key() string {
	return MakeKey(s.Name, s.Level, s.Granularity)
}

func (s *Statistic) String() string {
	return s.Key()
}

// ValidSet is the set of entity ids whose rows may be persisted.
type ValidSet map[string]struct{}

// NewValidSet builds a ValidSet from ids.
func NewValidSet(ids ...string) ValidSet {
	v := make(ValidSet, len(ids))
	for _, id := range ids {
		v[id] = struct{}{}
	}
	return v
}

// Contains reports whether id is valid.
func (v ValidSet) Contains(id string) bool {
	_, ok := v[id]
	return ok
}

// ParentResolver maps finer entity ids to the id of the coarser entity that
// owns them. Ids without a parent are omitted from the result.
type ParentResolver func(ctx context.Context, ids []string) (map[string]string, error)

// InstallationParents maps every id to the installation singleton.
func InstallationParents(_ context.Context, ids []string) (map[string]string, error) {
	parents := make(map[string]string, len(ids))
	for _, id := range ids {
		parents[id] = models.InstallationEntityID
	}
	return parents, nil
}
