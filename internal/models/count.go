// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/chatstats/internal/interval"
)

// InstallationEntityID is the entity id of the installation-wide singleton.
const InstallationEntityID = "installation"

// EntityLevel is the aggregation tier of an entity id
type EntityLevel string

const (
	LevelUser         EntityLevel = "user"
	LevelRealm        EntityLevel = "realm"
	LevelInstallation EntityLevel = "installation"
)

// Levels lists every entity level, finest first.
var Levels = []EntityLevel{LevelUser, LevelRealm, LevelInstallation}

// Valid reports whether l is a known entity level
func (l EntityLevel) Valid() bool {
	switch l {
	case LevelUser, LevelRealm, LevelInstallation:
		return true
	default:
		return false
	}
}

// Table returns the count table holding rows for this level.
func (l EntityLevel) Table() string {
	return string(l) + "_counts"
}

// ParseEntityLevel converts a CLI or config string to an EntityLevel.
// "tenant" is accepted as an alias for realm.
func ParseEntityLevel(s string) (EntityLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user":
		return LevelUser, nil
	case "realm", "tenant":
		return LevelRealm, nil
	case "installation":
		return LevelInstallation, nil
	default:
		return "", fmt.Errorf("unknown entity level %q", s)
	}
}

// CountRow is one persisted value of a statistic for one entity and bucket.
// (EntityID, Statistic, EndTime, Granularity) is unique per level.
type CountRow struct {
	EntityID    string               `json:"entity_id"`
	Statistic   string               `json:"statistic"`
	EndTime     time.Time            `json:"end_time"`
	Granularity interval.Granularity `json:"granularity"`
	Value       int64                `json:"value"`
}

// EntityValue is a raw {entity, value} pair produced by a value function
type EntityValue struct {
	EntityID string `json:"entity_id"`
	Value    int64  `json:"value"`
}

// BucketKey identifies the rows of one statistic bucket at one level.
type BucketKey struct {
	Level       EntityLevel
	Statistic   string
	EndTime     time.Time
	Granularity interval.Granularity
}

// String implements fmt.Stringer.
func (k BucketKey) String() string {
	return fmt.Sprintf("%s/%s/%s@%s", k.Level, k.Statistic, k.Granularity, k.EndTime.UTC().Format(time.RFC3339))
}

// CountPoint is one value of a time series read back for display.
type CountPoint struct {
	EndTime time.Time `json:"end_time"`
	Value   int64     `json:"value"`
}
