// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package models

import (
	"testing"
	"time"

	"github.com/tomtom215/chatstats/internal/interval"
)

func TestParseEntityLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    EntityLevel
		wantErr bool
	}{
		{"user", LevelUser, false},
		{"Realm", LevelRealm, false},
		{"tenant", LevelRealm, false},
		{"installation", LevelInstallation, false},
		{"stream", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseEntityLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEntityLevelTable(t *testing.T) {
	for _, l := range Levels {
		if !l.Valid() {
			t.Errorf("level %q should be valid", l)
		}
	}
	if LevelRealm.Table() != "realm_counts" {
		t.Errorf("realm table = %q", LevelRealm.Table())
	}
	if EntityLevel("stream").Valid() {
		t.Error("unknown level should not be valid")
	}
}

func TestBucketKeyString(t *testing.T) {
	k := BucketKey{
		Level:       LevelRealm,
		Statistic:   "active_users",
		EndTime:     time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Granularity: interval.Gauge,
	}
	want := "realm/active_users/gauge@2024-01-02T00:00:00Z"
	if got := k.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
