// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package interval

import (
	"errors"
	"testing"
	"time"
)

var sampleTimes = []time.Time{
	time.Date(2024, 1, 2, 3, 14, 15, 926, time.UTC),
	time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	time.Date(2024, 2, 29, 23, 59, 59, 999999999, time.UTC),
	time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC),
	time.Date(2024, 6, 1, 12, 30, 0, 0, time.FixedZone("UTC+5", 5*3600)),
}

func TestFloorToBoundary(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 1, 2, 3, 14, 15, 926, time.UTC)
	tests := []struct {
		g    Granularity
		want time.Time
	}{
		{Hour, time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC)},
		{Day, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{Gauge, time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(string(tt.g), func(t *testing.T) {
			got, err := FloorToBoundary(ts, tt.g)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("FloorToBoundary(%s) = %v, want %v", tt.g, got, tt.want)
			}
		})
	}
}

func TestFloorToBoundary_NonUTCInput(t *testing.T) {
	t.Parallel()

	// 12:30 at UTC+5 is 07:30 UTC
	ts := time.Date(2024, 6, 1, 12, 30, 0, 0, time.FixedZone("UTC+5", 5*3600))
	got, err := FloorToBoundary(ts, Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 6, 1, 7, 0, 0, 0, time.UTC)
	if !got.Equal(want) || got.Location() != time.UTC {
		t.Errorf("got %v, want %v in UTC", got, want)
	}
}

func TestFloorToBoundary_IsProjection(t *testing.T) {
	t.Parallel()

	for _, g := range []Granularity{Hour, Day, Gauge} {
		for _, ts := range sampleTimes {
			once, err := FloorToBoundary(ts, g)
			if err != nil {
				t.Fatalf("floor %s: %v", g, err)
			}
			twice, err := FloorToBoundary(once, g)
			if err != nil {
				t.Fatalf("floor %s: %v", g, err)
			}
			if !once.Equal(twice) {
				t.Errorf("floor(floor(%v, %s)) = %v, want %v", ts, g, twice, once)
			}
		}
	}
}

func TestFloorToBoundary_Unsupported(t *testing.T) {
	t.Parallel()

	_, err := FloorToBoundary(time.Now(), Granularity("week"))
	if !errors.Is(err, ErrUnsupportedGranularity) {
		t.Errorf("expected ErrUnsupportedGranularity, got %v", err)
	}
}

func TestSubtractInterval(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	hour, err := SubtractInterval(ts, Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC); !hour.Equal(want) {
		t.Errorf("hour: got %v, want %v", hour, want)
	}

	day, err := SubtractInterval(ts, Day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC); !day.Equal(want) {
		t.Errorf("day: got %v, want %v", day, want)
	}
}

func TestSubtractInterval_GaugeAlwaysFails(t *testing.T) {
	t.Parallel()

	for _, ts := range sampleTimes {
		if _, err := SubtractInterval(ts, Gauge); !errors.Is(err, ErrUnsupportedGranularity) {
			t.Errorf("SubtractInterval(%v, gauge): expected ErrUnsupportedGranularity, got %v", ts, err)
		}
	}
	if _, err := SubtractInterval(time.Now(), Granularity("")); !errors.Is(err, ErrUnsupportedGranularity) {
		t.Errorf("empty granularity: expected ErrUnsupportedGranularity, got %v", err)
	}
}

func TestNew_BucketWidth(t *testing.T) {
	t.Parallel()

	for _, g := range []Granularity{Hour, Day} {
		for _, ts := range sampleTimes {
			ti, err := New(ts, g)
			if err != nil {
				t.Fatalf("New(%v, %s): %v", ts, g, err)
			}
			start, err := SubtractInterval(ti.End, g)
			if err != nil {
				t.Fatalf("SubtractInterval: %v", err)
			}
			if !start.Equal(ti.Start) {
				t.Errorf("New(%v, %s): start %v, want %v", ts, g, ti.Start, start)
			}
		}
	}
}

func TestNew_Gauge(t *testing.T) {
	t.Parallel()

	ti, err := New(time.Date(2024, 1, 2, 5, 45, 0, 0, time.UTC), Gauge)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ti.Start.Equal(BeginningOfTime) {
		t.Errorf("gauge start = %v, want %v", ti.Start, BeginningOfTime)
	}
	if want := time.Date(2024, 1, 2, 5, 0, 0, 0, time.UTC); !ti.End.Equal(want) {
		t.Errorf("gauge end = %v, want %v", ti.End, want)
	}
	if !ti.IsGauge() {
		t.Error("expected IsGauge")
	}
}

func TestTimeInterval_Contains(t *testing.T) {
	t.Parallel()

	ti, err := New(time.Date(2024, 1, 2, 4, 0, 0, 0, time.UTC), Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ti.Contains(ti.Start) {
		t.Error("start should be included")
	}
	if ti.Contains(ti.End) {
		t.Error("end should be excluded")
	}
	if !ti.Contains(ti.End.Add(-time.Nanosecond)) {
		t.Error("instant before end should be included")
	}
}

func TestSubintervals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		g    Granularity
		want []Granularity
	}{
		{Day, []Granularity{Day, Hour}},
		{Hour, []Granularity{Hour}},
		{Gauge, []Granularity{Gauge}},
	}
	for _, tt := range tests {
		got, err := Subintervals(tt.g)
		if err != nil {
			t.Fatalf("Subintervals(%s): %v", tt.g, err)
		}
		if len(got) != len(tt.want) {
			t.Fatalf("Subintervals(%s) = %v, want %v", tt.g, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Subintervals(%s)[%d] = %s, want %s", tt.g, i, got[i], tt.want[i])
			}
		}
	}

	if _, err := Subintervals(Granularity("minute")); !errors.Is(err, ErrUnsupportedGranularity) {
		t.Errorf("expected ErrUnsupportedGranularity, got %v", err)
	}
}

func TestStepFor(t *testing.T) {
	t.Parallel()

	for g, want := range map[Granularity]Granularity{Hour: Hour, Day: Day, Gauge: Hour} {
		got, err := StepFor(g)
		if err != nil {
			t.Fatalf("StepFor(%s): %v", g, err)
		}
		if got != want {
			t.Errorf("StepFor(%s) = %s, want %s", g, got, want)
		}
	}
	if _, err := StepFor(Granularity("week")); !errors.Is(err, ErrUnsupportedGranularity) {
		t.Errorf("expected ErrUnsupportedGranularity, got %v", err)
	}
}

func TestParseGranularity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Granularity
		wantErr bool
	}{
		{"hour", Hour, false},
		{"DAY", Day, false},
		{" gauge ", Gauge, false},
		{"week", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseGranularity(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseGranularity(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseGranularity(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
