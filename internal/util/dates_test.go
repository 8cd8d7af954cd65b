package util

import (
	"testing"
	"time"
)

func TestTruncateToDate_DropsTimeOfDay(t *testing.T) {
	in := time.Date(2024, 3, 15, 23, 59, 58, 123, time.FixedZone("X", 3600))
	got := TruncateToDate(in)
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("TruncateToDate(%v) = %v, want %v", in, got, want)
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name string
		a    time.Time
		b    time.Time
		want int
	}{
		{"same day", Date(2024, 1, 1), Date(2024, 1, 1), 0},
		{"one day", Date(2024, 1, 1), Date(2024, 1, 2), 1},
		{"across leap february", Date(2024, 1, 1), Date(2024, 4, 10), 100},
		{"month span", Date(2024, 2, 1), Date(2024, 3, 2), 30},
		{"negative when reversed", Date(2024, 3, 2), Date(2024, 2, 1), -30},
		{"ignores time of day", time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC), time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC), 1},
	}

	for _, tt := range tests {
		if got := DaysBetween(tt.a, tt.b); got != tt.want {
			t.Errorf("%s: DaysBetween = %d, want %d", tt.name, got, tt.want)
		}
	}
}
