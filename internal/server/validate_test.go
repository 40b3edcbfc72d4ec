package server

import (
	"testing"
	"time"
)

func TestParseDueDate(t *testing.T) {
	want := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{"2025-12-31", "2025-12-31T00:00:00Z", "2025-12-31 00:00:00", "2025-12-31T02:00:00+02:00"} {
		got, err := parseDueDate(raw)
		if err != nil {
			t.Fatalf("parseDueDate(%q): %v", raw, err)
		}
		if !got.Equal(want) {
			t.Fatalf("parseDueDate(%q) = %v", raw, got)
		}
	}
	for _, raw := range []string{"", "tomorrow", "31/12/2025", "2025-13-01"} {
		if _, err := parseDueDate(raw); err == nil {
			t.Fatalf("parseDueDate(%q) should fail", raw)
		}
	}
}

func TestStartOfDay(t *testing.T) {
	in := time.Date(2025, 3, 1, 23, 30, 0, 0, time.FixedZone("X", -2*3600))
	if got := startOfDay(in); !got.Equal(time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("startOfDay = %v", got)
	}
}
