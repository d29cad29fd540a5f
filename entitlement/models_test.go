package entitlement

import (
	"testing"
	"time"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name      string
		used      int64
		limit     int64
		allowed   bool
		remaining int64
	}{
		{"empty", 0, 3, true, 3},
		{"one left", 2, 3, true, 1},
		{"at limit", 3, 3, false, 0},
		{"over limit", 5, 3, false, 0},
		{"zero limit", 0, 0, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide("u1", ResourceWebsites, tt.used, tt.limit)
			if d.Allowed != tt.allowed || d.Remaining != tt.remaining {
				t.Errorf("Decide(%d, %d) = allowed %v remaining %d", tt.used, tt.limit, d.Allowed, d.Remaining)
			}
			if !d.Allowed && d.Reason == "" {
				t.Error("denied decision has no reason")
			}
		})
	}
}

func TestMonthWindow(t *testing.T) {
	tests := []struct {
		in         time.Time
		start, end time.Time
	}{
		{
			in:    time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
			start: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			in:    time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC),
			start: time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			// 01:00 on Feb 1 in UTC+2 is still January in UTC.
			in:    time.Date(2026, 2, 1, 1, 0, 0, 0, time.FixedZone("EET", 2*3600)),
			start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		got := MonthWindow(tt.in)
		if !got.Start.Equal(tt.start) || !got.End.Equal(tt.end) {
			t.Errorf("MonthWindow(%v) = [%v, %v)", tt.in, got.Start, got.End)
		}
	}
}
