package schedule

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func ts(t *testing.T, clock string) time.Time {
	t.Helper()
	date := time.Date(2026, 9, 2, 0, 0, 0, 0, time.Local)
	v, err := AtClock(date, clock)
	if err != nil {
		t.Fatalf("bad clock %q: %v", clock, err)
	}
	return v
}

func tsp(t *testing.T, clock string) *time.Time {
	v := ts(t, clock)
	return &v
}

func TestRepairIntervals(t *testing.T) {
	logger := zap.NewNop()
	date := time.Date(2026, 9, 2, 0, 0, 0, 0, time.Local)
	window := mustWindow(t, date, "09:00", "18:00")
	defaultDur := time.Hour
	slack := 2 * time.Hour

	t.Run("missing end assumes default duration", func(t *testing.T) {
		got := RepairIntervals([]RawInterval{{Start: ts(t, "10:00")}}, window, defaultDur, slack, logger)
		if len(got) != 1 {
			t.Fatalf("expected 1 interval, got %d", len(got))
		}
		if !got[0].End.Equal(ts(t, "11:00")) {
			t.Fatalf("end = %s, want 11:00", got[0].End)
		}
	})

	t.Run("inverted interval snaps to default", func(t *testing.T) {
		got := RepairIntervals([]RawInterval{
			{Start: ts(t, "14:00"), End: tsp(t, "13:00")},
		}, window, defaultDur, slack, logger)
		if !got[0].End.Equal(ts(t, "15:00")) {
			t.Fatalf("end = %s, want 15:00", got[0].End)
		}
	})

	t.Run("gross overrun past closing snaps to default", func(t *testing.T) {
		end := ts(t, "18:00").Add(3 * time.Hour)
		got := RepairIntervals([]RawInterval{
			{Start: ts(t, "17:00"), End: &end},
		}, window, defaultDur, slack, logger)
		if !got[0].End.Equal(ts(t, "18:00")) {
			t.Fatalf("end = %s, want 18:00", got[0].End)
		}
	})

	t.Run("overrun within slack is kept", func(t *testing.T) {
		end := ts(t, "18:00").Add(time.Hour)
		got := RepairIntervals([]RawInterval{
			{Start: ts(t, "17:30"), End: &end},
		}, window, defaultDur, slack, logger)
		if !got[0].End.Equal(end) {
			t.Fatalf("end = %s, want %s", got[0].End, end)
		}
	})

	t.Run("zero window skips the slack check", func(t *testing.T) {
		end := ts(t, "18:00").Add(5 * time.Hour)
		got := RepairIntervals([]RawInterval{
			{Start: ts(t, "17:00"), End: &end},
		}, WorkingWindow{}, defaultDur, slack, logger)
		if !got[0].End.Equal(end) {
			t.Fatalf("end = %s, want untouched %s", got[0].End, end)
		}
	})

	t.Run("output sorted by start", func(t *testing.T) {
		got := RepairIntervals([]RawInterval{
			{Start: ts(t, "15:00"), End: tsp(t, "15:30")},
			{Start: ts(t, "09:00"), End: tsp(t, "09:30")},
			{Start: ts(t, "12:00"), End: tsp(t, "12:30")},
		}, window, defaultDur, slack, logger)
		for i := 1; i < len(got); i++ {
			if got[i].Start.Before(got[i-1].Start) {
				t.Fatalf("intervals not sorted: %v", got)
			}
		}
	})
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     string
		want                           bool
	}{
		{"disjoint before", "09:00", "10:00", "10:30", "11:00", false},
		{"touching half-open", "09:00", "10:00", "10:00", "11:00", false},
		{"partial overlap", "09:00", "10:30", "10:00", "11:00", true},
		{"contained", "10:00", "10:15", "09:00", "11:00", true},
		{"identical", "09:00", "10:00", "09:00", "10:00", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Overlaps(ts(t, tc.aStart), ts(t, tc.aEnd), ts(t, tc.bStart), ts(t, tc.bEnd))
			if got != tc.want {
				t.Fatalf("Overlaps = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFindConflict(t *testing.T) {
	existing := []BookedInterval{
		{Start: ts(t, "09:00"), End: ts(t, "09:45")},
		{Start: ts(t, "11:00"), End: ts(t, "12:00")},
	}

	if _, found := FindConflict(BookedInterval{Start: ts(t, "09:45"), End: ts(t, "10:30")}, existing); found {
		t.Error("back-to-back booking must not conflict")
	}

	conflict, found := FindConflict(BookedInterval{Start: ts(t, "11:30"), End: ts(t, "12:15")}, existing)
	if !found {
		t.Fatal("expected conflict with 11:00-12:00")
	}
	if !conflict.Start.Equal(ts(t, "11:00")) {
		t.Fatalf("conflicting interval start = %s, want 11:00", conflict.Start)
	}
}
