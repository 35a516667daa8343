package schedule

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func mustWindow(t *testing.T, date time.Time, start, end string) WorkingWindow {
	t.Helper()
	s, err := AtClock(date, start)
	if err != nil {
		t.Fatalf("bad start clock %q: %v", start, err)
	}
	e, err := AtClock(date, end)
	if err != nil {
		t.Fatalf("bad end clock %q: %v", end, err)
	}
	return WorkingWindow{Start: s, End: e, Open: true}
}

func TestParseWeeklySchedule_Malformed(t *testing.T) {
	logger := zap.NewNop()

	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `{{{`},
		{"wrong shape", `[1,2,3]`},
		{"empty", ``},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ws := ParseWeeklySchedule([]byte(tc.raw), logger)
			// Must degrade to "never working", not panic or error.
			date := time.Date(2026, 9, 2, 0, 0, 0, 0, time.Local) // a Wednesday
			if w := ws.WindowFor(date); w.Open {
				t.Fatalf("expected closed window for malformed schedule, got %+v", w)
			}
		})
	}
}

func TestWindowFor(t *testing.T) {
	wednesday := time.Date(2026, 9, 2, 0, 0, 0, 0, time.Local)

	cases := []struct {
		name     string
		schedule WeeklySchedule
		wantOpen bool
	}{
		{
			name:     "weekday missing",
			schedule: WeeklySchedule{"monday": {Available: true, Start: "09:00", End: "17:00"}},
			wantOpen: false,
		},
		{
			name:     "available false",
			schedule: WeeklySchedule{"wednesday": {Available: false, Start: "09:00", End: "17:00"}},
			wantOpen: false,
		},
		{
			name:     "missing times",
			schedule: WeeklySchedule{"wednesday": {Available: true}},
			wantOpen: false,
		},
		{
			name:     "unparsable time",
			schedule: WeeklySchedule{"wednesday": {Available: true, Start: "9am", End: "17:00"}},
			wantOpen: false,
		},
		{
			name:     "inverted range",
			schedule: WeeklySchedule{"wednesday": {Available: true, Start: "17:00", End: "09:00"}},
			wantOpen: false,
		},
		{
			name:     "valid day",
			schedule: WeeklySchedule{"wednesday": {Available: true, Start: "09:30", End: "17:00"}},
			wantOpen: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := tc.schedule.WindowFor(wednesday)
			if w.Open != tc.wantOpen {
				t.Fatalf("open = %v, want %v", w.Open, tc.wantOpen)
			}
			if tc.wantOpen {
				wantStart, _ := AtClock(wednesday, "09:30")
				if !w.Start.Equal(wantStart) {
					t.Errorf("start = %s, want %s", w.Start, wantStart)
				}
			}
		})
	}
}

func TestCombine(t *testing.T) {
	date := time.Date(2026, 9, 2, 0, 0, 0, 0, time.Local)

	t.Run("intersection", func(t *testing.T) {
		salon := mustWindow(t, date, "09:00", "18:00")
		emp := mustWindow(t, date, "10:00", "19:00")

		got := Combine(salon, emp)
		if !got.Open {
			t.Fatal("expected open window")
		}
		wantStart, _ := AtClock(date, "10:00")
		wantEnd, _ := AtClock(date, "18:00")
		if !got.Start.Equal(wantStart) || !got.End.Equal(wantEnd) {
			t.Fatalf("got [%s, %s], want [%s, %s]", got.Start, got.End, wantStart, wantEnd)
		}
	})

	t.Run("either closed", func(t *testing.T) {
		open := mustWindow(t, date, "09:00", "18:00")
		if got := Combine(WorkingWindow{}, open); got.Open {
			t.Error("closed salon should close the combined window")
		}
		if got := Combine(open, WorkingWindow{}); got.Open {
			t.Error("closed employee should close the combined window")
		}
	})

	t.Run("empty intersection", func(t *testing.T) {
		morning := mustWindow(t, date, "08:00", "12:00")
		evening := mustWindow(t, date, "14:00", "20:00")
		if got := Combine(morning, evening); got.Open {
			t.Fatalf("disjoint windows must combine to closed, got %+v", got)
		}
	})

	t.Run("touching bounds", func(t *testing.T) {
		a := mustWindow(t, date, "08:00", "12:00")
		b := mustWindow(t, date, "12:00", "20:00")
		if got := Combine(a, b); got.Open {
			t.Fatalf("zero-length intersection must be closed, got %+v", got)
		}
	})
}
