package schedule

import (
	"time"
)

// GenerateSlots sweeps the working window left to right and emits every
// candidate start where displayDuration+buffer minutes of free time fit before
// the next occupied interval. Emitted slots show only the display duration;
// the buffer is invisible padding after each booking. busy must be sorted by
// start (see RepairIntervals).
//
// For same-day requests the sweep starts no earlier than now rounded up to the
// next granularity boundary.
func GenerateSlots(window WorkingWindow, busy []BookedInterval, displayDuration, buffer, granularity time.Duration, date, now time.Time) []TimeSlot {
	total := displayDuration + buffer
	if !window.Valid() || displayDuration <= 0 || total <= 0 || granularity <= 0 {
		return nil
	}

	cursor := window.Start
	if sameDay(date, now) {
		if anchor := roundUp(now, granularity); anchor.After(cursor) {
			cursor = anchor
		}
	}

	var slots []TimeSlot

	for _, iv := range busy {
		if iv.Start.Sub(cursor) >= total {
			slots = appendSlots(slots, cursor, iv.Start, displayDuration, total, granularity)
		}
		if iv.End.After(cursor) {
			cursor = iv.End
		}
	}

	return appendSlots(slots, cursor, window.End, displayDuration, total, granularity)
}

// appendSlots emits slots in [from, to): every granularity step whose full
// total (display + buffer) still fits before to.
func appendSlots(slots []TimeSlot, from, to time.Time, display, total, granularity time.Duration) []TimeSlot {
	for cur := from; !cur.Add(total).After(to); cur = cur.Add(granularity) {
		slots = append(slots, TimeSlot{
			Start:     cur,
			End:       cur.Add(display),
			Available: true,
		})
	}
	return slots
}

// HasAnyAvailability is the cheap feasibility pre-check used before full slot
// generation: the window's free minutes, after subtracting booked time clipped
// to the window, must cover the required total. It can overestimate (free time
// may be fragmented) but never underestimates, so it only prunes.
func HasAnyAvailability(window WorkingWindow, busy []BookedInterval, total time.Duration) bool {
	if !window.Valid() || total <= 0 {
		return false
	}

	free := window.End.Sub(window.Start)
	for _, iv := range busy {
		start, end := iv.Start, iv.End
		if start.Before(window.Start) {
			start = window.Start
		}
		if end.After(window.End) {
			end = window.End
		}
		if end.After(start) {
			free -= end.Sub(start)
		}
	}

	return free >= total
}

// roundUp advances t to the next granularity boundary within the hour,
// rolling over naturally when the rounded minute reaches 60.
func roundUp(t time.Time, granularity time.Duration) time.Time {
	step := int(granularity / time.Minute)
	if step <= 0 {
		return t
	}

	minutes := t.Hour()*60 + t.Minute()
	if minutes%step != 0 || t.Second() > 0 || t.Nanosecond() > 0 {
		minutes = (minutes/step + 1) * step
	}

	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return midnight.Add(time.Duration(minutes) * time.Minute)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
