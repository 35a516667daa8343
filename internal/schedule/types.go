package schedule

import (
	"time"
)

// WorkingWindow is the effective bookable range for one employee on one date.
// Derived from salon hours and the employee's weekly schedule, never stored.
type WorkingWindow struct {
	Start time.Time
	End   time.Time
	Open  bool
}

// Valid reports whether the window can hold any booking at all.
func (w WorkingWindow) Valid() bool {
	return w.Open && w.End.After(w.Start)
}

// TimeSlot is one bookable candidate shown to the customer. End - Start is the
// display duration; the trailing buffer is guaranteed free but not shown.
type TimeSlot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
	Reason    string    `json:"reason,omitempty"`
}

// BookedInterval is an occupied [Start, End) range after validation/repair.
type BookedInterval struct {
	Start time.Time
	End   time.Time
}

// RawInterval is an appointment interval as it came out of storage. End is
// nullable; absent means the record predates end-time tracking.
type RawInterval struct {
	Start time.Time
	End   *time.Time
}
