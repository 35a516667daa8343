package schedule

import (
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DaySchedule is one weekday entry of an employee's weekly schedule as stored
// in the employees.weekly_schedule jsonb column.
type DaySchedule struct {
	Available bool   `json:"available"`
	Start     string `json:"start,omitempty"` // "15:04"
	End       string `json:"end,omitempty"`
}

// WeeklySchedule maps lowercase weekday names ("monday") to day entries.
// A nil map means the employee never works; lookups on it are safe.
type WeeklySchedule map[string]DaySchedule

// ParseWeeklySchedule turns the stored jsonb into a typed schedule. The data
// is written by another backend and occasionally malformed; parse failures
// degrade to "never working" and are logged, never returned as errors.
func ParseWeeklySchedule(raw []byte, logger *zap.Logger) WeeklySchedule {
	if len(raw) == 0 {
		return nil
	}

	var ws WeeklySchedule
	if err := json.Unmarshal(raw, &ws); err != nil {
		logger.Warn("malformed weekly schedule, treating as not working", zap.Error(err))
		return nil
	}
	return ws
}

// WindowFor resolves the employee's working window on the given date.
// Missing weekday, available=false, missing or unparsable times, or an
// inverted range all resolve to a closed window.
func (ws WeeklySchedule) WindowFor(date time.Time) WorkingWindow {
	day, ok := ws[strings.ToLower(date.Weekday().String())]
	if !ok || !day.Available {
		return WorkingWindow{}
	}

	start, err := AtClock(date, day.Start)
	if err != nil {
		return WorkingWindow{}
	}
	end, err := AtClock(date, day.End)
	if err != nil {
		return WorkingWindow{}
	}
	if !end.After(start) {
		return WorkingWindow{}
	}

	return WorkingWindow{Start: start, End: end, Open: true}
}

// AtClock anchors an "HH:MM" clock string on the given date.
func AtClock(date time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(
		date.Year(), date.Month(), date.Day(),
		t.Hour(), t.Minute(), 0, 0,
		date.Location(),
	), nil
}

// Combine intersects the salon window with the employee window. Closed if
// either side is closed or the intersection is empty or inverted.
func Combine(salon, employee WorkingWindow) WorkingWindow {
	if !salon.Open || !employee.Open {
		return WorkingWindow{}
	}

	start := salon.Start
	if employee.Start.After(start) {
		start = employee.Start
	}
	end := salon.End
	if employee.End.Before(end) {
		end = employee.End
	}

	if !end.After(start) {
		return WorkingWindow{}
	}
	return WorkingWindow{Start: start, End: end, Open: true}
}
