package directory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/salonos/scheduling/internal/schedule"
)

// DayHours is one weekday row of a salon's operating table.
type DayHours struct {
	Open      bool
	OpenTime  string // "15:04"
	CloseTime string
}

// WeeklyHours maps weekdays to operating windows.
type WeeklyHours map[time.Weekday]DayHours

// DefaultWeeklyHours is the chain-wide operating table used until a salon gets
// its own row in salon_hours.
func DefaultWeeklyHours() WeeklyHours {
	return WeeklyHours{
		time.Sunday:    {Open: true, OpenTime: "10:00", CloseTime: "16:00"},
		time.Monday:    {Open: true, OpenTime: "09:00", CloseTime: "18:00"},
		time.Tuesday:   {Open: true, OpenTime: "09:00", CloseTime: "18:00"},
		time.Wednesday: {Open: true, OpenTime: "09:00", CloseTime: "18:00"},
		time.Thursday:  {Open: true, OpenTime: "09:00", CloseTime: "18:00"},
		time.Friday:    {Open: true, OpenTime: "09:00", CloseTime: "18:00"},
		time.Saturday:  {Open: true, OpenTime: "08:00", CloseTime: "19:00"},
	}
}

// WindowOn anchors the weekday's hours on the given date. Closed days and
// malformed table entries both resolve to a closed window.
func (wh WeeklyHours) WindowOn(date time.Time) schedule.WorkingWindow {
	day, ok := wh[date.Weekday()]
	if !ok || !day.Open {
		return schedule.WorkingWindow{}
	}

	start, err := schedule.AtClock(date, day.OpenTime)
	if err != nil {
		return schedule.WorkingWindow{}
	}
	end, err := schedule.AtClock(date, day.CloseTime)
	if err != nil {
		return schedule.WorkingWindow{}
	}
	if !end.After(start) {
		return schedule.WorkingWindow{}
	}

	return schedule.WorkingWindow{Start: start, End: end, Open: true}
}

// StaticCalendar serves the same weekly table for every salon, with salon
// existence checks delegated to an inner store. It is the default
// SalonCalendar wired in the api-server; PgCalendar overrides per-salon rows.
type StaticCalendar struct {
	Salons SalonStore
	Week   WeeklyHours
}

// SalonStore is the existence-check part of the calendar.
type SalonStore interface {
	GetSalon(ctx context.Context, id uuid.UUID) (*Salon, error)
}

func (c *StaticCalendar) GetSalon(ctx context.Context, id uuid.UUID) (*Salon, error) {
	return c.Salons.GetSalon(ctx, id)
}

func (c *StaticCalendar) HoursOn(ctx context.Context, salonID uuid.UUID, date time.Time) (schedule.WorkingWindow, error) {
	if _, err := c.Salons.GetSalon(ctx, salonID); err != nil {
		return schedule.WorkingWindow{}, err
	}
	return c.Week.WindowOn(date), nil
}
