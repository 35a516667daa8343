package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/salonos/scheduling/internal/appointment"
	"github.com/salonos/scheduling/internal/config"
	"github.com/salonos/scheduling/internal/directory"
	"github.com/salonos/scheduling/internal/schedule"
)

var (
	ErrPastDate   = errors.New("date is in the past")
	ErrNoServices = errors.New("at least one service is required")
)

// BookingReader is the slice of the appointment store the engine needs:
// non-cancelled bookings for one employee and day, sorted by start.
type BookingReader interface {
	ListForEmployeeDay(ctx context.Context, employeeID uuid.UUID, dayStart, dayEnd time.Time) ([]appointment.Appointment, error)
}

// Service answers the three availability queries. It is read-only and
// request-scoped; all state lives in the collaborators.
type Service struct {
	employees directory.EmployeeDirectory
	catalog   directory.ServiceCatalog
	calendar  directory.SalonCalendar
	bookings  BookingReader
	cfg       config.Config
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(
	employees directory.EmployeeDirectory,
	catalog directory.ServiceCatalog,
	calendar directory.SalonCalendar,
	bookings BookingReader,
	cfg config.Config,
	logger *zap.Logger,
) *Service {
	return &Service{
		employees: employees,
		catalog:   catalog,
		calendar:  calendar,
		bookings:  bookings,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// AvailableDates is the coarse date-picker endpoint: the next daysAhead
// calendar days minus the fixed closed weekday. It deliberately skips
// per-barber schedules; the slots endpoint is the precise one.
func (s *Service) AvailableDates(ctx context.Context, serviceIDs []uuid.UUID, salonID uuid.UUID, daysAhead int) (*AvailableDatesResult, error) {
	if len(serviceIDs) == 0 {
		return nil, ErrNoServices
	}
	if daysAhead <= 0 {
		daysAhead = s.cfg.DaysAhead
	}

	if _, err := s.calendar.GetSalon(ctx, salonID); err != nil {
		return nil, fmt.Errorf("load salon: %w", err)
	}

	services, err := s.catalog.ListServices(ctx, serviceIDs)
	if err != nil {
		return nil, fmt.Errorf("load services: %w", err)
	}

	result := &AvailableDatesResult{
		TotalDurationMinutes: directory.TotalDuration(services),
	}

	today := midnight(s.now())
	for i := 0; i < daysAhead; i++ {
		date := today.AddDate(0, 0, i)
		if date.Weekday() == s.cfg.ClosedWeekday {
			continue
		}
		result.Dates = append(result.Dates, date.Format("2006-01-02"))

		if result.SalonOpen == "" {
			window, err := s.calendar.HoursOn(ctx, salonID, date)
			if err != nil {
				return nil, fmt.Errorf("load salon hours: %w", err)
			}
			if window.Valid() {
				result.SalonOpen = window.Start.Format("15:04")
				result.SalonClose = window.End.Format("15:04")
			}
		}
	}

	return result, nil
}

// AvailableBarbers lists salon staff who can take the requested services on
// the date. Filtering runs cheapest-first: role, then gender policy, then
// schedule, then the booked-minutes feasibility pre-check. Full slot
// generation is left to AvailableTimeSlots.
func (s *Service) AvailableBarbers(ctx context.Context, serviceIDs []uuid.UUID, date time.Time, salonID uuid.UUID, customerGender string) (*AvailableBarbersResult, error) {
	if len(serviceIDs) == 0 {
		return nil, ErrNoServices
	}
	if midnight(date).Before(midnight(s.now())) {
		return nil, ErrPastDate
	}

	services, err := s.catalog.ListServices(ctx, serviceIDs)
	if err != nil {
		return nil, fmt.Errorf("load services: %w", err)
	}
	total := time.Duration(directory.TotalDuration(services))*time.Minute + s.cfg.BookingBuffer
	gender := schedule.ParseGender(customerGender)

	salonWindow, err := s.calendar.HoursOn(ctx, salonID, date)
	if err != nil {
		return nil, fmt.Errorf("load salon hours: %w", err)
	}

	staff, err := s.employees.ListActiveBySalon(ctx, salonID)
	if err != nil {
		return nil, fmt.Errorf("load employees: %w", err)
	}

	result := &AvailableBarbersResult{
		Barbers:        []BarberSummary{},
		TotalEmployees: len(staff),
	}

	var providers []directory.Employee
	for _, emp := range staff {
		if emp.Role.IsServiceProvider() {
			providers = append(providers, emp)
		}
	}
	result.TotalServiceProviders = len(providers)

	if !salonWindow.Valid() {
		result.Message = ReasonSalonClosed
		return result, nil
	}

	var genderExcluded int
	for _, emp := range providers {
		if !emp.ServesGender.Serves(gender) {
			genderExcluded++
			continue
		}

		window := schedule.Combine(salonWindow, emp.WeeklySchedule.WindowFor(date))
		if !window.Valid() {
			continue
		}

		busy, err := s.scanDay(ctx, emp.ID, date, window)
		if err != nil {
			return nil, err
		}
		if !schedule.HasAnyAvailability(window, busy, total) {
			continue
		}

		result.Barbers = append(result.Barbers, BarberSummary{ID: emp.ID, Name: emp.Name})
	}

	if len(result.Barbers) == 0 {
		switch {
		case result.TotalServiceProviders == 0:
			result.Message = "No service providers at this salon"
		case genderExcluded == result.TotalServiceProviders:
			result.Message = ReasonGenderPolicy
		default:
			result.Message = "No barbers have availability on this date"
		}
	}

	return result, nil
}

// AvailableTimeSlots is the precise per-barber computation. Role and gender
// are re-checked even though AvailableBarbers already filtered; the barber id
// comes straight from the client. Ineligibility and closed days come back as
// empty results with a reason, never as errors.
func (s *Service) AvailableTimeSlots(ctx context.Context, barberID uuid.UUID, serviceIDs []uuid.UUID, date time.Time, salonID uuid.UUID, customerGender string) (*AvailableTimeSlotsResult, error) {
	if len(serviceIDs) == 0 {
		return nil, ErrNoServices
	}
	if midnight(date).Before(midnight(s.now())) {
		return nil, ErrPastDate
	}

	emp, err := s.employees.GetEmployee(ctx, barberID)
	if err != nil {
		return nil, fmt.Errorf("load employee: %w", err)
	}

	services, err := s.catalog.ListServices(ctx, serviceIDs)
	if err != nil {
		return nil, fmt.Errorf("load services: %w", err)
	}

	display := time.Duration(directory.TotalDuration(services)) * time.Minute

	result := &AvailableTimeSlotsResult{
		BarberID:             emp.ID,
		BarberName:           emp.Name,
		TotalDurationMinutes: int(display / time.Minute),
		BufferMinutes:        int(s.cfg.BookingBuffer / time.Minute),
		Slots:                []schedule.TimeSlot{},
	}

	if !emp.Active || !emp.Role.IsServiceProvider() {
		result.Message = ReasonNotBookable
		return result, nil
	}
	if !emp.ServesGender.Serves(schedule.ParseGender(customerGender)) {
		result.Message = ReasonGenderPolicy
		return result, nil
	}

	salonWindow, err := s.calendar.HoursOn(ctx, salonID, date)
	if err != nil {
		return nil, fmt.Errorf("load salon hours: %w", err)
	}
	if !salonWindow.Valid() {
		result.Message = ReasonSalonClosed
		return result, nil
	}

	window := schedule.Combine(salonWindow, emp.WeeklySchedule.WindowFor(date))
	if !window.Valid() {
		result.Message = ReasonBarberNotAvailable
		return result, nil
	}

	busy, err := s.scanDay(ctx, emp.ID, date, window)
	if err != nil {
		return nil, err
	}

	slots := schedule.GenerateSlots(window, busy, display, s.cfg.BookingBuffer, s.cfg.SlotGranularity, date, s.now())
	if len(slots) == 0 {
		result.Message = ReasonFullyBooked
		return result, nil
	}

	result.Slots = slots
	return result, nil
}

// scanDay loads and repairs the employee's occupied intervals for the date.
func (s *Service) scanDay(ctx context.Context, employeeID uuid.UUID, date time.Time, window schedule.WorkingWindow) ([]schedule.BookedInterval, error) {
	dayStart := midnight(date)
	dayEnd := dayStart.AddDate(0, 0, 1)

	appts, err := s.bookings.ListForEmployeeDay(ctx, employeeID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("scan appointments: %w", err)
	}

	raw := make([]schedule.RawInterval, 0, len(appts))
	for _, a := range appts {
		raw = append(raw, schedule.RawInterval{Start: a.StartTime, End: a.EstimatedEnd})
	}

	return schedule.RepairIntervals(raw, window, s.cfg.DefaultDuration, s.cfg.WindowSlack,
		s.logger.With(zap.String("employee_id", employeeID.String()))), nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
