package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/salonos/scheduling/internal/appointment"
	"github.com/salonos/scheduling/internal/config"
	"github.com/salonos/scheduling/internal/directory"
	"github.com/salonos/scheduling/internal/schedule"
)

// Mock collaborators for testing

type mockEmployees struct {
	getFunc  func(ctx context.Context, id uuid.UUID) (*directory.Employee, error)
	listFunc func(ctx context.Context, salonID uuid.UUID) ([]directory.Employee, error)
}

func (m *mockEmployees) GetEmployee(ctx context.Context, id uuid.UUID) (*directory.Employee, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, directory.ErrEmployeeNotFound
}

func (m *mockEmployees) ListActiveBySalon(ctx context.Context, salonID uuid.UUID) ([]directory.Employee, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, salonID)
	}
	return nil, nil
}

type mockCatalog struct {
	services []directory.Service
	err      error
}

func (m *mockCatalog) ListServices(ctx context.Context, ids []uuid.UUID) ([]directory.Service, error) {
	return m.services, m.err
}

type mockCalendar struct {
	salonErr error
	week     directory.WeeklyHours
}

func (m *mockCalendar) GetSalon(ctx context.Context, id uuid.UUID) (*directory.Salon, error) {
	if m.salonErr != nil {
		return nil, m.salonErr
	}
	return &directory.Salon{ID: id, Name: "Test Salon"}, nil
}

func (m *mockCalendar) HoursOn(ctx context.Context, salonID uuid.UUID, date time.Time) (schedule.WorkingWindow, error) {
	if m.salonErr != nil {
		return schedule.WorkingWindow{}, m.salonErr
	}
	return m.week.WindowOn(date), nil
}

type mockBookings struct {
	listFunc func(ctx context.Context, employeeID uuid.UUID, dayStart, dayEnd time.Time) ([]appointment.Appointment, error)
}

func (m *mockBookings) ListForEmployeeDay(ctx context.Context, employeeID uuid.UUID, dayStart, dayEnd time.Time) ([]appointment.Appointment, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, employeeID, dayStart, dayEnd)
	}
	return nil, nil
}

var (
	testNow  = time.Date(2026, 9, 1, 12, 0, 0, 0, time.Local) // Tuesday
	testDate = time.Date(2026, 9, 2, 0, 0, 0, 0, time.Local)  // Wednesday
)

func testConfig() config.Config {
	return config.Config{
		SlotGranularity: 15 * time.Minute,
		BookingBuffer:   15 * time.Minute,
		DefaultDuration: time.Hour,
		WindowSlack:     2 * time.Hour,
		DaysAhead:       30,
		ClosedWeekday:   time.Sunday,
	}
}

func newTestService(employees *mockEmployees, catalog *mockCatalog, calendar *mockCalendar, bookings *mockBookings) *Service {
	if calendar.week == nil {
		calendar.week = directory.DefaultWeeklyHours()
	}
	svc := NewService(employees, catalog, calendar, bookings, testConfig(), zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc
}

func fullWeek(start, end string) schedule.WeeklySchedule {
	days := []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}
	ws := schedule.WeeklySchedule{}
	for _, d := range days {
		ws[d] = schedule.DaySchedule{Available: true, Start: start, End: end}
	}
	return ws
}

func testBarber(policy schedule.GenderPolicy, ws schedule.WeeklySchedule) directory.Employee {
	return directory.Employee{
		ID:             uuid.New(),
		Name:           "Test Barber",
		Role:           directory.RoleBarber,
		ServesGender:   policy,
		WeeklySchedule: ws,
		Active:         true,
	}
}

func TestAvailableDates(t *testing.T) {
	svc := newTestService(&mockEmployees{}, &mockCatalog{
		services: []directory.Service{{DurationMinutes: 30}, {DurationMinutes: 20}},
	}, &mockCalendar{}, &mockBookings{})

	res, err := svc.AvailableDates(context.Background(), []uuid.UUID{uuid.New()}, uuid.New(), 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.TotalDurationMinutes != 50 {
		t.Errorf("total = %d, want 50", res.TotalDurationMinutes)
	}

	// 14 days starting Tuesday 2026-09-01 contain two Sundays.
	if len(res.Dates) != 12 {
		t.Errorf("got %d dates, want 12", len(res.Dates))
	}
	for _, d := range res.Dates {
		parsed, err := time.ParseInLocation("2006-01-02", d, time.Local)
		if err != nil {
			t.Fatalf("unparsable date %q: %v", d, err)
		}
		if parsed.Weekday() == time.Sunday {
			t.Errorf("date %s falls on the closed weekday", d)
		}
	}

	// First date is a Tuesday: default hours 09:00-18:00.
	if res.SalonOpen != "09:00" || res.SalonClose != "18:00" {
		t.Errorf("salon hours = %s-%s, want 09:00-18:00", res.SalonOpen, res.SalonClose)
	}
}

func TestAvailableDates_Validation(t *testing.T) {
	svc := newTestService(&mockEmployees{}, &mockCatalog{}, &mockCalendar{}, &mockBookings{})
	if _, err := svc.AvailableDates(context.Background(), nil, uuid.New(), 7); !errors.Is(err, ErrNoServices) {
		t.Errorf("expected ErrNoServices, got %v", err)
	}

	svc = newTestService(&mockEmployees{}, &mockCatalog{}, &mockCalendar{salonErr: directory.ErrSalonNotFound}, &mockBookings{})
	if _, err := svc.AvailableDates(context.Background(), []uuid.UUID{uuid.New()}, uuid.New(), 7); !errors.Is(err, directory.ErrSalonNotFound) {
		t.Errorf("expected ErrSalonNotFound, got %v", err)
	}
}

func TestAvailableBarbers_FilterStages(t *testing.T) {
	bookable := testBarber(schedule.PolicyBoth, fullWeek("09:00", "18:00"))
	maleOnly := testBarber(schedule.PolicyMale, fullWeek("09:00", "18:00"))
	offToday := testBarber(schedule.PolicyBoth, schedule.WeeklySchedule{
		"wednesday": {Available: false},
	})
	cleaner := directory.Employee{
		ID: uuid.New(), Name: "Cleaner", Role: directory.RoleCleaner, Active: true,
		ServesGender: schedule.PolicyBoth, WeeklySchedule: fullWeek("09:00", "18:00"),
	}
	// Fully booked 09:00-18:00.
	booked := testBarber(schedule.PolicyBoth, fullWeek("09:00", "18:00"))

	staff := []directory.Employee{bookable, maleOnly, offToday, cleaner, booked}

	bookings := &mockBookings{
		listFunc: func(ctx context.Context, employeeID uuid.UUID, dayStart, dayEnd time.Time) ([]appointment.Appointment, error) {
			if employeeID != booked.ID {
				return nil, nil
			}
			end := time.Date(2026, 9, 2, 18, 0, 0, 0, time.Local)
			return []appointment.Appointment{{
				StartTime:    time.Date(2026, 9, 2, 9, 0, 0, 0, time.Local),
				EstimatedEnd: &end,
				Status:       appointment.StatusScheduled,
			}}, nil
		},
	}

	svc := newTestService(
		&mockEmployees{listFunc: func(ctx context.Context, salonID uuid.UUID) ([]directory.Employee, error) {
			return staff, nil
		}},
		&mockCatalog{services: []directory.Service{{DurationMinutes: 30}}},
		&mockCalendar{},
		bookings,
	)

	res, err := svc.AvailableBarbers(context.Background(), []uuid.UUID{uuid.New()}, testDate, uuid.New(), "female")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.TotalEmployees != 5 {
		t.Errorf("total employees = %d, want 5", res.TotalEmployees)
	}
	if res.TotalServiceProviders != 4 {
		t.Errorf("service providers = %d, want 4 (cleaner excluded)", res.TotalServiceProviders)
	}
	if len(res.Barbers) != 1 {
		t.Fatalf("got %d barbers, want 1: %+v", len(res.Barbers), res.Barbers)
	}
	if res.Barbers[0].ID != bookable.ID {
		t.Errorf("wrong barber survived the filters")
	}
}

func TestAvailableBarbers_GenderExcludesSoleCandidate(t *testing.T) {
	maleOnly := testBarber(schedule.PolicyMale, fullWeek("09:00", "18:00"))

	svc := newTestService(
		&mockEmployees{listFunc: func(ctx context.Context, salonID uuid.UUID) ([]directory.Employee, error) {
			return []directory.Employee{maleOnly}, nil
		}},
		&mockCatalog{services: []directory.Service{{DurationMinutes: 30}}},
		&mockCalendar{},
		&mockBookings{},
	)

	res, err := svc.AvailableBarbers(context.Background(), []uuid.UUID{uuid.New()}, testDate, uuid.New(), "female")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Barbers) != 0 {
		t.Fatalf("expected no barbers, got %d", len(res.Barbers))
	}
	if res.Message != ReasonGenderPolicy {
		t.Errorf("message = %q, want %q", res.Message, ReasonGenderPolicy)
	}
}

func TestAvailableBarbers_Validation(t *testing.T) {
	svc := newTestService(&mockEmployees{}, &mockCatalog{}, &mockCalendar{}, &mockBookings{})

	if _, err := svc.AvailableBarbers(context.Background(), nil, testDate, uuid.New(), ""); !errors.Is(err, ErrNoServices) {
		t.Errorf("expected ErrNoServices, got %v", err)
	}

	yesterday := testNow.AddDate(0, 0, -1)
	if _, err := svc.AvailableBarbers(context.Background(), []uuid.UUID{uuid.New()}, yesterday, uuid.New(), ""); !errors.Is(err, ErrPastDate) {
		t.Errorf("expected ErrPastDate, got %v", err)
	}
}

func TestAvailableTimeSlots_FullScenario(t *testing.T) {
	barber := testBarber(schedule.PolicyBoth, fullWeek("09:00", "18:00"))

	end := time.Date(2026, 9, 2, 10, 45, 0, 0, time.Local)
	bookings := &mockBookings{
		listFunc: func(ctx context.Context, employeeID uuid.UUID, dayStart, dayEnd time.Time) ([]appointment.Appointment, error) {
			return []appointment.Appointment{{
				StartTime:    time.Date(2026, 9, 2, 10, 0, 0, 0, time.Local),
				EstimatedEnd: &end,
				Status:       appointment.StatusConfirmed,
			}}, nil
		},
	}

	svc := newTestService(
		&mockEmployees{getFunc: func(ctx context.Context, id uuid.UUID) (*directory.Employee, error) {
			return &barber, nil
		}},
		&mockCatalog{services: []directory.Service{{DurationMinutes: 30}}},
		&mockCalendar{},
		bookings,
	)

	res, err := svc.AvailableTimeSlots(context.Background(), barber.ID, []uuid.UUID{uuid.New()}, testDate, uuid.New(), "male")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.BarberID != barber.ID || res.BarberName != barber.Name {
		t.Errorf("barber identity not echoed back")
	}
	if res.TotalDurationMinutes != 30 || res.BufferMinutes != 15 {
		t.Errorf("durations = %d/%d, want 30/15", res.TotalDurationMinutes, res.BufferMinutes)
	}
	if res.Message != "" {
		t.Errorf("unexpected message %q", res.Message)
	}

	// 09:00, 09:15, then resume at 10:45 through 17:15.
	wantFirst := []string{"09:00", "09:15", "10:45", "11:00"}
	if len(res.Slots) < len(wantFirst) {
		t.Fatalf("got %d slots, want at least %d", len(res.Slots), len(wantFirst))
	}
	for i, clock := range wantFirst {
		if got := res.Slots[i].Start.Format("15:04"); got != clock {
			t.Errorf("slot[%d] = %s, want %s", i, got, clock)
		}
	}
	last := res.Slots[len(res.Slots)-1]
	if last.Start.Format("15:04") != "17:15" {
		t.Errorf("last slot = %s, want 17:15", last.Start.Format("15:04"))
	}
}

func TestAvailableTimeSlots_Reasons(t *testing.T) {
	offWednesday := schedule.WeeklySchedule{
		"wednesday": {Available: false},
	}

	cases := []struct {
		name       string
		barber     directory.Employee
		gender     string
		closedWeek directory.WeeklyHours
		want       string
	}{
		{
			name:   "barber not available",
			barber: testBarber(schedule.PolicyBoth, offWednesday),
			gender: "male",
			want:   ReasonBarberNotAvailable,
		},
		{
			name:   "gender policy",
			barber: testBarber(schedule.PolicyMale, fullWeek("09:00", "18:00")),
			gender: "female",
			want:   ReasonGenderPolicy,
		},
		{
			name:   "not a service provider",
			barber: directory.Employee{ID: uuid.New(), Name: "R", Role: directory.RoleReceptionist, Active: true, ServesGender: schedule.PolicyBoth},
			gender: "male",
			want:   ReasonNotBookable,
		},
		{
			name:       "salon closed",
			barber:     testBarber(schedule.PolicyBoth, fullWeek("09:00", "18:00")),
			gender:     "male",
			closedWeek: directory.WeeklyHours{},
			want:       ReasonSalonClosed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			barber := tc.barber
			cal := &mockCalendar{week: tc.closedWeek}
			if tc.closedWeek == nil {
				cal = &mockCalendar{}
			}
			svc := newTestService(
				&mockEmployees{getFunc: func(ctx context.Context, id uuid.UUID) (*directory.Employee, error) {
					return &barber, nil
				}},
				&mockCatalog{services: []directory.Service{{DurationMinutes: 30}}},
				cal,
				&mockBookings{},
			)

			res, err := svc.AvailableTimeSlots(context.Background(), barber.ID, []uuid.UUID{uuid.New()}, testDate, uuid.New(), tc.gender)
			if err != nil {
				t.Fatalf("reasons are results, not errors; got %v", err)
			}
			if len(res.Slots) != 0 {
				t.Errorf("expected no slots, got %d", len(res.Slots))
			}
			if res.Message != tc.want {
				t.Errorf("message = %q, want %q", res.Message, tc.want)
			}
		})
	}
}

func TestAvailableTimeSlots_FullyBooked(t *testing.T) {
	barber := testBarber(schedule.PolicyBoth, fullWeek("09:00", "10:00"))

	end := time.Date(2026, 9, 2, 10, 0, 0, 0, time.Local)
	bookings := &mockBookings{
		listFunc: func(ctx context.Context, employeeID uuid.UUID, dayStart, dayEnd time.Time) ([]appointment.Appointment, error) {
			return []appointment.Appointment{{
				StartTime:    time.Date(2026, 9, 2, 9, 0, 0, 0, time.Local),
				EstimatedEnd: &end,
				Status:       appointment.StatusConfirmed,
			}}, nil
		},
	}

	svc := newTestService(
		&mockEmployees{getFunc: func(ctx context.Context, id uuid.UUID) (*directory.Employee, error) {
			return &barber, nil
		}},
		&mockCatalog{services: []directory.Service{{DurationMinutes: 30}}},
		&mockCalendar{},
		bookings,
	)

	res, err := svc.AvailableTimeSlots(context.Background(), barber.ID, []uuid.UUID{uuid.New()}, testDate, uuid.New(), "male")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Slots) != 0 || res.Message != ReasonFullyBooked {
		t.Errorf("got %d slots, message %q; want 0 slots and %q", len(res.Slots), res.Message, ReasonFullyBooked)
	}
}
