package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/salonos/scheduling/internal/config"
	"github.com/salonos/scheduling/internal/directory"
	"github.com/salonos/scheduling/internal/events"
	redisclient "github.com/salonos/scheduling/internal/redis"
	"github.com/salonos/scheduling/internal/schedule"
)

const (
	EventAppointmentCreated     = "APPOINTMENT_CREATED"
	EventAppointmentScheduled   = "APPOINTMENT_SCHEDULED"
	EventAppointmentConfirmed   = "APPOINTMENT_CONFIRMED"
	EventAppointmentStarted     = "APPOINTMENT_STARTED"
	EventAppointmentCompleted   = "APPOINTMENT_COMPLETED"
	EventAppointmentCancelled   = "APPOINTMENT_CANCELLED"
	EventAppointmentNoShow      = "APPOINTMENT_NO_SHOW"
	EventAppointmentRescheduled = "APPOINTMENT_RESCHEDULED"
)

var (
	ErrBookingConflict         = errors.New("booking conflicts with an existing appointment")
	ErrBookingBeingMade        = errors.New("another booking for this barber is in progress, please retry")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrPastStartTime           = errors.New("start time is in the past")
	ErrNoServices              = errors.New("at least one service is required")
	ErrNotBookable             = errors.New("employee cannot take bookings")
	ErrCancelReasonRequired    = errors.New("cancellation reason is required")
	ErrCancelActorRequired     = errors.New("cancellation actor is required")
)

type Service struct {
	repo      Repository
	locker    redisclient.Locker
	catalog   directory.ServiceCatalog
	employees directory.EmployeeDirectory
	publisher events.Publisher
	cfg       config.Config
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(
	repo Repository,
	locker redisclient.Locker,
	catalog directory.ServiceCatalog,
	employees directory.EmployeeDirectory,
	publisher events.Publisher,
	cfg config.Config,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:      repo,
		locker:    locker,
		catalog:   catalog,
		employees: employees,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

type CreateParams struct {
	SalonID    uuid.UUID
	EmployeeID uuid.UUID
	CustomerID uuid.UUID
	ServiceIDs []uuid.UUID
	StartTime  time.Time
}

// Create books an appointment in PENDING state. The conflict scan and the
// insert run inside a per-(employee, day) lock so concurrent bookings for the
// same barber cannot both pass the scan and double-book.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Appointment, error) {
	if len(p.ServiceIDs) == 0 {
		return nil, ErrNoServices
	}
	if p.StartTime.Before(s.now()) {
		return nil, ErrPastStartTime
	}

	emp, err := s.employees.GetEmployee(ctx, p.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("load employee: %w", err)
	}
	if !emp.Active || !emp.Role.IsServiceProvider() {
		return nil, ErrNotBookable
	}

	services, err := s.catalog.ListServices(ctx, p.ServiceIDs)
	if err != nil {
		return nil, fmt.Errorf("load services: %w", err)
	}

	duration := time.Duration(directory.TotalDuration(services)) * time.Minute
	estimatedEnd := p.StartTime.Add(duration)

	var created *Appointment

	err = s.locker.WithBookingLock(ctx, p.EmployeeID, p.StartTime, func(lockCtx context.Context) error {
		if err := s.checkConflict(lockCtx, p.EmployeeID, uuid.Nil, p.StartTime, estimatedEnd); err != nil {
			return err
		}

		appt, err := s.repo.Create(lockCtx, &Appointment{
			SalonID:      p.SalonID,
			EmployeeID:   p.EmployeeID,
			CustomerID:   p.CustomerID,
			ServiceIDs:   p.ServiceIDs,
			StartTime:    p.StartTime,
			EstimatedEnd: &estimatedEnd,
			Status:       StatusPending,
		})
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrBookingBeingMade
		}
		return nil, err
	}

	s.emit(ctx, created.ID, EventAppointmentCreated, map[string]any{
		"employee_id": p.EmployeeID.String(),
		"customer_id": p.CustomerID.String(),
		"start_time":  p.StartTime,
	})

	return created, nil
}

// checkConflict loads the employee's non-cancelled bookings for the proposed
// day, repairs any broken intervals, and rejects when [start, end) intersects
// one of them. excludeID skips the appointment being rescheduled.
func (s *Service) checkConflict(ctx context.Context, employeeID, excludeID uuid.UUID, start, end time.Time) error {
	dayStart := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	existing, err := s.repo.ListForEmployeeDay(ctx, employeeID, dayStart, dayEnd)
	if err != nil {
		return fmt.Errorf("scan existing appointments: %w", err)
	}

	raw := make([]schedule.RawInterval, 0, len(existing))
	for _, a := range existing {
		if excludeID != uuid.Nil && a.ID == excludeID {
			continue
		}
		raw = append(raw, schedule.RawInterval{Start: a.StartTime, End: a.EstimatedEnd})
	}

	intervals := schedule.RepairIntervals(raw, schedule.WorkingWindow{}, s.cfg.DefaultDuration, s.cfg.WindowSlack, s.logger)

	if conflict, found := schedule.FindConflict(schedule.BookedInterval{Start: start, End: end}, intervals); found {
		return fmt.Errorf("%w: %s-%s taken",
			ErrBookingConflict,
			conflict.Start.Format("15:04"),
			conflict.End.Format("15:04"))
	}

	return nil
}

// Reschedule moves a booking to a new start, re-running the conflict check
// against the new interval under the same per-employee lock.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, newStart time.Time) (*Appointment, error) {
	if newStart.Before(s.now()) {
		return nil, ErrPastStartTime
	}

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	switch appt.Status {
	case StatusPending, StatusScheduled, StatusConfirmed:
	default:
		return nil, ErrInvalidStatusTransition
	}

	duration := appt.EstimatedEndOr(s.cfg.DefaultDuration).Sub(appt.StartTime)
	newEnd := newStart.Add(duration)

	var updated *Appointment

	err = s.locker.WithBookingLock(ctx, appt.EmployeeID, newStart, func(lockCtx context.Context) error {
		if err := s.checkConflict(lockCtx, appt.EmployeeID, appt.ID, newStart, newEnd); err != nil {
			return err
		}

		upd, err := s.repo.UpdateTime(lockCtx, appt.ID, newStart, newEnd)
		if err != nil {
			return fmt.Errorf("update appointment time: %w", err)
		}

		updated = upd
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrBookingBeingMade
		}
		return nil, err
	}

	s.emit(ctx, updated.ID, EventAppointmentRescheduled, map[string]any{
		"old_start": appt.StartTime,
		"new_start": newStart,
	})

	return updated, nil
}

// Schedule acknowledges payment and moves PENDING to SCHEDULED.
func (s *Service) Schedule(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusScheduled, EventAppointmentScheduled)
}

func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusConfirmed, EventAppointmentConfirmed)
}

// StartService moves a confirmed booking to IN_PROGRESS and records the
// actual start time.
func (s *Service) StartService(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if !CanTransition(appt.Status, StatusInProgress) {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.StartService(ctx, appt.ID, s.now())
	if err != nil {
		return nil, fmt.Errorf("start appointment: %w", err)
	}

	s.emit(ctx, updated.ID, EventAppointmentStarted, map[string]any{})
	return updated, nil
}

// Complete finishes a booking. actualEnd zero means "now". Actual start falls
// back to the scheduled start if the service was never explicitly started.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, actualEnd time.Time) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if !CanTransition(appt.Status, StatusCompleted) {
		return nil, ErrInvalidStatusTransition
	}

	if actualEnd.IsZero() {
		actualEnd = s.now()
	}

	updated, err := s.repo.Complete(ctx, appt.ID, actualEnd)
	if err != nil {
		return nil, fmt.Errorf("complete appointment: %w", err)
	}

	s.emit(ctx, updated.ID, EventAppointmentCompleted, map[string]any{
		"actual_end": actualEnd,
	})
	return updated, nil
}

// Cancel requires a reason and the identity of whoever cancelled.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason, actor string) (*Appointment, error) {
	if reason == "" {
		return nil, ErrCancelReasonRequired
	}
	if actor == "" {
		return nil, ErrCancelActorRequired
	}

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if !CanTransition(appt.Status, StatusCancelled) {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.Cancel(ctx, appt.ID, appt.Status, reason, actor)
	if err != nil {
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	s.emit(ctx, updated.ID, EventAppointmentCancelled, map[string]any{
		"reason": reason,
		"actor":  actor,
	})
	return updated, nil
}

func (s *Service) MarkNoShow(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusNoShow, EventAppointmentNoShow)
}

// SweepNoShows is called by the worker periodically: bookings whose estimated
// end passed the grace period without being started are marked NO_SHOW.
func (s *Service) SweepNoShows(ctx context.Context) error {
	cutoff := s.now().Add(-s.cfg.NoShowGrace)

	overdue, err := s.repo.FindOverdue(ctx, cutoff, int(s.cfg.DefaultDuration/time.Minute))
	if err != nil {
		return fmt.Errorf("find overdue appointments: %w", err)
	}

	for _, appt := range overdue {
		_, err := s.repo.UpdateStatus(ctx, appt.ID, appt.Status, StatusNoShow)
		if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
			s.logger.Warn("failed to mark no-show",
				zap.String("appointment_id", appt.ID.String()),
				zap.Error(err))
			continue
		}
		s.emit(ctx, appt.ID, EventAppointmentNoShow, map[string]any{
			"reason": "worker",
		})
	}

	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, to Status, eventType string) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if !CanTransition(appt.Status, to) {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateStatus(ctx, appt.ID, appt.Status, to)
	if err != nil {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	s.emit(ctx, updated.ID, eventType, map[string]any{})
	return updated, nil
}

// emit records the event in the audit log and hands it to the notification
// stream. Both are fire-and-forget: a failed emit never fails the booking.
func (s *Service) emit(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("marshal event payload",
			zap.String("event_type", eventType),
			zap.Error(err))
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Warn("insert event log",
			zap.String("event_type", eventType),
			zap.String("appointment_id", appointmentID.String()),
			zap.Error(err))
	}

	s.publisher.Publish(ctx, events.Event{
		Type:          eventType,
		AppointmentID: appointmentID,
		Payload:       payload,
	})
}
