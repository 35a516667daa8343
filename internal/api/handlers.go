package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/salonos/scheduling/internal/appointment"
	"github.com/salonos/scheduling/internal/availability"
	"github.com/salonos/scheduling/internal/directory"
	redisclient "github.com/salonos/scheduling/internal/redis"
)

var validate = validator.New()

// AvailabilityService is the slice of the orchestrator the handlers need.
type AvailabilityService interface {
	AvailableDates(ctx context.Context, serviceIDs []uuid.UUID, salonID uuid.UUID, daysAhead int) (*availability.AvailableDatesResult, error)
	AvailableBarbers(ctx context.Context, serviceIDs []uuid.UUID, date time.Time, salonID uuid.UUID, customerGender string) (*availability.AvailableBarbersResult, error)
	AvailableTimeSlots(ctx context.Context, barberID uuid.UUID, serviceIDs []uuid.UUID, date time.Time, salonID uuid.UUID, customerGender string) (*availability.AvailableTimeSlotsResult, error)
}

// AppointmentService is the lifecycle surface exposed over HTTP.
type AppointmentService interface {
	Create(ctx context.Context, p appointment.CreateParams) (*appointment.Appointment, error)
	Schedule(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	Confirm(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	StartService(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	Complete(ctx context.Context, id uuid.UUID, actualEnd time.Time) (*appointment.Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID, reason, actor string) (*appointment.Appointment, error)
	MarkNoShow(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	Reschedule(ctx context.Context, id uuid.UUID, newStart time.Time) (*appointment.Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
}

// Query helpers

func parseServiceIDs(r *http.Request) ([]uuid.UUID, error) {
	raw := strings.Split(r.URL.Query().Get("service_ids"), ",")
	var ids []uuid.UUID
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseDate(r *http.Request) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", r.URL.Query().Get("date"), time.Local)
}

// Availability handlers

func availableDatesHandler(svc AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceIDs, err := parseServiceIDs(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_service_ids", "service_ids must be comma-separated UUIDs")
			return
		}

		salonID, err := uuid.Parse(r.URL.Query().Get("salon_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_salon_id", "salon_id must be a valid UUID")
			return
		}

		daysAhead := 0
		if v := r.URL.Query().Get("days_ahead"); v != "" {
			daysAhead, err = strconv.Atoi(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_days_ahead", "days_ahead must be an integer")
				return
			}
		}

		res, err := svc.AvailableDates(r.Context(), serviceIDs, salonID, daysAhead)
		if err != nil {
			handleAvailabilityError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}

func availableBarbersHandler(svc AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serviceIDs, err := parseServiceIDs(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_service_ids", "service_ids must be comma-separated UUIDs")
			return
		}

		salonID, err := uuid.Parse(r.URL.Query().Get("salon_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_salon_id", "salon_id must be a valid UUID")
			return
		}

		date, err := parseDate(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		res, err := svc.AvailableBarbers(r.Context(), serviceIDs, date, salonID, r.URL.Query().Get("gender"))
		if err != nil {
			handleAvailabilityError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}

func availableTimeSlotsHandler(svc AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		barberID, err := uuid.Parse(r.URL.Query().Get("barber_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_barber_id", "barber_id must be a valid UUID")
			return
		}

		serviceIDs, err := parseServiceIDs(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_service_ids", "service_ids must be comma-separated UUIDs")
			return
		}

		salonID, err := uuid.Parse(r.URL.Query().Get("salon_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_salon_id", "salon_id must be a valid UUID")
			return
		}

		date, err := parseDate(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		res, err := svc.AvailableTimeSlots(r.Context(), barberID, serviceIDs, date, salonID, r.URL.Query().Get("gender"))
		if err != nil {
			handleAvailabilityError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}

// Appointment handlers

func createAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		params := appointment.CreateParams{StartTime: req.StartTime}
		params.SalonID, _ = uuid.Parse(req.SalonID)
		params.EmployeeID, _ = uuid.Parse(req.EmployeeID)
		params.CustomerID, _ = uuid.Parse(req.CustomerID)
		for _, s := range req.ServiceIDs {
			id, _ := uuid.Parse(s)
			params.ServiceIDs = append(params.ServiceIDs, id)
		}

		appt, err := svc.Create(r.Context(), params)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.Get(r.Context(), id)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func transitionHandler(fn func(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := fn(r.Context(), id)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func completeAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req CompleteAppointmentRequest
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
				return
			}
		}

		var actualEnd time.Time
		if req.ActualEnd != nil {
			actualEnd = *req.ActualEnd
		}

		appt, err := svc.Complete(r.Context(), id, actualEnd)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req CancelAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		appt, err := svc.Cancel(r.Context(), id, req.Reason, req.CancelledBy)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func rescheduleAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req RescheduleAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}

		appt, err := svc.Reschedule(r.Context(), id, req.StartTime)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

// Error mapping

func handleAvailabilityError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, availability.ErrNoServices):
		writeError(w, http.StatusBadRequest, "no_services", err.Error())
	case errors.Is(err, availability.ErrPastDate):
		writeError(w, http.StatusBadRequest, "past_date", err.Error())
	case errors.Is(err, directory.ErrSalonNotFound):
		writeError(w, http.StatusNotFound, "salon_not_found", err.Error())
	case errors.Is(err, directory.ErrEmployeeNotFound):
		writeError(w, http.StatusNotFound, "employee_not_found", err.Error())
	case errors.Is(err, directory.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "service_not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleAppointmentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appointment.ErrNoServices),
		errors.Is(err, appointment.ErrPastStartTime),
		errors.Is(err, appointment.ErrNotBookable),
		errors.Is(err, appointment.ErrCancelReasonRequired),
		errors.Is(err, appointment.ErrCancelActorRequired):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, directory.ErrEmployeeNotFound):
		writeError(w, http.StatusNotFound, "employee_not_found", err.Error())
	case errors.Is(err, directory.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "service_not_found", err.Error())
	case errors.Is(err, appointment.ErrBookingConflict):
		writeError(w, http.StatusConflict, "booking_conflict", err.Error())
	case errors.Is(err, appointment.ErrBookingBeingMade),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "booking_in_progress", "another booking for this barber is in progress, please retry shortly")
	case errors.Is(err, appointment.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:           a.ID,
		SalonID:      a.SalonID,
		EmployeeID:   a.EmployeeID,
		CustomerID:   a.CustomerID,
		ServiceIDs:   a.ServiceIDs,
		StartTime:    a.StartTime,
		EstimatedEnd: a.EstimatedEnd,
		ActualStart:  a.ActualStart,
		ActualEnd:    a.ActualEnd,
		Status:       string(a.Status),
		CancelReason: a.CancelReason,
		CancelledBy:  a.CancelledBy,
	}
}
