package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NewRouter wires every route to its handler.
func NewRouter(
	availabilitySvc AvailabilityService,
	appointmentSvc AppointmentService,
	health *HealthHandler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))

	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/availability", func(r chi.Router) {
		r.Get("/dates", availableDatesHandler(availabilitySvc))
		r.Get("/barbers", availableBarbersHandler(availabilitySvc))
		r.Get("/slots", availableTimeSlotsHandler(availabilitySvc))
	})

	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", createAppointmentHandler(appointmentSvc))
		r.Get("/{id}", getAppointmentHandler(appointmentSvc))
		r.Patch("/{id}/time", rescheduleAppointmentHandler(appointmentSvc))
		r.Post("/{id}/schedule", transitionHandler(appointmentSvc.Schedule))
		r.Post("/{id}/confirm", transitionHandler(appointmentSvc.Confirm))
		r.Post("/{id}/start", transitionHandler(appointmentSvc.StartService))
		r.Post("/{id}/complete", completeAppointmentHandler(appointmentSvc))
		r.Post("/{id}/cancel", cancelAppointmentHandler(appointmentSvc))
		r.Post("/{id}/no-show", transitionHandler(appointmentSvc.MarkNoShow))
	})

	return r
}
