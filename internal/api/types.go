package api

import (
	"time"

	"github.com/google/uuid"
)

type CreateAppointmentRequest struct {
	SalonID    string    `json:"salon_id" validate:"required,uuid"`
	EmployeeID string    `json:"employee_id" validate:"required,uuid"`
	CustomerID string    `json:"customer_id" validate:"required,uuid"`
	ServiceIDs []string  `json:"service_ids" validate:"required,min=1,dive,uuid"`
	StartTime  time.Time `json:"start_time" validate:"required"`
}

type CancelAppointmentRequest struct {
	Reason      string `json:"reason" validate:"required"`
	CancelledBy string `json:"cancelled_by" validate:"required"`
}

type CompleteAppointmentRequest struct {
	ActualEnd *time.Time `json:"actual_end,omitempty"`
}

type RescheduleAppointmentRequest struct {
	StartTime time.Time `json:"start_time" validate:"required"`
}

type AppointmentResponse struct {
	ID           uuid.UUID   `json:"id"`
	SalonID      uuid.UUID   `json:"salon_id"`
	EmployeeID   uuid.UUID   `json:"employee_id"`
	CustomerID   uuid.UUID   `json:"customer_id"`
	ServiceIDs   []uuid.UUID `json:"service_ids"`
	StartTime    time.Time   `json:"start_time"`
	EstimatedEnd *time.Time  `json:"estimated_end,omitempty"`
	ActualStart  *time.Time  `json:"actual_start,omitempty"`
	ActualEnd    *time.Time  `json:"actual_end,omitempty"`
	Status       string      `json:"status"`
	CancelReason *string     `json:"cancel_reason,omitempty"`
	CancelledBy  *string     `json:"cancelled_by,omitempty"`
}
