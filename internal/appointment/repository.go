package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Repository contains all DB interactions needed by the lifecycle service and
// the availability engine's conflict scans.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// ListForEmployeeDay returns non-cancelled appointments whose start falls
	// in [dayStart, dayEnd), sorted ascending by start.
	ListForEmployeeDay(ctx context.Context, employeeID uuid.UUID, dayStart, dayEnd time.Time) ([]Appointment, error)

	Create(ctx context.Context, a *Appointment) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID, from Status, reason, actor string) (*Appointment, error)
	StartService(ctx context.Context, id uuid.UUID, actualStart time.Time) (*Appointment, error)
	Complete(ctx context.Context, id uuid.UUID, actualEnd time.Time) (*Appointment, error)
	UpdateTime(ctx context.Context, id uuid.UUID, start, estimatedEnd time.Time) (*Appointment, error)

	// No-show worker.
	FindOverdue(ctx context.Context, cutoff time.Time, defaultDurationMinutes int) ([]Appointment, error)

	// Event audit log.
	InsertEvent(ctx context.Context, ev EventLog) error
}
