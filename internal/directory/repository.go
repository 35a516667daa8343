package directory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/salonos/scheduling/internal/schedule"
)

var (
	ErrSalonNotFound    = errors.New("salon not found")
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrServiceNotFound  = errors.New("service not found")
)

// EmployeeDirectory looks up bookable staff. Owned by the employee-management
// backend; the scheduling engine only reads.
type EmployeeDirectory interface {
	GetEmployee(ctx context.Context, id uuid.UUID) (*Employee, error)
	ListActiveBySalon(ctx context.Context, salonID uuid.UUID) ([]Employee, error)
}

// ServiceCatalog resolves service ids to durations. ListServices must return
// exactly one match per input id; a partial match is an error.
type ServiceCatalog interface {
	ListServices(ctx context.Context, ids []uuid.UUID) ([]Service, error)
}

// SalonCalendar resolves a salon's operating window on a date. Backed by a
// static weekly table by default, swappable for a database-backed source.
type SalonCalendar interface {
	GetSalon(ctx context.Context, id uuid.UUID) (*Salon, error)
	HoursOn(ctx context.Context, salonID uuid.UUID, date time.Time) (schedule.WorkingWindow, error)
}

// TotalDuration sums service durations in minutes.
func TotalDuration(services []Service) int {
	var total int
	for _, s := range services {
		total += s.DurationMinutes
	}
	return total
}
