package directory

import (
	"time"

	"github.com/google/uuid"

	"github.com/salonos/scheduling/internal/schedule"
)

type Role string

const (
	RoleBarber       Role = "barber"
	RoleStylist      Role = "stylist"
	RoleOwner        Role = "owner"
	RoleManager      Role = "manager"
	RoleReceptionist Role = "receptionist"
	RoleCleaner      Role = "cleaner"
	RoleOther        Role = "other"
)

// IsServiceProvider reports whether this role can be booked for services.
// Receptionists, cleaners and unknown roles are filtered out before any
// schedule check.
func (r Role) IsServiceProvider() bool {
	switch r {
	case RoleBarber, RoleStylist, RoleOwner, RoleManager:
		return true
	default:
		return false
	}
}

type Salon struct {
	ID        uuid.UUID
	Name      string
	Branch    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Employee struct {
	ID             uuid.UUID
	SalonID        uuid.UUID
	Name           string
	Role           Role
	ServesGender   schedule.GenderPolicy
	WeeklySchedule schedule.WeeklySchedule
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Service struct {
	ID              uuid.UUID
	SalonID         uuid.UUID
	Name            string
	DurationMinutes int
	Gender          schedule.GenderPolicy
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
