package availability

import (
	"github.com/google/uuid"

	"github.com/salonos/scheduling/internal/schedule"
)

// Unavailability reasons surfaced to callers. "No slots" is a result, never an
// error, and the reason says which stage ruled the barber out.
const (
	ReasonSalonClosed        = "Salon is closed on this date"
	ReasonBarberNotAvailable = "Barber not available on this date"
	ReasonGenderPolicy       = "Barber does not serve this gender"
	ReasonFullyBooked        = "Barber is fully booked on this date"
	ReasonNotBookable        = "Selected employee cannot take bookings"
)

// AvailableDatesResult is the coarse date-picker estimate: it knows the salon
// calendar but deliberately ignores per-barber schedules.
type AvailableDatesResult struct {
	Dates                []string `json:"dates"`
	TotalDurationMinutes int      `json:"totalDurationMinutes"`
	SalonOpen            string   `json:"salonOpen,omitempty"`
	SalonClose           string   `json:"salonClose,omitempty"`
}

type BarberSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type AvailableBarbersResult struct {
	Barbers               []BarberSummary `json:"barbers"`
	TotalServiceProviders int             `json:"totalServiceProviders"`
	TotalEmployees        int             `json:"totalEmployees"`
	Message               string          `json:"message,omitempty"`
}

type AvailableTimeSlotsResult struct {
	BarberID             uuid.UUID           `json:"barberId"`
	BarberName           string              `json:"barberName"`
	TotalDurationMinutes int                 `json:"totalDurationMinutes"`
	BufferMinutes        int                 `json:"bufferMinutes"`
	Slots                []schedule.TimeSlot `json:"slots"`
	Message              string              `json:"message,omitempty"`
}
