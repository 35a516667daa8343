package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"     // created, payment not yet acknowledged
	StatusScheduled  Status = "scheduled"   // payment acknowledged
	StatusConfirmed  Status = "confirmed"   // customer confirmed attendance
	StatusInProgress Status = "in_progress" // service started
	StatusCompleted  Status = "completed"   // terminal
	StatusCancelled  Status = "cancelled"   // terminal
	StatusNoShow     Status = "no_show"     // terminal
)

// transitions is the full lifecycle state machine. Cancellation and no-show
// are reachable from every pre-service state.
var transitions = map[Status][]Status{
	StatusPending:    {StatusScheduled, StatusCancelled, StatusNoShow},
	StatusScheduled:  {StatusConfirmed, StatusCancelled, StatusNoShow},
	StatusConfirmed:  {StatusInProgress, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusCompleted},
}

// CanTransition reports whether from → to is a legal lifecycle move.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Appointment struct {
	ID           uuid.UUID
	SalonID      uuid.UUID
	EmployeeID   uuid.UUID
	CustomerID   uuid.UUID
	ServiceIDs   []uuid.UUID
	StartTime    time.Time
	EstimatedEnd *time.Time // nil on legacy rows; assume the default duration
	ActualStart  *time.Time
	ActualEnd    *time.Time
	Status       Status
	CancelReason *string
	CancelledBy  *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EstimatedEndOr returns the estimated end, or start plus the default
// duration when the column is null.
func (a *Appointment) EstimatedEndOr(defaultDuration time.Duration) time.Time {
	if a.EstimatedEnd != nil {
		return *a.EstimatedEnd
	}
	return a.StartTime.Add(defaultDuration)
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
