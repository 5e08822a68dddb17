package domain

import "time"

// RegistrationStatus represents the lifecycle state of a registration.
type RegistrationStatus string

const (
	RegistrationStatusPending   RegistrationStatus = "pending"
	RegistrationStatusConfirmed RegistrationStatus = "confirmed"
	RegistrationStatusCancelled RegistrationStatus = "cancelled"
	RegistrationStatusCompleted RegistrationStatus = "completed"
)

// Valid reports whether the status is a known lifecycle state.
func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationStatusPending, RegistrationStatusConfirmed,
		RegistrationStatusCancelled, RegistrationStatusCompleted:
		return true
	}
	return false
}

// Active reports whether the status occupies a seat on a bound session.
func (s RegistrationStatus) Active() bool {
	return s == RegistrationStatusPending || s == RegistrationStatusConfirmed
}

// Terminal reports whether the status admits no further transitions.
func (s RegistrationStatus) Terminal() bool {
	return s == RegistrationStatusCancelled || s == RegistrationStatusCompleted
}

// CanTransition reports whether moving from one status to another is allowed.
// Completed is strictly terminal. Cancelled registrations may be reactivated
// back into the active set, subject to duplicate and capacity checks applied
// by the lifecycle service.
func CanTransition(from, to RegistrationStatus) bool {
	if from == to {
		return false
	}
	switch from {
	case RegistrationStatusPending, RegistrationStatusConfirmed:
		return to.Valid()
	case RegistrationStatusCancelled:
		return to.Active()
	}
	return false
}

// Registration is a user's claim on an activity, optionally bound to a
// specific session. SessionID is empty for activity-level registrations.
type Registration struct {
	ID         string
	UserID     string
	ActivityID string
	SessionID  string
	Status     RegistrationStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SessionBound reports whether the registration occupies a session seat.
func (r Registration) SessionBound() bool {
	return r.SessionID != ""
}
