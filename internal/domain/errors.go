// Package domain defines the core entities and business rules for the
// booking service.
package domain

import "errors"

var (
	// ErrNotFound is returned when a referenced activity, session, or
	// registration does not exist or is no longer offered.
	ErrNotFound = errors.New("resource not found")
	// ErrDuplicateRegistration indicates the user already holds a pending or
	// confirmed registration for the activity.
	ErrDuplicateRegistration = errors.New("user already registered for activity")
	// ErrCapacityExceeded indicates the session had no free slot at
	// reservation time. It is a normal business outcome, not a system fault.
	ErrCapacityExceeded = errors.New("session capacity exceeded")
	// ErrInvalidTransition indicates the requested status change is not
	// allowed from the registration's current state.
	ErrInvalidTransition = errors.New("invalid registration status transition")
)
