// Package events defines the payloads published for registration lifecycle
// changes.
package events

import "time"

// RegistrationCreated is emitted when a new registration is accepted.
type RegistrationCreated struct {
	RegistrationID string    `json:"registration_id"`
	UserID         string    `json:"user_id"`
	ActivityID     string    `json:"activity_id"`
	SessionID      string    `json:"session_id,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// RegistrationStatusChanged tracks lifecycle transitions so downstream
// consumers (notifications, attendance stats) can react without polling.
type RegistrationStatusChanged struct {
	RegistrationID string    `json:"registration_id"`
	UserID         string    `json:"user_id"`
	ActivityID     string    `json:"activity_id"`
	SessionID      string    `json:"session_id,omitempty"`
	Status         string    `json:"status"`
	OccurredAt     time.Time `json:"occurred_at"`
}
