package domain

import "time"

// Activity represents a bookable workshop offering. Activities are treated as
// immutable snapshots while a ranking or registration operation is in flight.
type Activity struct {
	ID              string
	Name            string
	Category        string
	SkillTags       []string
	DurationMin     int
	SafetyLevel     int // 1 is the safest
	DifficultyLevel int
	IsActive        bool
}

// SessionStatus tracks whether a session can still accept participants.
type SessionStatus string

const (
	SessionStatusOpen SessionStatus = "open"
	SessionStatusFull SessionStatus = "full"
)

// ActivitySession is a scheduled instance of an activity with a fixed
// capacity. CurrentParticipants and Status are owned exclusively by the
// capacity ledger; no other component writes them.
type ActivitySession struct {
	ID                  string
	ActivityID          string
	StartsAt            time.Time
	MaxParticipants     int
	CurrentParticipants int
	Status              SessionStatus
}
