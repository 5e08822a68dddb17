package domain

// ExperienceLevel classifies how seasoned a participant is.
type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceAdvanced     ExperienceLevel = "advanced"
)

// UserProfile is the read-only view of a user maintained by the identity
// service. The booking service never writes profiles.
type UserProfile struct {
	ID           string
	Skills       []string
	Preferences  []string
	Availability []string
	Experience   ExperienceLevel
	Location     string
}
