package domain

// Suggestion is a scored, explained recommendation of an activity for a user.
// Suggestions are derived values and never persisted.
type Suggestion struct {
	Activity   Activity
	Score      float64
	Reasons    []string
	Confidence *float64
}
