// Package recommend implements the rule-based activity matcher, the AI
// augmentation adapter, and the ranking orchestration built on both.
package recommend

import (
	"fmt"
	"strings"

	"example.com/bookings/internal/domain"
)

// Scoring weights for the rule-based matcher. The output score is additive
// and uncapped.
const (
	skillMatchPoints        = 15
	categoryMatchPoints     = 25
	shortActivityPoints     = 10
	durationMatchPoints     = 5
	safetyMatchPoints       = 10
	difficultyMatchPoints   = 8
	availabilityBonusPoints = 15
)

// Completion thresholds separating newcomers from seasoned participants.
const (
	newcomerCompletions    = 3
	experiencedCompletions = 5
)

// Eligible reports whether an activity may be scored for the profile at all.
// Ineligible activities are excluded before scoring rather than scored at 0.
func Eligible(profile domain.UserProfile, activity domain.Activity) bool {
	return activity.IsActive
}

// Score computes the deterministic rule-based match score for a profile and
// activity, together with the ordered human-readable reasons that explain it.
// Same inputs always produce the same score and reason order.
func Score(profile domain.UserProfile, activity domain.Activity, priorCompletions int) (float64, []string) {
	var score float64
	var reasons []string

	skills := make(map[string]struct{}, len(profile.Skills))
	for _, s := range profile.Skills {
		skills[s] = struct{}{}
	}
	// Overlap is reported in the order tags appear on the activity so the
	// reason string is stable regardless of profile ordering.
	var overlap []string
	for _, tag := range activity.SkillTags {
		if _, ok := skills[tag]; ok {
			overlap = append(overlap, tag)
		}
	}
	if len(overlap) > 0 {
		score += float64(len(overlap) * skillMatchPoints)
		reasons = append(reasons, fmt.Sprintf("builds on skills you already have: %s", strings.Join(overlap, ", ")))
	}

	for _, pref := range profile.Preferences {
		if pref == activity.Category {
			score += categoryMatchPoints
			reasons = append(reasons, fmt.Sprintf("matches your interest in %s", activity.Category))
			break
		}
	}

	if priorCompletions < newcomerCompletions && activity.DurationMin <= 90 {
		score += shortActivityPoints
		reasons = append(reasons, "short activity, good for starting")
	}
	if priorCompletions >= newcomerCompletions && activity.DurationMin > 90 {
		score += durationMatchPoints
		reasons = append(reasons, "duration matches your experience")
	}

	if priorCompletions < experiencedCompletions && activity.SafetyLevel <= 2 {
		score += safetyMatchPoints
		if activity.SafetyLevel == 1 {
			reasons = append(reasons, "no particular risk")
		}
	}

	if priorCompletions < newcomerCompletions && activity.DifficultyLevel <= 2 {
		score += difficultyMatchPoints
	}
	if priorCompletions >= experiencedCompletions && activity.DifficultyLevel >= 3 {
		score += difficultyMatchPoints
	}

	// Coarse presence check only: the profile declares some availability, we
	// do not attempt calendar overlap against session times.
	if len(profile.Availability) > 0 {
		score += availabilityBonusPoints
		reasons = append(reasons, "compatible with your availability")
	}

	return score, reasons
}
