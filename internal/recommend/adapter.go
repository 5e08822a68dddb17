package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"example.com/bookings/internal/domain"
)

// Completer abstracts the external text-generation service. Implementations
// are expected to be safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Augmenter blends the rule-based score with a score produced by an external
// AI service. Augmentation is strictly best-effort: every failure mode falls
// back to the base score and reasons without surfacing an error.
type Augmenter struct {
	completer Completer
	timeout   time.Duration
	logger    *log.Logger
}

// AugmenterOption customises Augmenter construction.
type AugmenterOption func(*Augmenter)

// WithAugmenterLogger overrides the default logger.
func WithAugmenterLogger(logger *log.Logger) AugmenterOption {
	return func(a *Augmenter) { a.logger = logger }
}

// NewAugmenter constructs an Augmenter. The timeout bounds each individual
// completion call in addition to any deadline already on the context.
func NewAugmenter(completer Completer, timeout time.Duration, opts ...AugmenterOption) *Augmenter {
	a := &Augmenter{
		completer: completer,
		timeout:   timeout,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// aiAssessment is the shape the service is asked to produce. The response is
// untrusted and parsed defensively.
type aiAssessment struct {
	Score      float64  `json:"score"`
	Reasons    []string `json:"reasons"`
	Confidence *float64 `json:"confidence"`
}

// Augment returns the blended score and combined reason list. The final score
// is the arithmetic mean of the base score and the AI score; the final reason
// list is the base reasons followed by the AI reasons. On any failure the base
// values are returned unchanged and the failure is counted, never propagated.
func (a *Augmenter) Augment(ctx context.Context, profile domain.UserProfile, activity domain.Activity, baseScore float64, baseReasons []string) (float64, []string, *float64) {
	aiRequestsCounter.Inc()

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.completer.Complete(callCtx, buildPrompt(profile, activity))
	if err != nil {
		a.fallback("complete", err)
		return baseScore, baseReasons, nil
	}

	assessment, err := parseAssessment(raw)
	if err != nil {
		a.fallback("parse", err)
		return baseScore, baseReasons, nil
	}

	final := (baseScore + assessment.Score) / 2
	reasons := make([]string, 0, len(baseReasons)+len(assessment.Reasons))
	reasons = append(reasons, baseReasons...)
	reasons = append(reasons, assessment.Reasons...)
	return final, reasons, assessment.Confidence
}

func (a *Augmenter) fallback(stage string, err error) {
	aiFallbacksCounter.WithLabelValues(stage).Inc()
	if errors.Is(err, context.DeadlineExceeded) {
		a.logger.Printf("recommend: ai augmentation timed out, using base score: %v", err)
		return
	}
	a.logger.Printf("recommend: ai augmentation failed at %s, using base score: %v", stage, err)
}

func buildPrompt(profile domain.UserProfile, activity domain.Activity) string {
	var b strings.Builder
	b.WriteString("Rate how well this activity suits the participant on a 0-100 scale.\n")
	b.WriteString("Respond with a JSON object: {\"score\": <number>, \"reasons\": [<short strings>], \"confidence\": <0-1>}.\n")
	fmt.Fprintf(&b, "Participant skills: %s\n", strings.Join(profile.Skills, ", "))
	fmt.Fprintf(&b, "Participant interests: %s\n", strings.Join(profile.Preferences, ", "))
	fmt.Fprintf(&b, "Participant experience: %s\n", profile.Experience)
	fmt.Fprintf(&b, "Activity: %s (category %s)\n", activity.Name, activity.Category)
	fmt.Fprintf(&b, "Skills taught: %s\n", strings.Join(activity.SkillTags, ", "))
	fmt.Fprintf(&b, "Duration: %d minutes, safety level %d, difficulty level %d\n",
		activity.DurationMin, activity.SafetyLevel, activity.DifficultyLevel)
	return b.String()
}

// parseAssessment extracts the JSON object from the raw completion text. The
// model may wrap the object in prose, so parsing scans for the outermost
// braces rather than decoding the payload as-is.
func parseAssessment(raw string) (aiAssessment, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return aiAssessment{}, fmt.Errorf("no JSON object in response")
	}

	var assessment aiAssessment
	if err := json.Unmarshal([]byte(raw[start:end+1]), &assessment); err != nil {
		return aiAssessment{}, fmt.Errorf("malformed assessment: %w", err)
	}

	if assessment.Score < 0 || assessment.Score > 100 {
		return aiAssessment{}, fmt.Errorf("score %v outside [0,100]", assessment.Score)
	}
	if assessment.Confidence != nil && (*assessment.Confidence < 0 || *assessment.Confidence > 1) {
		assessment.Confidence = nil
	}
	return assessment, nil
}
