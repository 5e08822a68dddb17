package recommend

import (
	"context"
	"fmt"

	"example.com/bookings/internal/domain"
)

// ProfileStore reads user profiles owned by the identity collaborator.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error)
}

// ActivityCatalog lists the activities open for booking.
type ActivityCatalog interface {
	ListActiveActivities(ctx context.Context) ([]domain.Activity, error)
}

// CompletionHistory reads the user's completed registrations.
type CompletionHistory interface {
	CountCompletedByUser(ctx context.Context, userID string) (int, error)
	CompletedActivityIDs(ctx context.Context, userID string) ([]string, error)
}

// Service assembles the inputs for a ranking request: the profile, the
// completion history that drives the experience-sensitive rules, and the
// candidate set minus activities already completed.
type Service struct {
	profiles   ProfileStore
	activities ActivityCatalog
	history    CompletionHistory
	ranker     *Ranker
}

// NewService constructs a Service.
func NewService(profiles ProfileStore, activities ActivityCatalog, history CompletionHistory, ranker *Ranker) *Service {
	return &Service{
		profiles:   profiles,
		activities: activities,
		history:    history,
		ranker:     ranker,
	}
}

// Recommend produces up to limit suggestions for the user. AI unavailability
// never fails the request; it only degrades scores to the rule-based values.
func (s *Service) Recommend(ctx context.Context, userID string, limit int, useAI bool) ([]domain.Suggestion, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: profile %s", domain.ErrNotFound, userID)
	}

	completions, err := s.history.CountCompletedByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count completions: %w", err)
	}

	completedIDs, err := s.history.CompletedActivityIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list completed activities: %w", err)
	}
	exclude := make(map[string]struct{}, len(completedIDs))
	for _, id := range completedIDs {
		exclude[id] = struct{}{}
	}

	candidates, err := s.activities.ListActiveActivities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}

	return s.ranker.Rank(ctx, *profile, candidates, completions, exclude, limit, useAI), nil
}
