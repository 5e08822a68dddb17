package recommend

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/bookings/internal/domain"
)

func candidateActivities() []domain.Activity {
	return []domain.Activity{
		{
			ID:              "act-goat",
			Name:            "Goat care basics",
			Category:        "agri",
			SkillTags:       []string{"elevage"},
			DurationMin:     60,
			SafetyLevel:     1,
			DifficultyLevel: 1,
			IsActive:        true,
		},
		{
			ID:              "act-wood",
			Name:            "Intro to woodworking",
			Category:        "craft",
			SkillTags:       []string{"menuiserie"},
			DurationMin:     120,
			SafetyLevel:     2,
			DifficultyLevel: 2,
			IsActive:        true,
		},
		{
			ID:              "act-closed",
			Name:            "Retired workshop",
			Category:        "agri",
			SkillTags:       []string{"elevage"},
			DurationMin:     60,
			SafetyLevel:     1,
			DifficultyLevel: 1,
			IsActive:        false,
		},
	}
}

func TestRankOrdersByScoreAndSkipsIneligible(t *testing.T) {
	ranker := NewRanker(nil, 2)

	got := ranker.Rank(context.Background(), beginnerProfile(), candidateActivities(), 0, nil, 10, false)

	require.Len(t, got, 2)
	require.Equal(t, "act-goat", got[0].Activity.ID)
	require.Equal(t, "act-wood", got[1].Activity.ID)
	require.Greater(t, got[0].Score, got[1].Score)
}

func TestRankRespectsLimitAndExclusions(t *testing.T) {
	ranker := NewRanker(nil, 2)
	exclude := map[string]struct{}{"act-goat": {}}

	got := ranker.Rank(context.Background(), beginnerProfile(), candidateActivities(), 0, exclude, 1, false)

	require.Len(t, got, 1)
	require.Equal(t, "act-wood", got[0].Activity.ID)
}

func TestRankStableTieBreakFollowsInputOrder(t *testing.T) {
	// Identical activities under different IDs score identically; the stable
	// sort must keep them in the order they were supplied.
	base := candidateActivities()[0]
	var candidates []domain.Activity
	for i := 0; i < 4; i++ {
		dup := base
		dup.ID = fmt.Sprintf("act-%d", i)
		candidates = append(candidates, dup)
	}

	ranker := NewRanker(nil, 2)
	got := ranker.Rank(context.Background(), beginnerProfile(), candidates, 0, nil, 10, false)

	require.Len(t, got, 4)
	for i, s := range got {
		require.Equal(t, fmt.Sprintf("act-%d", i), s.Activity.ID)
	}
}

func TestRankFallbackMatchesMatcherOnlyRanking(t *testing.T) {
	// If the AI service always errors, the ranked output must be identical
	// to the pure rule-based ranking.
	failing := &stubCompleter{err: errors.New("service down")}
	augmenter := NewAugmenter(failing, time.Second, WithAugmenterLogger(quietLogger()))

	withAI := NewRanker(augmenter, 4)
	withoutAI := NewRanker(nil, 4)

	profile := beginnerProfile()
	profile.Availability = []string{"weekend"}

	augmented := withAI.Rank(context.Background(), profile, candidateActivities(), 1, nil, 10, true)
	pure := withoutAI.Rank(context.Background(), profile, candidateActivities(), 1, nil, 10, false)

	require.Equal(t, pure, augmented)
	require.Greater(t, failing.calls, 0)
}

func TestRankBlendsAIScores(t *testing.T) {
	completer := &stubCompleter{response: `{"score": 100, "reasons": ["ai pick"]}`}
	augmenter := NewAugmenter(completer, time.Second, WithAugmenterLogger(quietLogger()))
	ranker := NewRanker(augmenter, 4)

	got := ranker.Rank(context.Background(), beginnerProfile(), candidateActivities()[:1], 0, nil, 10, true)

	require.Len(t, got, 1)
	// Base 68 blended with AI 100.
	require.Equal(t, 84.0, got[0].Score)
	require.Equal(t, "ai pick", got[0].Reasons[len(got[0].Reasons)-1])
}

func TestRankDoesNotMutateCandidates(t *testing.T) {
	candidates := candidateActivities()
	snapshot := make([]domain.Activity, len(candidates))
	copy(snapshot, candidates)

	ranker := NewRanker(nil, 2)
	ranker.Rank(context.Background(), beginnerProfile(), candidates, 0, nil, 10, false)

	require.Equal(t, snapshot, candidates)
}

type fakeProfileStore struct{ profile *domain.UserProfile }

func (f *fakeProfileStore) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	return f.profile, nil
}

type fakeCatalog struct{ activities []domain.Activity }

func (f *fakeCatalog) ListActiveActivities(ctx context.Context) ([]domain.Activity, error) {
	return f.activities, nil
}

type fakeHistory struct {
	completions  int
	completedIDs []string
}

func (f *fakeHistory) CountCompletedByUser(ctx context.Context, userID string) (int, error) {
	return f.completions, nil
}

func (f *fakeHistory) CompletedActivityIDs(ctx context.Context, userID string) ([]string, error) {
	return f.completedIDs, nil
}

func TestServiceRecommendExcludesCompletedActivities(t *testing.T) {
	profile := beginnerProfile()
	service := NewService(
		&fakeProfileStore{profile: &profile},
		&fakeCatalog{activities: candidateActivities()},
		&fakeHistory{completions: 1, completedIDs: []string{"act-goat"}},
		NewRanker(nil, 2),
	)

	got, err := service.Recommend(context.Background(), "user-1", 10, false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "act-wood", got[0].Activity.ID)
}

func TestServiceRecommendUnknownProfile(t *testing.T) {
	service := NewService(
		&fakeProfileStore{},
		&fakeCatalog{},
		&fakeHistory{},
		NewRanker(nil, 2),
	)

	_, err := service.Recommend(context.Background(), "ghost", 10, false)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
