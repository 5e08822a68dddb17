package recommend

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"example.com/bookings/internal/domain"
)

// Ranker turns a candidate activity set into an ordered suggestion list.
// Candidates are scored independently; when augmentation is enabled the AI
// calls fan out with bounded parallelism under the caller's deadline.
type Ranker struct {
	augmenter   *Augmenter
	parallelism int
}

// NewRanker constructs a Ranker. A nil augmenter disables AI blending even
// when callers request it.
func NewRanker(augmenter *Augmenter, parallelism int) *Ranker {
	if parallelism <= 0 {
		parallelism = 4
	}
	return &Ranker{augmenter: augmenter, parallelism: parallelism}
}

// Rank scores each eligible candidate not present in exclude, sorts the
// results by score descending with a stable tie-break on input order, and
// truncates to limit. The input slice is never mutated.
func (r *Ranker) Rank(ctx context.Context, profile domain.UserProfile, candidates []domain.Activity, priorCompletions int, exclude map[string]struct{}, limit int, useAI bool) []domain.Suggestion {
	start := time.Now()
	defer func() { rankDuration.Observe(time.Since(start).Seconds()) }()

	suggestions := make([]domain.Suggestion, 0, len(candidates))
	for _, activity := range candidates {
		if _, skip := exclude[activity.ID]; skip {
			continue
		}
		if !Eligible(profile, activity) {
			continue
		}
		score, reasons := Score(profile, activity, priorCompletions)
		suggestions = append(suggestions, domain.Suggestion{
			Activity: activity,
			Score:    score,
			Reasons:  reasons,
		})
	}

	if useAI && r.augmenter != nil {
		r.augmentAll(ctx, profile, priorCompletions, suggestions)
	}

	// Stable sort keeps input order for equal scores, which makes fixture
	// output reproducible.
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})

	if limit > 0 && len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}

// augmentAll runs the adapter for every suggestion in place. Each goroutine
// writes only its own index, and Augment never returns an error, so the
// group always completes; a candidate whose call misses the shared deadline
// simply keeps its base score.
func (r *Ranker) augmentAll(ctx context.Context, profile domain.UserProfile, priorCompletions int, suggestions []domain.Suggestion) {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.parallelism)

	for i := range suggestions {
		i := i
		group.Go(func() error {
			s := &suggestions[i]
			s.Score, s.Reasons, s.Confidence = r.augmenter.Augment(groupCtx, profile, s.Activity, s.Score, s.Reasons)
			return nil
		})
	}
	_ = group.Wait()
}
