// Package memory provides in-memory store implementations for local
// development and unit tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"example.com/bookings/internal/domain"
)

// Store holds profiles, activities, and registrations in memory. Session
// occupancy lives in the capacity ledger, not here.
type Store struct {
	mu            sync.RWMutex
	profiles      map[string]domain.UserProfile
	activities    map[string]domain.Activity
	activityOrder []string
	registrations map[string]domain.Registration
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		profiles:      make(map[string]domain.UserProfile),
		activities:    make(map[string]domain.Activity),
		registrations: make(map[string]domain.Registration),
	}
}

// PutProfile registers or replaces a profile.
func (s *Store) PutProfile(profile domain.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.ID] = profile
}

// PutActivity registers or replaces an activity. First-insertion order is
// preserved for listing so ranking tie-breaks stay stable.
func (s *Store) PutActivity(activity domain.Activity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.activities[activity.ID]; !exists {
		s.activityOrder = append(s.activityOrder, activity.ID)
	}
	s.activities[activity.ID] = activity
}

// GetProfile implements recommend.ProfileStore.
func (s *Store) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &profile, nil
}

// GetActivity implements registration.ActivityReader.
func (s *Store) GetActivity(ctx context.Context, id string) (*domain.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	activity, ok := s.activities[id]
	if !ok {
		return nil, nil
	}
	return &activity, nil
}

// ListActiveActivities implements recommend.ActivityCatalog.
func (s *Store) ListActiveActivities(ctx context.Context) ([]domain.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	activities := make([]domain.Activity, 0, len(s.activityOrder))
	for _, id := range s.activityOrder {
		if activity := s.activities[id]; activity.IsActive {
			activities = append(activities, activity)
		}
	}
	return activities, nil
}

// Create implements registration.Store.
func (s *Store) Create(ctx context.Context, registration domain.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registrations[registration.ID] = registration
	return nil
}

// Get implements registration.Store.
func (s *Store) Get(ctx context.Context, id string) (*domain.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	registration, ok := s.registrations[id]
	if !ok {
		return nil, nil
	}
	return &registration, nil
}

// UpdateStatus implements registration.Store.
func (s *Store) UpdateStatus(ctx context.Context, id string, status domain.RegistrationStatus, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	registration, ok := s.registrations[id]
	if !ok {
		return domain.ErrNotFound
	}
	registration.Status = status
	registration.UpdatedAt = updatedAt
	s.registrations[id] = registration
	return nil
}

// FindActiveByUserAndActivity implements registration.Store.
func (s *Store) FindActiveByUserAndActivity(ctx context.Context, userID, activityID string) (*domain.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, registration := range s.registrations {
		if registration.UserID == userID && registration.ActivityID == activityID && registration.Status.Active() {
			r := registration
			return &r, nil
		}
	}
	return nil, nil
}

// ListByUser implements registration.Store, newest first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]domain.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Registration
	for _, registration := range s.registrations {
		if registration.UserID == userID {
			out = append(out, registration)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// CountCompletedByUser implements recommend.CompletionHistory.
func (s *Store) CountCompletedByUser(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, registration := range s.registrations {
		if registration.UserID == userID && registration.Status == domain.RegistrationStatusCompleted {
			count++
		}
	}
	return count, nil
}

// CompletedActivityIDs implements recommend.CompletionHistory.
func (s *Store) CompletedActivityIDs(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	var ids []string
	for _, registration := range s.registrations {
		if registration.UserID != userID || registration.Status != domain.RegistrationStatusCompleted {
			continue
		}
		if _, dup := seen[registration.ActivityID]; dup {
			continue
		}
		seen[registration.ActivityID] = struct{}{}
		ids = append(ids, registration.ActivityID)
	}
	sort.Strings(ids)
	return ids, nil
}
