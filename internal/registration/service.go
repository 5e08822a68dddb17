// Package registration implements the lifecycle state machine over
// registrations and its capacity side effects.
package registration

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"example.com/bookings/internal/capacity"
	"example.com/bookings/internal/domain"
	"example.com/bookings/internal/observability"
)

// Store captures registration persistence operations.
type Store interface {
	Create(ctx context.Context, registration domain.Registration) error
	Get(ctx context.Context, id string) (*domain.Registration, error)
	UpdateStatus(ctx context.Context, id string, status domain.RegistrationStatus, updatedAt time.Time) error
	// FindActiveByUserAndActivity returns the user's pending or confirmed
	// registration for the activity, or nil when none exists.
	FindActiveByUserAndActivity(ctx context.Context, userID, activityID string) (*domain.Registration, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Registration, error)
}

// ActivityReader resolves activities referenced by registrations.
type ActivityReader interface {
	GetActivity(ctx context.Context, id string) (*domain.Activity, error)
}

// Service enforces the registration lifecycle. Capacity mutations always go
// through the ledger, and a transition's capacity effect is compensated when
// the subsequent status write fails so no partial state survives.
type Service struct {
	store      Store
	activities ActivityReader
	ledger     capacity.Ledger
	logger     *log.Logger
}

// Option customises Service construction.
type Option func(*Service)

// WithLogger overrides the default logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService constructs a Service.
func NewService(store Store, activities ActivityReader, ledger capacity.Ledger, opts ...Option) *Service {
	s := &Service{
		store:      store,
		activities: activities,
		ledger:     ledger,
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInput carries the payload for a new registration.
type CreateInput struct {
	UserID     string
	ActivityID string
	SessionID  string
}

// Create registers the user for an activity in the pending state. When a
// session is specified the slot is reserved before the row is written; a
// failed write releases the reservation again.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Registration, error) {
	activity, err := s.activities.GetActivity(ctx, input.ActivityID)
	if err != nil {
		return nil, fmt.Errorf("load activity: %w", err)
	}
	if activity == nil || !activity.IsActive {
		return nil, fmt.Errorf("%w: activity %s", domain.ErrNotFound, input.ActivityID)
	}

	existing, err := s.store.FindActiveByUserAndActivity(ctx, input.UserID, input.ActivityID)
	if err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: activity %s", domain.ErrDuplicateRegistration, input.ActivityID)
	}

	if input.SessionID != "" {
		if err := s.ledger.TryReserve(ctx, input.SessionID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	registration := domain.Registration{
		ID:         uuid.NewString(),
		UserID:     input.UserID,
		ActivityID: input.ActivityID,
		SessionID:  input.SessionID,
		Status:     domain.RegistrationStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.Create(ctx, registration); err != nil {
		s.compensateReserve(ctx, input.SessionID)
		return nil, fmt.Errorf("persist registration: %w", err)
	}
	return &registration, nil
}

// UpdateStatus applies a lifecycle transition. Moves out of the active set
// release the bound session slot; moves back in reserve one again after
// re-checking the duplicate rule. Terminal registrations reject every
// further transition.
func (s *Service) UpdateStatus(ctx context.Context, id string, next domain.RegistrationStatus) (*domain.Registration, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidTransition, next)
	}

	registration, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load registration: %w", err)
	}
	if registration == nil {
		return nil, fmt.Errorf("%w: registration %s", domain.ErrNotFound, id)
	}

	current := registration.Status
	if !domain.CanTransition(current, next) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current, next)
	}

	entering := !current.Active() && next.Active()
	leaving := current.Active() && !next.Active()

	if entering {
		// Reactivation re-runs the uniqueness rule: the user may have
		// registered again for the activity in the meantime.
		other, err := s.store.FindActiveByUserAndActivity(ctx, registration.UserID, registration.ActivityID)
		if err != nil {
			return nil, fmt.Errorf("duplicate check: %w", err)
		}
		if other != nil && other.ID != registration.ID {
			return nil, fmt.Errorf("%w: activity %s", domain.ErrDuplicateRegistration, registration.ActivityID)
		}
		if registration.SessionBound() {
			if err := s.ledger.TryReserve(ctx, registration.SessionID); err != nil {
				return nil, err
			}
		}
	}

	if leaving && registration.SessionBound() {
		if err := s.ledger.Release(ctx, registration.SessionID); err != nil {
			return nil, fmt.Errorf("release session slot: %w", err)
		}
	}

	now := time.Now().UTC()
	if err := s.store.UpdateStatus(ctx, registration.ID, next, now); err != nil {
		// Undo the capacity effect so the failed transition leaves the
		// pre-transition state behind.
		if registration.SessionBound() {
			if entering {
				s.compensateReserve(ctx, registration.SessionID)
			}
			if leaving {
				if reserveErr := s.ledger.TryReserve(ctx, registration.SessionID); reserveErr != nil {
					s.logger.Printf("registration: failed to restore slot for session %s after status write error: %v",
						registration.SessionID, reserveErr)
				}
			}
		}
		return nil, fmt.Errorf("persist status: %w", err)
	}

	observability.RecordStatusTransition(string(next))
	registration.Status = next
	registration.UpdatedAt = now
	return registration, nil
}

// Get returns a registration by ID.
func (s *Service) Get(ctx context.Context, id string) (*domain.Registration, error) {
	registration, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if registration == nil {
		return nil, fmt.Errorf("%w: registration %s", domain.ErrNotFound, id)
	}
	return registration, nil
}

// ListByUser returns all registrations held by the user.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]domain.Registration, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *Service) compensateReserve(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	if err := s.ledger.Release(ctx, sessionID); err != nil {
		s.logger.Printf("registration: failed to release session %s after persistence error: %v", sessionID, err)
	}
}
