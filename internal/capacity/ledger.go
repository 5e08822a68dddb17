// Package capacity owns the seat-counting invariant for activity sessions.
// ActivitySession.CurrentParticipants and Status are mutated only through a
// Ledger implementation; every call leaves 0 <= current <= max and keeps
// status full exactly when current == max.
package capacity

import "context"

// Ledger reserves and releases session slots atomically. TryReserve must
// never allow two callers to jointly claim the last slot; the read, the
// bound check, and the increment form a single atomic unit.
type Ledger interface {
	// TryReserve claims one slot. It returns domain.ErrCapacityExceeded when
	// the session is full and domain.ErrNotFound when the session does not
	// exist; on either error the counter is unchanged.
	TryReserve(ctx context.Context, sessionID string) error
	// Release frees one slot, flooring the counter at zero and reopening a
	// full session. It pairs 1:1 with a prior successful TryReserve.
	Release(ctx context.Context, sessionID string) error
}
