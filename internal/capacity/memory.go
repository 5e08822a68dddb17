package capacity

import (
	"context"
	"fmt"
	"sync"

	"example.com/bookings/internal/domain"
)

// MemoryLedger keeps session occupancy in memory for unit tests and the
// memory storage backend. A single mutex makes the check-and-increment
// atomic with respect to concurrent callers.
type MemoryLedger struct {
	mu       sync.Mutex
	sessions map[string]domain.ActivitySession
}

// NewMemoryLedger constructs an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{sessions: make(map[string]domain.ActivitySession)}
}

// PutSession registers or replaces a session. Status is derived from the
// counters rather than trusted from the input.
func (l *MemoryLedger) PutSession(session domain.ActivitySession) {
	l.mu.Lock()
	defer l.mu.Unlock()
	session.Status = statusFor(session.CurrentParticipants, session.MaxParticipants)
	l.sessions[session.ID] = session
}

// Session returns a copy of the stored session.
func (l *MemoryLedger) Session(id string) (domain.ActivitySession, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	session, ok := l.sessions[id]
	return session, ok
}

// TryReserve implements Ledger.
func (l *MemoryLedger) TryReserve(ctx context.Context, sessionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	session, ok := l.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: session %s", domain.ErrNotFound, sessionID)
	}
	if session.CurrentParticipants >= session.MaxParticipants {
		return fmt.Errorf("%w: session %s", domain.ErrCapacityExceeded, sessionID)
	}

	session.CurrentParticipants++
	session.Status = statusFor(session.CurrentParticipants, session.MaxParticipants)
	l.sessions[sessionID] = session
	return nil
}

// Release implements Ledger.
func (l *MemoryLedger) Release(ctx context.Context, sessionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	session, ok := l.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: session %s", domain.ErrNotFound, sessionID)
	}
	if session.CurrentParticipants > 0 {
		session.CurrentParticipants--
	}
	session.Status = statusFor(session.CurrentParticipants, session.MaxParticipants)
	l.sessions[sessionID] = session
	return nil
}

func statusFor(current, max int) domain.SessionStatus {
	if current >= max {
		return domain.SessionStatusFull
	}
	return domain.SessionStatusOpen
}
