package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/bookings/internal/domain"
)

// Ledger implements capacity.Ledger on top of Postgres. Each call locks the
// session row with SELECT ... FOR UPDATE so the read, the bound check, and
// the write form one atomic unit; two callers can never jointly claim the
// last slot.
type Ledger struct {
	pool *pgxpool.Pool
}

// NewLedger constructs a Ledger.
func NewLedger(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

// TryReserve claims one slot or fails with domain.ErrCapacityExceeded.
func (l *Ledger) TryReserve(ctx context.Context, sessionID string) error {
	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const lock = `SELECT current_participants, max_participants FROM activity_sessions
        WHERE session_id=$1 FOR UPDATE`

	var current, max int
	if err := tx.QueryRow(ctx, lock, sessionID).Scan(&current, &max); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: session %s", domain.ErrNotFound, sessionID)
		}
		return err
	}

	if current >= max {
		return fmt.Errorf("%w: session %s", domain.ErrCapacityExceeded, sessionID)
	}

	const update = `UPDATE activity_sessions
        SET current_participants=$1,
            status=CASE WHEN $1 >= max_participants THEN 'full' ELSE 'open' END
        WHERE session_id=$2`

	if _, err := tx.Exec(ctx, update, current+1, sessionID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Release frees one slot, flooring at zero and reopening a full session.
func (l *Ledger) Release(ctx context.Context, sessionID string) error {
	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const lock = `SELECT current_participants FROM activity_sessions
        WHERE session_id=$1 FOR UPDATE`

	var current int
	if err := tx.QueryRow(ctx, lock, sessionID).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: session %s", domain.ErrNotFound, sessionID)
		}
		return err
	}

	if current > 0 {
		current--
	}

	const update = `UPDATE activity_sessions
        SET current_participants=$1,
            status=CASE WHEN $1 >= max_participants THEN 'full' ELSE 'open' END
        WHERE session_id=$2`

	if _, err := tx.Exec(ctx, update, current, sessionID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetSession reads a session snapshot, or nil when absent.
func (l *Ledger) GetSession(ctx context.Context, sessionID string) (*domain.ActivitySession, error) {
	const query = `SELECT session_id, activity_id, starts_at, max_participants, current_participants, status
        FROM activity_sessions WHERE session_id=$1`

	var session domain.ActivitySession
	err := l.pool.QueryRow(ctx, query, sessionID).Scan(&session.ID, &session.ActivityID, &session.StartsAt,
		&session.MaxParticipants, &session.CurrentParticipants, &session.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}
