// Package postgres provides Postgres-backed persistence for profiles,
// activities, registrations, and the outbox.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/bookings/internal/domain"
	"example.com/bookings/internal/events"
	"example.com/bookings/internal/observability"
)

// Repository implements the store interfaces consumed by the recommendation
// and registration services.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetProfile reads the user's profile view, or nil when the user is unknown.
func (r *Repository) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	const query = `SELECT user_id, skills, preferences, availability, experience_level, COALESCE(location, '')
        FROM user_profiles WHERE user_id=$1`

	row := r.pool.QueryRow(ctx, query, userID)
	var profile domain.UserProfile
	if err := row.Scan(&profile.ID, &profile.Skills, &profile.Preferences, &profile.Availability, &profile.Experience, &profile.Location); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

const activityColumns = `activity_id, name, category, skill_tags, duration_min, safety_level, difficulty_level, is_active`

func scanActivity(row pgx.Row) (*domain.Activity, error) {
	var activity domain.Activity
	if err := row.Scan(&activity.ID, &activity.Name, &activity.Category, &activity.SkillTags,
		&activity.DurationMin, &activity.SafetyLevel, &activity.DifficultyLevel, &activity.IsActive); err != nil {
		return nil, err
	}
	return &activity, nil
}

// GetActivity retrieves an activity by ID, or nil when absent.
func (r *Repository) GetActivity(ctx context.Context, id string) (*domain.Activity, error) {
	query := fmt.Sprintf(`SELECT %s FROM activities WHERE activity_id=$1`, activityColumns)

	activity, err := scanActivity(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return activity, err
}

// ListActiveActivities returns all bookable activities in insertion order so
// ranking tie-breaks stay reproducible across calls.
func (r *Repository) ListActiveActivities(ctx context.Context) ([]domain.Activity, error) {
	query := fmt.Sprintf(`SELECT %s FROM activities WHERE is_active ORDER BY created_at, activity_id`, activityColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []domain.Activity
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *activity)
	}
	return activities, rows.Err()
}

const registrationColumns = `registration_id, user_id, activity_id, COALESCE(session_id, ''), status, created_at, updated_at`

func scanRegistration(row pgx.Row) (*domain.Registration, error) {
	var registration domain.Registration
	if err := row.Scan(&registration.ID, &registration.UserID, &registration.ActivityID,
		&registration.SessionID, &registration.Status, &registration.CreatedAt, &registration.UpdatedAt); err != nil {
		return nil, err
	}
	return &registration, nil
}

// Create persists the registration and records the created event in the
// outbox inside a single transaction.
func (r *Repository) Create(ctx context.Context, registration domain.Registration) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const insert = `INSERT INTO registrations (registration_id, user_id, activity_id, session_id, status, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err = tx.Exec(ctx, insert,
		registration.ID,
		registration.UserID,
		registration.ActivityID,
		nullIfEmpty(registration.SessionID),
		registration.Status,
		registration.CreatedAt,
		registration.UpdatedAt,
	)
	if err != nil {
		// The partial unique index on active registrations backs up the
		// service-level duplicate check under concurrent creates.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			err = fmt.Errorf("%w: activity %s", domain.ErrDuplicateRegistration, registration.ActivityID)
		}
		return err
	}

	if err = r.insertOutbox(ctx, tx, registration, "registration.created", events.RegistrationCreated{
		RegistrationID: registration.ID,
		UserID:         registration.UserID,
		ActivityID:     registration.ActivityID,
		SessionID:      registration.SessionID,
		Status:         string(registration.Status),
		CreatedAt:      registration.CreatedAt,
	}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordRegistrationPersisted(registration.CreatedAt)
	return nil
}

// Get retrieves a registration by ID, or nil when absent.
func (r *Repository) Get(ctx context.Context, id string) (*domain.Registration, error) {
	query := fmt.Sprintf(`SELECT %s FROM registrations WHERE registration_id=$1`, registrationColumns)

	registration, err := scanRegistration(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return registration, err
}

// UpdateStatus writes the new status and the matching outbox event in one
// transaction.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status domain.RegistrationStatus, updatedAt time.Time) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	query := fmt.Sprintf(`UPDATE registrations SET status=$1, updated_at=$2 WHERE registration_id=$3
        RETURNING %s`, registrationColumns)

	registration, err := scanRegistration(tx.QueryRow(ctx, query, status, updatedAt, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = fmt.Errorf("%w: registration %s", domain.ErrNotFound, id)
		}
		return err
	}

	if err = r.insertOutbox(ctx, tx, *registration, "registration.status_changed", events.RegistrationStatusChanged{
		RegistrationID: registration.ID,
		UserID:         registration.UserID,
		ActivityID:     registration.ActivityID,
		SessionID:      registration.SessionID,
		Status:         string(status),
		OccurredAt:     updatedAt,
	}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordStatusChanged(updatedAt)
	return nil
}

// FindActiveByUserAndActivity returns the user's pending or confirmed
// registration for the activity, or nil.
func (r *Repository) FindActiveByUserAndActivity(ctx context.Context, userID, activityID string) (*domain.Registration, error) {
	query := fmt.Sprintf(`SELECT %s FROM registrations
        WHERE user_id=$1 AND activity_id=$2 AND status IN ('pending','confirmed')
        LIMIT 1`, registrationColumns)

	registration, err := scanRegistration(r.pool.QueryRow(ctx, query, userID, activityID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return registration, err
}

// ListByUser returns the user's registrations, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.Registration, error) {
	query := fmt.Sprintf(`SELECT %s FROM registrations WHERE user_id=$1 ORDER BY created_at DESC, registration_id DESC`, registrationColumns)

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var registrations []domain.Registration
	for rows.Next() {
		registration, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		registrations = append(registrations, *registration)
	}
	return registrations, rows.Err()
}

// CountCompletedByUser counts the user's completed registrations.
func (r *Repository) CountCompletedByUser(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM registrations WHERE user_id=$1 AND status='completed'`

	var count int
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// CompletedActivityIDs lists the distinct activities the user has completed.
func (r *Repository) CompletedActivityIDs(ctx context.Context, userID string) ([]string, error) {
	const query = `SELECT DISTINCT activity_id FROM registrations WHERE user_id=$1 AND status='completed'`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) insertOutbox(ctx context.Context, tx pgx.Tx, registration domain.Registration, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta := eventCatalog[eventType]
	if meta.Topic == "" {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	dedupeKey := fmt.Sprintf("%s:%s:%s", registration.ID, eventType, registration.UpdatedAt.UTC().Format(time.RFC3339Nano))

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err = tx.Exec(ctx, stmt,
		"registration",
		registration.ID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		meta.PartitionKeyFn(registration),
		body,
		dedupeKey,
	)
	return err
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic          string
	SchemaSubject  string
	PartitionKeyFn func(domain.Registration) string
}

var eventCatalog = map[string]EventMetadata{
	"registration.created": {
		Topic:         "registration_events",
		SchemaSubject: "registration_events-value",
		PartitionKeyFn: func(r domain.Registration) string {
			return fmt.Sprintf("%s:%s", r.UserID, r.ActivityID)
		},
	},
	"registration.status_changed": {
		Topic:         "registration_status_changed",
		SchemaSubject: "registration_status_changed-value",
		PartitionKeyFn: func(r domain.Registration) string {
			return r.ID
		},
	},
}
