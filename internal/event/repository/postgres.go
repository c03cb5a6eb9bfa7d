package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"insider-sentinel/monitor/internal/event/domain"
)

// unconsumedPredicate is the WHERE clause shared by CountUnconsumed,
// ListUnconsumed, and MarkConsumed. Keeping it a single constant guarantees
// the mark step consumes exactly the rows the count step saw.
const unconsumedPredicate = `subject_id = $1 AND category = $2 AND occurred_at >= $3 AND NOT consumed`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an event repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append persists the event to the database. It sets e.ID on success.
func (r *PostgresRepository) Append(ctx context.Context, e *domain.Event) error {
	const q = `INSERT INTO events (subject_id, category, label, kind, session_id, device_name, occurred_at, consumed)
VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)
RETURNING id`
	err := r.db.QueryRowContext(ctx, q,
		e.SubjectID, string(e.Category), e.Label, string(e.Kind),
		nullStringFromPtr(e.SessionID), e.DeviceName, e.OccurredAt.UTC(),
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("%w: append: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// CountUnconsumed counts unconsumed events for subject+category within the window.
func (r *PostgresRepository) CountUnconsumed(ctx context.Context, subjectID string, category domain.Category, windowStart time.Time) (int, error) {
	q := `SELECT COUNT(*) FROM events WHERE ` + unconsumedPredicate
	var n int
	if err := r.db.QueryRowContext(ctx, q, subjectID, string(category), windowStart.UTC()).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count: %v", ErrStoreUnavailable, err)
	}
	return n, nil
}

// ListUnconsumed returns unconsumed events for subject+category within the window, oldest first.
func (r *PostgresRepository) ListUnconsumed(ctx context.Context, subjectID string, category domain.Category, windowStart time.Time) ([]*domain.Event, error) {
	q := `SELECT id, subject_id, category, label, kind, session_id, device_name, occurred_at, consumed
FROM events WHERE ` + unconsumedPredicate + ` ORDER BY occurred_at`
	rows, err := r.db.QueryContext(ctx, q, subjectID, string(category), windowStart.UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []*domain.Event
	for rows.Next() {
		var (
			e         domain.Event
			cat, kind string
			sessionID sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.SubjectID, &cat, &e.Label, &kind, &sessionID, &e.DeviceName, &e.OccurredAt, &e.Consumed); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrStoreUnavailable, err)
		}
		e.Category = domain.Category(cat)
		e.Kind = domain.Kind(kind)
		e.SessionID = ptrFromNullString(sessionID)
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list: %v", ErrStoreUnavailable, err)
	}
	return out, nil
}

// MarkConsumed sets consumed = TRUE on every event matching the shared
// predicate in a single UPDATE, so concurrent evaluators cannot each consume
// a partial set.
func (r *PostgresRepository) MarkConsumed(ctx context.Context, subjectID string, category domain.Category, windowStart time.Time) (int64, error) {
	q := `UPDATE events SET consumed = TRUE WHERE ` + unconsumedPredicate
	res, err := r.db.ExecContext(ctx, q, subjectID, string(category), windowStart.UTC())
	if err != nil {
		return 0, fmt.Errorf("%w: mark consumed: %v", ErrStoreUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: mark consumed: %v", ErrStoreUnavailable, err)
	}
	return n, nil
}

// Purge deletes all events for subject+category.
func (r *PostgresRepository) Purge(ctx context.Context, subjectID string, category domain.Category) error {
	const q = `DELETE FROM events WHERE subject_id = $1 AND category = $2`
	if _, err := r.db.ExecContext(ctx, q, subjectID, string(category)); err != nil {
		return fmt.Errorf("%w: purge: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func nullStringFromPtr(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func ptrFromNullString(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	return &n.String
}
