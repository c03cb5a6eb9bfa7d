// Package repository defines persistence for behavioral events.
package repository

import (
	"context"
	"errors"
	"time"

	"insider-sentinel/monitor/internal/event/domain"
)

// ErrStoreUnavailable wraps persistence failures so callers can fail closed
// on alerting without inspecting driver errors.
var ErrStoreUnavailable = errors.New("event store unavailable")

// Repository is the event store: an append-only log with a consumed flag and
// windowed queries. Count/List and MarkConsumed share one predicate
// (subject, category, occurred_at >= windowStart, not consumed); the
// threshold evaluator serializes the count-then-mark sequence per key.
type Repository interface {
	// Append persists the event and sets e.ID on success.
	Append(ctx context.Context, e *domain.Event) error
	// CountUnconsumed counts events matching the shared predicate.
	CountUnconsumed(ctx context.Context, subjectID string, category domain.Category, windowStart time.Time) (int, error)
	// ListUnconsumed returns events matching the shared predicate, oldest first.
	ListUnconsumed(ctx context.Context, subjectID string, category domain.Category, windowStart time.Time) ([]*domain.Event, error)
	// MarkConsumed sets consumed on every event matching the shared predicate
	// in one statement. Returns the number of events marked.
	MarkConsumed(ctx context.Context, subjectID string, category domain.Category, windowStart time.Time) (int64, error)
	// Purge deletes all events for subject+category. Optional reset support;
	// threshold correctness relies on MarkConsumed, which preserves history.
	Purge(ctx context.Context, subjectID string, category domain.Category) error
}
