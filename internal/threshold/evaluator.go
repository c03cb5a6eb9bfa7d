// Package threshold decides when a subject's accumulated behavior crosses a
// category's policy limit. On a breach it consumes the counted events in the
// same critical section, so each breach is reported exactly once and the
// next violation is counted from zero.
package threshold

import (
	"context"
	"errors"
	"fmt"
	"time"

	"insider-sentinel/monitor/internal/event/domain"
	eventrepo "insider-sentinel/monitor/internal/event/repository"
	"insider-sentinel/monitor/internal/policy"
)

// ErrUnknownCategory is returned when the policy table has no rule for the
// event's category. The event itself is already persisted by the caller;
// only alerting is skipped.
var ErrUnknownCategory = errors.New("no threshold policy for category")

// Result describes one evaluation. When Breached is true the counted events
// have been marked consumed and Labels holds their distinct labels (oldest
// first) for the alert summary.
type Result struct {
	SubjectID   string
	Category    domain.Category
	Breached    bool
	Count       int
	Limit       int
	WindowStart time.Time
	WindowEnd   time.Time
	Labels      []string
}

// Evaluator counts unconsumed events in the category's rolling window and
// consumes them when the limit is reached. The count-then-mark sequence runs
// under a per-(subject, category) lock; concurrent producers for the same
// pair cannot both observe the threshold and double-alert.
type Evaluator struct {
	repo     eventrepo.Repository
	policies *policy.Table
	locks    *keyedMutex
	nowF     func() time.Time
}

// NewEvaluator returns an evaluator over the given store and policy table.
func NewEvaluator(repo eventrepo.Repository, policies *policy.Table) *Evaluator {
	return &Evaluator{
		repo:     repo,
		policies: policies,
		locks:    newKeyedMutex(),
		nowF:     func() time.Time { return time.Now().UTC() },
	}
}

// Evaluate counts unconsumed events for subject+category within the rolling
// window. At or above the limit it marks them consumed and reports a breach.
// Store failures return Breached=false with a wrapped
// repository.ErrStoreUnavailable: alerting fails closed, the observer
// pipeline keeps running.
func (e *Evaluator) Evaluate(ctx context.Context, subjectID string, category domain.Category) (Result, error) {
	rule, ok := e.policies.Rule(category)
	if !ok {
		return Result{SubjectID: subjectID, Category: category}, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}

	windowEnd := e.nowF()
	windowStart := windowEnd.Add(-rule.Window)
	res := Result{
		SubjectID:   subjectID,
		Category:    category,
		Limit:       rule.Limit,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
	}

	unlock := e.locks.lock(subjectID + "/" + string(category))
	defer unlock()

	events, err := e.repo.ListUnconsumed(ctx, subjectID, category, windowStart)
	if err != nil {
		return res, fmt.Errorf("evaluate %s/%s: %w", subjectID, category, err)
	}
	res.Count = len(events)
	if res.Count < rule.Limit {
		return res, nil
	}

	if _, err := e.repo.MarkConsumed(ctx, subjectID, category, windowStart); err != nil {
		return res, fmt.Errorf("evaluate %s/%s: %w", subjectID, category, err)
	}

	res.Breached = true
	res.Labels = distinctLabels(events)
	return res, nil
}

func distinctLabels(events []*domain.Event) []string {
	seen := make(map[string]struct{}, len(events))
	var out []string
	for _, ev := range events {
		if _, ok := seen[ev.Label]; ok {
			continue
		}
		seen[ev.Label] = struct{}{}
		out = append(out, ev.Label)
	}
	return out
}
