package alert

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"insider-sentinel/monitor/internal/event/domain"
	"insider-sentinel/monitor/internal/threshold"
)

// Coordinator dispatches breach alerts. For latched categories (ongoing
// conditions: unauthorized app in focus, device attached), once an alert for
// a (subject, category) pair has been dispatched, further breaches for that
// pair are suppressed until Clear is called (the subject returned to an
// allowed state), preventing notification storms while a violation is
// ongoing. Discrete file categories dispatch on every breach.
type Coordinator struct {
	notifier   Notifier
	timeout    time.Duration
	deviceName string
	log        *zap.SugaredLogger

	mu          sync.Mutex
	outstanding map[string]bool
}

// NewCoordinator returns a coordinator that dispatches through notifier with
// a per-dispatch timeout. deviceName is stamped on every payload.
func NewCoordinator(notifier Notifier, timeout time.Duration, deviceName string, log *zap.SugaredLogger) *Coordinator {
	return &Coordinator{
		notifier:    notifier,
		timeout:     timeout,
		deviceName:  deviceName,
		log:         log,
		outstanding: make(map[string]bool),
	}
}

// OnBreach builds the alert payload for a breach and dispatches it. For a
// latched category, a second breach for the same (subject, category) before
// Clear is a no-op; the latch is set before dispatch and kept on delivery
// failure, since the events are already consumed and re-arming would flood a
// flaky transport. Unlatched categories dispatch every time.
func (c *Coordinator) OnBreach(ctx context.Context, res threshold.Result) error {
	if res.Category.Latched() {
		key := latchKey(res.SubjectID, res.Category)

		c.mu.Lock()
		if c.outstanding[key] {
			c.mu.Unlock()
			c.log.Debugw("alert suppressed, already outstanding",
				"subject_id", res.SubjectID, "category", res.Category)
			return nil
		}
		c.outstanding[key] = true
		c.mu.Unlock()
	}

	label := ""
	if len(res.Labels) > 0 {
		label = res.Labels[len(res.Labels)-1]
	}
	p := &Payload{
		SubjectID:     res.SubjectID,
		DeviceName:    c.deviceName,
		Category:      string(res.Category),
		Label:         label,
		Count:         res.Count,
		Threshold:     res.Limit,
		WindowSeconds: int(res.WindowEnd.Sub(res.WindowStart) / time.Second),
		DetectedAt:    res.WindowEnd,
	}
	p.Summary = buildSummary(p, res.Labels)

	notifyCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.notifier.Notify(notifyCtx, p); err != nil {
		c.log.Errorw("alert delivery failed",
			"subject_id", res.SubjectID, "category", res.Category, "error", err)
		return fmt.Errorf("%w: %v", ErrNotifyFailed, err)
	}

	c.log.Infow("alert dispatched",
		"subject_id", res.SubjectID, "category", res.Category,
		"count", res.Count, "threshold", res.Limit)
	return nil
}

// Clear re-arms alerting for subject+category. Called when the session
// tracker signals a return to an allowed/neutral state.
func (c *Coordinator) Clear(subjectID string, category domain.Category) {
	c.mu.Lock()
	delete(c.outstanding, latchKey(subjectID, category))
	c.mu.Unlock()
}
