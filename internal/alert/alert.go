// Package alert turns breach signals into structured alert payloads and
// hands them to the notification collaborator. For categories tied to
// ongoing conditions it enforces at most one outstanding alert per
// (subject, category) until the condition clears.
package alert

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"insider-sentinel/monitor/internal/event/domain"
)

// ErrNotifyFailed wraps delivery failures. The alert latch is not rolled
// back on this error; a flaky transport must not cause alert flooding.
var ErrNotifyFailed = errors.New("alert delivery failed")

// Payload is the structured alert record handed to the notifier.
type Payload struct {
	SubjectID     string    `json:"subjectId"`
	DeviceName    string    `json:"deviceName"`
	Category      string    `json:"category"`
	Label         string    `json:"label"`
	Count         int       `json:"count"`
	Threshold     int       `json:"threshold"`
	WindowSeconds int       `json:"windowSeconds"`
	DetectedAt    time.Time `json:"detectedAt"`
	Summary       string    `json:"summary"`
}

// Notifier delivers alert payloads (e.g. to Kafka or a webhook). Delivery is
// best-effort from the coordinator's point of view: errors are logged and
// surfaced but never retried here.
type Notifier interface {
	Notify(ctx context.Context, p *Payload) error
	// Close releases transport resources. Safe to call if already closed.
	Close() error
}

// buildSummary renders the human-readable violation report carried in the
// payload alongside the structured fields.
func buildSummary(p *Payload, labels []string) string {
	window := (time.Duration(p.WindowSeconds) * time.Second).String()
	var b strings.Builder
	b.WriteString("BEHAVIOR VIOLATION REPORT\n")
	fmt.Fprintf(&b, "Subject: %s (device %s)\n", p.SubjectID, p.DeviceName)
	fmt.Fprintf(&b, "Category: %s\n", p.Category)
	fmt.Fprintf(&b, "Triggering labels: %s\n", strings.Join(labels, ", "))
	fmt.Fprintf(&b, "Count: %d of threshold %d within %s\n", p.Count, p.Threshold, window)
	fmt.Fprintf(&b, "Detected: %s\n", p.DetectedAt.Format(time.RFC3339))
	b.WriteString("Counters for this category were reset; further violations are counted from zero.")
	return b.String()
}

func latchKey(subjectID string, category domain.Category) string {
	return subjectID + "/" + string(category)
}
