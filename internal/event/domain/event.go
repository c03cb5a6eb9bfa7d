// Package domain defines the behavioral event record and its enums.
package domain

import "time"

// Category is the sensitivity class an event counts against. Each category
// has its own threshold policy.
type Category string

const (
	CategoryHighSensitivity  Category = "high-sensitivity"
	CategoryLowSensitivity   Category = "low-sensitivity"
	CategoryUnauthorizedApp  Category = "unauthorized-app"
	CategoryRemovableStorage Category = "removable-storage"
)

// Latched reports whether alerting for this category stays suppressed after
// a breach until the underlying condition clears (categories fed by
// continuous kinds: the condition persists across polls, so re-alerting
// before it ends would flood). Discrete file categories are never latched;
// every breach alerts.
func (c Category) Latched() bool {
	return c == CategoryUnauthorizedApp || c == CategoryRemovableStorage
}

// Kind identifies what an observer saw and how the pipeline treats it.
// Continuous kinds are sampled repeatedly while a condition holds and are
// collapsed into sessions; discrete kinds are logged as-is.
type Kind string

const (
	// KindFileActivity is a one-shot file operation (copy, modify, delete).
	// The label (file name) is classified into a sensitivity category.
	KindFileActivity Kind = "file-activity"
	// KindAppFocus is the current foreground application, sampled on an
	// interval. Always counts against the unauthorized-app category.
	KindAppFocus Kind = "app-focus"
	// KindDeviceAttach is a removable-storage device observed as present,
	// sampled on an interval. Counts against the removable-storage category.
	KindDeviceAttach Kind = "device-attach"
)

// Continuous reports whether observations of this kind are samples of an
// ongoing condition and must be session-deduplicated before persisting.
func (k Kind) Continuous() bool {
	return k == KindAppFocus || k == KindDeviceAttach
}

// Event is one observed occurrence for a subject. Events are immutable once
// written except for Consumed, which only ever goes false -> true when the
// event is counted toward a reported breach.
type Event struct {
	ID         int64
	SubjectID  string
	Category   Category
	Label      string
	Kind       Kind
	SessionID  *string // nil for discrete events
	DeviceName string
	OccurredAt time.Time
	Consumed   bool
}
