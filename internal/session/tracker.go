// Package session collapses repeated observations of an ongoing condition
// (e.g. the current foreground app sampled every few seconds) into discrete
// sessions, so one continuous violation is logged once, not once per sample.
//
// State is in-memory only. After a process restart an in-progress condition
// opens one extra session; this is a documented limitation, not a fault.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"insider-sentinel/monitor/internal/event/domain"
)

type state struct {
	label          string
	sessionID      string
	lastObservedAt time.Time
}

// Tracker holds per-(subject, kind) session state behind a mutex. Safe for
// concurrent use by multiple observers.
type Tracker struct {
	mu     sync.Mutex
	states map[string]*state
	newID  func() string
}

// NewTracker returns an empty session tracker.
func NewTracker() *Tracker {
	return &Tracker{
		states: make(map[string]*state),
		newID:  uuid.NewString,
	}
}

func key(subjectID string, kind domain.Kind) string {
	return subjectID + "/" + string(kind)
}

// Observe records one sample of an ongoing condition. It returns the session
// ID the sample belongs to and whether this sample opened a new session (the
// caller persists exactly one event per new session). A label change always
// opens a new session; repeating the current label only refreshes
// lastObservedAt.
func (t *Tracker) Observe(subjectID string, kind domain.Kind, label string, at time.Time) (sessionID string, isNew bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key(subjectID, kind)
	s, ok := t.states[k]
	if ok && s.label == label {
		s.lastObservedAt = at
		return s.sessionID, false
	}

	id := t.newID()
	t.states[k] = &state{label: label, sessionID: id, lastObservedAt: at}
	return id, true
}

// Clear drops the session state for subject+kind, e.g. when the subject
// returns to an allowed application or the observed device is detached. The
// next observation opens a fresh session.
func (t *Tracker) Clear(subjectID string, kind domain.Kind) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, key(subjectID, kind))
}

// LastObservedAt returns when the current session for subject+kind last saw
// a sample, or false if no session is open.
func (t *Tracker) LastObservedAt(subjectID string, kind domain.Kind) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.states[key(subjectID, kind)]
	if !ok {
		return time.Time{}, false
	}
	return s.lastObservedAt, true
}
