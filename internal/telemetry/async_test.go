package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"insider-sentinel/monitor/internal/event/domain"
)

// mockEmitter sends each emitted event to ch so tests can assert.
type mockEmitter struct {
	ch  chan *domain.Event
	err error
}

func (m *mockEmitter) Emit(ctx context.Context, event *domain.Event) error {
	if m.ch != nil {
		m.ch <- event
	}
	return m.err
}

func TestEmitAsync_DeliversEvent(t *testing.T) {
	ch := make(chan *domain.Event, 1)
	event := &domain.Event{SubjectID: "emp1", Category: domain.CategoryHighSensitivity, Label: "secret.txt"}

	EmitAsync(&mockEmitter{ch: ch}, context.Background(), event)

	select {
	case got := <-ch:
		if got.SubjectID != "emp1" || got.Label != "secret.txt" {
			t.Errorf("emitted event = %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event emitted")
	}
}

func TestEmitAsync_NilEmitter(t *testing.T) {
	// Must not panic or spawn anything.
	EmitAsync(nil, context.Background(), &domain.Event{SubjectID: "emp1"})
}

func TestEmitAsync_NilEvent(t *testing.T) {
	ch := make(chan *domain.Event, 1)
	EmitAsync(&mockEmitter{ch: ch}, context.Background(), nil)

	select {
	case <-ch:
		t.Fatal("emitter should not be called for nil event")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEmitAsync_EmitterErrorIsSwallowed(t *testing.T) {
	ch := make(chan *domain.Event, 1)
	EmitAsync(&mockEmitter{ch: ch, err: errors.New("collector down")}, context.Background(), &domain.Event{SubjectID: "emp1"})

	select {
	case <-ch:
		// error is logged, not surfaced; the call itself already returned
	case <-time.After(2 * time.Second):
		t.Fatal("emit was not attempted")
	}
}

func TestEmitAsync_CallerCancellationDoesNotAbort(t *testing.T) {
	ch := make(chan *domain.Event, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // already cancelled; emit must still run on its own context

	EmitAsync(&mockEmitter{ch: ch}, ctx, &domain.Event{SubjectID: "emp1"})

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("emit should run despite cancelled caller context")
	}
}

func TestShutdownDrainDuration_CoversEmitTimeout(t *testing.T) {
	if ShutdownDrainDuration < emitTimeout {
		t.Errorf("ShutdownDrainDuration %v must be >= emitTimeout %v", ShutdownDrainDuration, emitTimeout)
	}
}
