package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"insider-sentinel/monitor/internal/event/domain"
	"insider-sentinel/monitor/internal/telemetry"
)

// NewEventEmitter returns an EventEmitter that sends behavioral events as OTel
// log records via the given LoggerProvider. If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return NewEventEmitterWithLogger(provider.Logger("sentinel.monitor"))
}

// recordLogger is the subset of otellog.Logger the emitter needs.
type recordLogger interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewEventEmitterWithLogger builds an emitter on an explicit record logger.
func NewEventEmitterWithLogger(logger recordLogger) telemetry.EventEmitter {
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *domain.Event) error { return nil }

type otelEmitter struct {
	logger recordLogger
}

// Emit converts the behavioral event to an OTel log record and emits it. Best-effort.
func (e *otelEmitter) Emit(ctx context.Context, event *domain.Event) error {
	if event == nil {
		return nil
	}
	rec := otellog.Record{}
	if !event.OccurredAt.IsZero() {
		rec.SetTimestamp(event.OccurredAt)
	}
	if event.Label != "" {
		rec.SetBody(otellog.StringValue(event.Label))
	}
	if event.SubjectID != "" {
		rec.AddAttributes(otellog.String("subject_id", event.SubjectID))
	}
	if event.Category != "" {
		rec.AddAttributes(otellog.String("category", string(event.Category)))
	}
	if event.Kind != "" {
		rec.AddAttributes(otellog.String("kind", string(event.Kind)))
	}
	if event.SessionID != nil && *event.SessionID != "" {
		rec.AddAttributes(otellog.String("session_id", *event.SessionID))
	}
	if event.DeviceName != "" {
		rec.AddAttributes(otellog.String("device_name", event.DeviceName))
	}
	if rec.Timestamp().IsZero() {
		rec.SetTimestamp(time.Now().UTC())
	}
	e.logger.Emit(ctx, rec)
	return nil
}
