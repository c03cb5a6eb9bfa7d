// Package telemetry mirrors persisted behavioral events to the
// observability pipeline (OTel logs). Best-effort; callers log and ignore errors.
package telemetry

import (
	"context"

	"insider-sentinel/monitor/internal/event/domain"
)

// EventEmitter emits behavioral events as telemetry records.
type EventEmitter interface {
	Emit(ctx context.Context, event *domain.Event) error
}
