// Package observer contains the raw activity producers: a filesystem watcher
// for file events and periodic pollers for continuously-sampled conditions
// (foreground application, removable storage). Observers only detect and
// report; all classification and alerting decisions live downstream.
package observer

import (
	"context"
	"time"

	"insider-sentinel/monitor/internal/event/domain"
)

// Reporter receives raw observations. Implemented by monitor.Service.
type Reporter interface {
	ReportEvent(ctx context.Context, subjectID, label string, kind domain.Kind, at time.Time) error
	ReportClear(ctx context.Context, subjectID string, kind domain.Kind)
}
