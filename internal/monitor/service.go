// Package monitor wires the behavioral pipeline: observers report raw
// activity here, and the service classifies it, collapses continuous
// conditions into sessions, persists events, evaluates thresholds, and
// hands breaches to the alert coordinator.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"insider-sentinel/monitor/internal/alert"
	"insider-sentinel/monitor/internal/classify"
	"insider-sentinel/monitor/internal/event/domain"
	eventrepo "insider-sentinel/monitor/internal/event/repository"
	"insider-sentinel/monitor/internal/policy"
	"insider-sentinel/monitor/internal/session"
	"insider-sentinel/monitor/internal/telemetry"
	"insider-sentinel/monitor/internal/threshold"
)

// Service is the pipeline entry point. Observers call ReportEvent for every
// raw observation; everything downstream (dedup, persistence, evaluation,
// alerting) happens inside.
type Service struct {
	classifier  *classify.Classifier
	tracker     *session.Tracker
	repo        eventrepo.Repository
	evaluator   *threshold.Evaluator
	coordinator *alert.Coordinator
	policies    *policy.Table
	emitter     telemetry.EventEmitter
	log         *zap.SugaredLogger
	deviceName  string

	eventsRecorded metric.Int64Counter
	breaches       metric.Int64Counter
	alertFailures  metric.Int64Counter
}

// NewService assembles the pipeline. emitter may be nil (telemetry mirroring
// disabled).
func NewService(
	classifier *classify.Classifier,
	tracker *session.Tracker,
	repo eventrepo.Repository,
	evaluator *threshold.Evaluator,
	coordinator *alert.Coordinator,
	policies *policy.Table,
	emitter telemetry.EventEmitter,
	deviceName string,
	log *zap.SugaredLogger,
) *Service {
	s := &Service{
		classifier:  classifier,
		tracker:     tracker,
		repo:        repo,
		evaluator:   evaluator,
		coordinator: coordinator,
		policies:    policies,
		emitter:     emitter,
		log:         log,
		deviceName:  deviceName,
	}

	meter := otel.Meter("sentinel.monitor")
	var err error
	if s.eventsRecorded, err = meter.Int64Counter("monitor.events.recorded"); err != nil {
		log.Warnw("metric init failed", "metric", "monitor.events.recorded", "error", err)
	}
	if s.breaches, err = meter.Int64Counter("monitor.threshold.breaches"); err != nil {
		log.Warnw("metric init failed", "metric", "monitor.threshold.breaches", "error", err)
	}
	if s.alertFailures, err = meter.Int64Counter("monitor.alert.failures"); err != nil {
		log.Warnw("metric init failed", "metric", "monitor.alert.failures", "error", err)
	}
	return s
}

// ReportEvent runs one raw observation through the pipeline.
//
// Continuous kinds (app focus, device attach) are collapsed by the session
// tracker: only the sample that opens a new session produces an event. An
// allowed foreground application clears the session and re-arms the
// unauthorized-app alert instead of producing anything.
//
// A store failure persists nothing and returns an error; alerting fails
// closed. A category without a threshold rule keeps the event but skips
// alerting. Alert delivery failures are logged, not returned: the breach is
// already consumed and the observers must keep running.
func (s *Service) ReportEvent(ctx context.Context, subjectID, label string, kind domain.Kind, at time.Time) error {
	var category domain.Category
	switch kind {
	case domain.KindFileActivity:
		category = s.classifier.Classify(label)
	case domain.KindAppFocus:
		if s.policies.AllowedApp(label) {
			s.tracker.Clear(subjectID, kind)
			s.coordinator.Clear(subjectID, domain.CategoryUnauthorizedApp)
			return nil
		}
		category = domain.CategoryUnauthorizedApp
	case domain.KindDeviceAttach:
		category = domain.CategoryRemovableStorage
	default:
		return fmt.Errorf("report event: unknown kind %q", kind)
	}

	event := &domain.Event{
		SubjectID:  subjectID,
		Category:   category,
		Label:      label,
		Kind:       kind,
		DeviceName: s.deviceName,
		OccurredAt: at,
	}

	if kind.Continuous() {
		sessionID, isNew := s.tracker.Observe(subjectID, kind, label, at)
		if !isNew {
			return nil
		}
		event.SessionID = &sessionID
	}

	if err := s.repo.Append(ctx, event); err != nil {
		s.log.Errorw("event append failed",
			"subject_id", subjectID, "category", category, "error", err)
		return fmt.Errorf("report event: %w", err)
	}
	s.add(ctx, s.eventsRecorded, category)
	s.log.Debugw("event recorded",
		"subject_id", subjectID, "category", category, "label", label, "kind", kind)

	telemetry.EmitAsync(s.emitter, ctx, event)

	res, err := s.evaluator.Evaluate(ctx, subjectID, category)
	if err != nil {
		if errors.Is(err, threshold.ErrUnknownCategory) {
			s.log.Warnw("no threshold rule, event kept without alerting",
				"subject_id", subjectID, "category", category)
			return nil
		}
		s.log.Errorw("threshold evaluation failed",
			"subject_id", subjectID, "category", category, "error", err)
		return fmt.Errorf("report event: %w", err)
	}
	if !res.Breached {
		return nil
	}

	s.add(ctx, s.breaches, category)
	if err := s.coordinator.OnBreach(ctx, res); err != nil {
		s.add(ctx, s.alertFailures, category)
		s.log.Errorw("breach alert not delivered",
			"subject_id", subjectID, "category", category, "error", err)
	}
	return nil
}

// ReportClear signals that a continuous condition ended (device detached).
// It drops the open session and re-arms alerting for the kind's category.
func (s *Service) ReportClear(_ context.Context, subjectID string, kind domain.Kind) {
	s.tracker.Clear(subjectID, kind)
	switch kind {
	case domain.KindAppFocus:
		s.coordinator.Clear(subjectID, domain.CategoryUnauthorizedApp)
	case domain.KindDeviceAttach:
		s.coordinator.Clear(subjectID, domain.CategoryRemovableStorage)
	}
}

func (s *Service) add(ctx context.Context, c metric.Int64Counter, category domain.Category) {
	if c == nil {
		return
	}
	c.Add(ctx, 1, metric.WithAttributes(attribute.String("category", string(category))))
}
