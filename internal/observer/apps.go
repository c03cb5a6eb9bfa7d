package observer

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"insider-sentinel/monitor/internal/event/domain"
)

// ProbeFunc returns the label of the current foreground application, or ""
// when none can be determined.
type ProbeFunc func(ctx context.Context) (string, error)

// CommandProbe runs a shell command and returns the first line of its output
// as the foreground application label. Foreground detection is OS glue; the
// command is configuration (e.g. an xdotool/wmctrl one-liner on Linux).
func CommandProbe(cmdline string) ProbeFunc {
	return func(ctx context.Context) (string, error) {
		out, err := exec.CommandContext(ctx, "sh", "-c", cmdline).Output()
		if err != nil {
			return "", err
		}
		line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
		return strings.TrimSpace(line), nil
	}
}

// AppFocusWatch samples the foreground application. Session collapsing and
// the allowed-application check happen in the pipeline, not here.
type AppFocusWatch struct {
	subjectID string
	probe     ProbeFunc
	reporter  Reporter
	log       *zap.SugaredLogger
}

// NewAppFocusWatch builds an app-focus sampler. Use Sample with a Poller.
func NewAppFocusWatch(probe ProbeFunc, subjectID string, reporter Reporter, log *zap.SugaredLogger) *AppFocusWatch {
	return &AppFocusWatch{subjectID: subjectID, probe: probe, reporter: reporter, log: log}
}

// Sample probes once and reports the label when one is present.
func (a *AppFocusWatch) Sample(ctx context.Context) error {
	label, err := a.probe(ctx)
	if err != nil {
		return err
	}
	if label == "" {
		return nil
	}
	if err := a.reporter.ReportEvent(ctx, a.subjectID, label, domain.KindAppFocus, time.Now().UTC()); err != nil {
		a.log.Errorw("app-focus event not recorded", "label", label, "error", err)
	}
	return nil
}
