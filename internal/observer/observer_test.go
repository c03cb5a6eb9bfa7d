package observer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"insider-sentinel/monitor/internal/event/domain"
)

type reported struct {
	label string
	kind  domain.Kind
}

// fakeReporter records ReportEvent and ReportClear calls.
type fakeReporter struct {
	mu     sync.Mutex
	events []reported
	clears []domain.Kind
	err    error
}

func (f *fakeReporter) ReportEvent(_ context.Context, _ string, label string, kind domain.Kind, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, reported{label: label, kind: kind})
	return f.err
}

func (f *fakeReporter) ReportClear(_ context.Context, _ string, kind domain.Kind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears = append(f.clears, kind)
}

func (f *fakeReporter) snapshot() ([]reported, []domain.Kind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]reported(nil), f.events...), append([]domain.Kind(nil), f.clears...)
}

func TestPoller_SamplesImmediatelyAndStopsOnCancel(t *testing.T) {
	samples := make(chan struct{}, 64)
	p := NewPoller("test", time.Hour, func(context.Context) error {
		samples <- struct{}{}
		return nil
	}, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	// First sample must not wait for the first tick (interval is 1h).
	select {
	case <-samples:
	case <-time.After(2 * time.Second):
		t.Fatal("no immediate first sample")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop on cancel")
	}
}

func TestPoller_SampleErrorKeepsPolling(t *testing.T) {
	samples := make(chan struct{}, 64)
	p := NewPoller("test", 10*time.Millisecond, func(context.Context) error {
		samples <- struct{}{}
		return errors.New("probe failed")
	}, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	for i := 0; i < 3; i++ {
		select {
		case <-samples:
		case <-time.After(2 * time.Second):
			t.Fatalf("poller stalled after %d samples", i)
		}
	}
}

func TestDeviceWatch_ReportsAttachOncePerDevice(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "usb-kingston"), 0o755); err != nil {
		t.Fatal(err)
	}

	rep := &fakeReporter{}
	w := NewDeviceWatch(dir, "emp1", rep, zap.NewNop().Sugar())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := w.Sample(ctx); err != nil {
			t.Fatalf("Sample: %v", err)
		}
	}
	events, _ := rep.snapshot()
	if len(events) != 1 || events[0].kind != domain.KindDeviceAttach || events[0].label != "usb-kingston" {
		t.Fatalf("events = %+v, want one attach for usb-kingston", events)
	}

	// A second device is a separate attach.
	if err := os.Mkdir(filepath.Join(dir, "usb-sandisk"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := w.Sample(ctx); err != nil {
		t.Fatalf("Sample: %v", err)
	}
	events, _ = rep.snapshot()
	if len(events) != 2 || events[1].label != "usb-sandisk" {
		t.Fatalf("events = %+v, want second attach for usb-sandisk", events)
	}
}

func TestDeviceWatch_ClearsWhenAllDetached(t *testing.T) {
	dir := t.TempDir()
	mount := filepath.Join(dir, "usb-kingston")
	if err := os.Mkdir(mount, 0o755); err != nil {
		t.Fatal(err)
	}

	rep := &fakeReporter{}
	w := NewDeviceWatch(dir, "emp1", rep, zap.NewNop().Sugar())
	ctx := context.Background()

	if err := w.Sample(ctx); err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if err := os.Remove(mount); err != nil {
		t.Fatal(err)
	}
	if err := w.Sample(ctx); err != nil {
		t.Fatalf("Sample after detach: %v", err)
	}

	_, clears := rep.snapshot()
	if len(clears) != 1 || clears[0] != domain.KindDeviceAttach {
		t.Fatalf("clears = %v, want one device-attach clear", clears)
	}
}

func TestDeviceWatch_PartialDetachClears(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"usb-kingston", "usb-sandisk"} {
		if err := os.Mkdir(filepath.Join(dir, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	rep := &fakeReporter{}
	w := NewDeviceWatch(dir, "emp1", rep, zap.NewNop().Sugar())
	ctx := context.Background()

	if err := w.Sample(ctx); err != nil {
		t.Fatalf("Sample: %v", err)
	}
	// Removing one of two devices must still re-arm alerting.
	if err := os.Remove(filepath.Join(dir, "usb-sandisk")); err != nil {
		t.Fatal(err)
	}
	if err := w.Sample(ctx); err != nil {
		t.Fatalf("Sample after partial detach: %v", err)
	}

	_, clears := rep.snapshot()
	if len(clears) != 1 || clears[0] != domain.KindDeviceAttach {
		t.Fatalf("clears = %v, want one device-attach clear", clears)
	}

	// The remaining device is unchanged: no clear, no new attach.
	if err := w.Sample(ctx); err != nil {
		t.Fatalf("Sample: %v", err)
	}
	events, clears := rep.snapshot()
	if len(events) != 2 || len(clears) != 1 {
		t.Errorf("events/clears after steady sample = %d/%d, want 2/1", len(events), len(clears))
	}
}

func TestDeviceWatch_MissingMountsDirIsEmpty(t *testing.T) {
	rep := &fakeReporter{}
	w := NewDeviceWatch(filepath.Join(t.TempDir(), "absent"), "emp1", rep, zap.NewNop().Sugar())
	if err := w.Sample(context.Background()); err != nil {
		t.Fatalf("Sample on missing dir: %v", err)
	}
	events, clears := rep.snapshot()
	if len(events) != 0 || len(clears) != 0 {
		t.Errorf("missing dir should report nothing, got %v / %v", events, clears)
	}
}

func TestAppFocusWatch_ReportsProbedLabel(t *testing.T) {
	rep := &fakeReporter{}
	w := NewAppFocusWatch(func(context.Context) (string, error) {
		return "solitaire", nil
	}, "emp1", rep, zap.NewNop().Sugar())

	if err := w.Sample(context.Background()); err != nil {
		t.Fatalf("Sample: %v", err)
	}
	events, _ := rep.snapshot()
	if len(events) != 1 || events[0].kind != domain.KindAppFocus || events[0].label != "solitaire" {
		t.Fatalf("events = %+v", events)
	}
}

func TestAppFocusWatch_EmptyLabelIsSkipped(t *testing.T) {
	rep := &fakeReporter{}
	w := NewAppFocusWatch(func(context.Context) (string, error) {
		return "", nil
	}, "emp1", rep, zap.NewNop().Sugar())

	if err := w.Sample(context.Background()); err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if events, _ := rep.snapshot(); len(events) != 0 {
		t.Errorf("events = %+v, want none", events)
	}
}

func TestCommandProbe_FirstLineTrimmed(t *testing.T) {
	probe := CommandProbe("printf 'solitaire\\nextra\\n'")
	label, err := probe(context.Background())
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if label != "solitaire" {
		t.Errorf("label = %q, want solitaire", label)
	}
}

func TestSkip(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"confidential_report.txt", false},
		{".hidden", true},
		{"~$report.docx", true},
		{"export.tmp", true},
		{"export.TMP", true},
		{"archive.tar", false},
	}
	for _, tc := range cases {
		if got := skip(tc.name); got != tc.want {
			t.Errorf("skip(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestFileWatcher_ReportsCreatedFiles(t *testing.T) {
	dir := t.TempDir()
	rep := &fakeReporter{}
	w := NewFileWatcher(dir, "emp1", rep, zap.NewNop().Sugar())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "confidential_report.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(2 * time.Second)
	for {
		events, _ := rep.snapshot()
		if len(events) > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("no file event reported")
		case <-time.After(20 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancel")
	}

	events, _ := rep.snapshot()
	for _, ev := range events {
		if ev.label == ".hidden" {
			t.Error("dotfile should have been skipped")
		}
		if ev.kind != domain.KindFileActivity {
			t.Errorf("kind = %v", ev.kind)
		}
	}
}
