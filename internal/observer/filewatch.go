package observer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"insider-sentinel/monitor/internal/event/domain"
)

// FileWatcher reports file create/write/remove/rename activity under a
// directory as discrete file-activity events, labeled with the base name.
type FileWatcher struct {
	path      string
	subjectID string
	reporter  Reporter
	log       *zap.SugaredLogger
}

// NewFileWatcher builds a watcher for the directory at path.
func NewFileWatcher(path, subjectID string, reporter Reporter, log *zap.SugaredLogger) *FileWatcher {
	return &FileWatcher{path: path, subjectID: subjectID, reporter: reporter, log: log}
}

// skip filters transient editor artifacts: dotfiles, office lock files
// ("~$..."), and .tmp files.
func skip(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
		return true
	}
	return strings.EqualFold(filepath.Ext(name), ".tmp")
}

// Run blocks delivering filesystem events to the reporter until ctx is
// cancelled or the watcher fails.
func (w *FileWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.path); err != nil {
		return fmt.Errorf("file watcher: add %s: %w", w.path, err)
	}
	w.log.Infow("observer started", "observer", "file-activity", "path", w.path)

	for {
		select {
		case <-ctx.Done():
			w.log.Infow("observer stopped", "observer", "file-activity")
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) &&
				!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			name := filepath.Base(ev.Name)
			if skip(name) {
				continue
			}
			if err := w.reporter.ReportEvent(ctx, w.subjectID, name, domain.KindFileActivity, time.Now().UTC()); err != nil {
				w.log.Errorw("file event not recorded", "label", name, "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Errorw("file watcher error", "error", err)
		}
	}
}
