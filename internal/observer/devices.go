package observer

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"insider-sentinel/monitor/internal/event/domain"
)

// DeviceWatch samples a mounts directory and treats its entries as the set
// of attached removable devices. A new entry reports a device-attach event;
// any removed entry clears the open session so alerting re-arms.
type DeviceWatch struct {
	subjectID  string
	mountsPath string
	reporter   Reporter
	log        *zap.SugaredLogger

	connected map[string]struct{}
}

// NewDeviceWatch builds a device sampler over mountsPath. Use Sample with a
// Poller; Sample is not safe for concurrent use.
func NewDeviceWatch(mountsPath, subjectID string, reporter Reporter, log *zap.SugaredLogger) *DeviceWatch {
	return &DeviceWatch{
		subjectID:  subjectID,
		mountsPath: mountsPath,
		reporter:   reporter,
		log:        log,
		connected:  make(map[string]struct{}),
	}
}

// Sample diffs the current mount entries against the last observed set.
func (d *DeviceWatch) Sample(ctx context.Context) error {
	entries, err := os.ReadDir(d.mountsPath)
	if err != nil {
		if os.IsNotExist(err) {
			entries = nil
		} else {
			return err
		}
	}

	current := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		current[name] = struct{}{}
		if _, known := d.connected[name]; known {
			continue
		}
		d.log.Infow("removable device attached", "device", name)
		if err := d.reporter.ReportEvent(ctx, d.subjectID, name, domain.KindDeviceAttach, time.Now().UTC()); err != nil {
			d.log.Errorw("device event not recorded", "device", name, "error", err)
		}
	}

	for name := range d.connected {
		if _, still := current[name]; !still {
			d.log.Infow("removable device detached", "device", name)
			d.reporter.ReportClear(ctx, d.subjectID, domain.KindDeviceAttach)
			break
		}
	}
	d.connected = current
	return nil
}
