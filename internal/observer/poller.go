package observer

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SampleFunc takes one sample of a continuously-observed condition. Errors
// are logged and the next tick proceeds normally.
type SampleFunc func(ctx context.Context) error

// Poller runs a sample function on a fixed interval until the context is
// cancelled. The first sample runs immediately, not one interval in.
type Poller struct {
	name     string
	interval time.Duration
	sample   SampleFunc
	log      *zap.SugaredLogger
}

// NewPoller builds a poller. name appears in log lines only.
func NewPoller(name string, interval time.Duration, sample SampleFunc, log *zap.SugaredLogger) *Poller {
	return &Poller{name: name, interval: interval, sample: sample, log: log}
}

// Run blocks until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.log.Infow("observer started", "observer", p.name, "interval", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.sample(ctx); err != nil && ctx.Err() == nil {
			p.log.Errorw("observer sample failed", "observer", p.name, "error", err)
		}
		select {
		case <-ctx.Done():
			p.log.Infow("observer stopped", "observer", p.name)
			return
		case <-ticker.C:
		}
	}
}
