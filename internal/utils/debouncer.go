package utils

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type DebouncedFunc func(context.Context) error

// Debouncer runs only the last function scheduled within the delay window.
type Debouncer struct {
	mu      sync.Mutex
	timer   *time.Timer
	pending chan DebouncedFunc
}

func NewDebouncer() *Debouncer {
	return &Debouncer{
		pending: make(chan DebouncedFunc, 1),
	}
}

func (d *Debouncer) Do(ctx context.Context, delay time.Duration, fn DebouncedFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(delay, func() {
		select {
		case d.pending <- fn:
		case <-ctx.Done():
		default:
			logrus.Debug("Debouncer already has a pending function, dropping")
		}
	})
}

func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) Run(ctx context.Context) error {
	for {
		select {
		case fn := <-d.pending:
			if err := fn(ctx); err != nil {
				logrus.WithError(err).Error("Debounced function failed")
			}
		case <-ctx.Done():
			d.Cancel()
			return context.Cause(ctx)
		}
	}
}
