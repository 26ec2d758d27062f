package host

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

type subscription struct {
	name      string
	events    chan Event
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	release   func() error
	closeErr  error
}

func newSubscription(name string, release func() error) *subscription {
	ctx, cancel := context.WithCancel(context.Background())
	return &subscription{
		name:    name,
		events:  make(chan Event, 10),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		release: release,
	}
}

// start runs the read loop, the loop is the only sender on the events channel.
func (s *subscription) start(loop func(ctx context.Context) error) {
	go func() {
		defer close(s.done)
		defer close(s.events)
		if err := loop(s.ctx); err != nil && s.ctx.Err() == nil {
			logrus.WithError(err).WithField("event", s.name).Warn("Subscription loop ended")
		}
	}()
}

func (s *subscription) emit(event Event) bool {
	select {
	case s.events <- event:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *subscription) Events() <-chan Event {
	return s.events
}

// Close is idempotent and returns once the read loop has exited.
func (s *subscription) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		if s.release != nil {
			s.closeErr = s.release()
		}
		<-s.done
		logrus.WithField("event", s.name).Debug("Subscription closed")
	})
	return s.closeErr
}
