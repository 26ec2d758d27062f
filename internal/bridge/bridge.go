// Package bridge owns the subscription to host topology events and turns them into ordered updates.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fiffeek/inputswitcher/internal/errs"
	"github.com/fiffeek/inputswitcher/internal/host"
	"github.com/fiffeek/inputswitcher/internal/monitors"
	"github.com/fiffeek/inputswitcher/internal/utils"
	"github.com/sirupsen/logrus"
)

type State int

const (
	Uninitialized State = iota
	Subscribing
	Active
	Closed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Subscribing:
		return "Subscribing"
	case Active:
		return "Active"
	case Closed:
		return "Closed"
	}
	return "Unknown"
}

var ErrBridgeClosed = errors.New("event bridge is closed")

// Update carries either a decoded topology or the reason an event could not be applied.
type Update struct {
	Monitors monitors.MonitorInfos
	Err      error
}

type Refresher interface {
	RequestRefresh(ctx context.Context) error
}

type binding struct {
	sub  host.Subscription
	stop chan struct{}
	done chan struct{}
}

// EventBridge holds at most one subscription, a new one is created only after the prior is released.
type EventBridge struct {
	host      host.Host
	refresher Refresher
	updates   chan Update
	closing   chan struct{}
	lifecycle sync.Mutex
	mu        sync.Mutex
	state     State
	current   *binding
	wg        sync.WaitGroup
}

func NewEventBridge(h host.Host, refresher Refresher) *EventBridge {
	return &EventBridge{
		host:      h,
		refresher: refresher,
		updates:   make(chan Update, 10),
		closing:   make(chan struct{}),
		state:     Uninitialized,
	}
}

func (b *EventBridge) Listen() <-chan Update {
	return b.updates
}

func (b *EventBridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *EventBridge) setState(state State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = state
}

// Start subscribes to topology events and asks the host to publish the current topology.
// A refresh failure is returned but the subscription stays active.
func (b *EventBridge) Start(ctx context.Context) error {
	b.lifecycle.Lock()
	defer b.lifecycle.Unlock()

	if b.State() == Closed {
		return ErrBridgeClosed
	}

	if err := b.retire(); err != nil {
		logrus.WithError(err).Warn("Failed to release the previous subscription")
	}

	b.setState(Subscribing)
	sub, err := b.host.Subscribe(ctx, host.EventMonitorInfo)
	if err != nil {
		b.setState(Uninitialized)
		return fmt.Errorf("%w: %w", errs.ErrSubscriptionFailed, err)
	}

	cur := &binding{sub: sub, stop: make(chan struct{}), done: make(chan struct{})}
	b.mu.Lock()
	b.current = cur
	b.state = Active
	b.mu.Unlock()

	b.wg.Add(1)
	go b.forward(cur)
	logrus.WithFields(utils.NewLogrusEmptyFields().WithLogID(utils.SubscriptionAcquiredLogID)).Debug(
		"Subscribed to monitor topology events")

	if err := b.refresher.RequestRefresh(ctx); err != nil {
		return fmt.Errorf("initial refresh failed: %w", err)
	}
	return nil
}

// Stop releases the subscription exactly once and closes the updates channel.
func (b *EventBridge) Stop() error {
	b.lifecycle.Lock()
	defer b.lifecycle.Unlock()

	if b.State() == Closed {
		return nil
	}

	close(b.closing)
	err := b.retire()
	b.wg.Wait()
	b.setState(Closed)
	close(b.updates)

	return err
}

func (b *EventBridge) retire() error {
	b.mu.Lock()
	cur := b.current
	b.current = nil
	b.mu.Unlock()

	if cur == nil {
		return nil
	}

	close(cur.stop)
	<-cur.done
	return b.release(cur)
}

func (b *EventBridge) release(cur *binding) error {
	err := cur.sub.Close()
	logrus.WithFields(utils.NewLogrusEmptyFields().WithLogID(utils.SubscriptionReleasedLogID)).Debug(
		"Released monitor topology subscription")
	if err != nil {
		return fmt.Errorf("cant release subscription: %w", err)
	}
	return nil
}

// markEnded flags cur as ended by the host, false means a retire is already in progress.
func (b *EventBridge) markEnded(cur *binding) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current != cur {
		return false
	}
	b.state = Uninitialized
	return true
}

// detach drops cur unless a retire already took it.
func (b *EventBridge) detach(cur *binding) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current != cur {
		return false
	}
	b.current = nil
	return true
}

func (b *EventBridge) forward(cur *binding) {
	defer b.wg.Done()
	defer close(cur.done)

	for {
		select {
		case <-cur.stop:
			return
		case <-b.closing:
			return
		case event, ok := <-cur.sub.Events():
			if !ok {
				b.ended(cur)
				return
			}
			if !b.publish(cur, decode(event)) {
				return
			}
		}
	}
}

// ended reports the host side disconnect before the binding is let go, a concurrent Start waits
// on cur.done so the failure always precedes events of the next subscription.
func (b *EventBridge) ended(cur *binding) {
	if !b.markEnded(cur) {
		return
	}
	select {
	case b.updates <- Update{Err: fmt.Errorf("%w: host closed the event stream", errs.ErrSubscriptionFailed)}:
	case <-b.closing:
		return
	}
	if !b.detach(cur) {
		return
	}
	if err := b.release(cur); err != nil {
		logrus.WithError(err).Debug("Release after host disconnect failed")
	}
}

func (b *EventBridge) publish(cur *binding, update Update) bool {
	select {
	case b.updates <- update:
		return true
	case <-cur.stop:
		return false
	case <-b.closing:
		return false
	}
}

func decode(event host.Event) Update {
	if event.Err != nil {
		return malformed(event.Err)
	}

	var infos monitors.MonitorInfos
	if err := utils.UnmarshalResponse(event.Payload, &infos); err != nil {
		return malformed(fmt.Errorf("%w: %w", errs.ErrMalformedPayload, err))
	}
	if infos == nil {
		return malformed(fmt.Errorf("%w: payload is not a list", errs.ErrMalformedPayload))
	}
	if err := infos.Validate(); err != nil {
		return malformed(err)
	}

	logrus.WithFields(utils.NewLogrusCustomFields(map[string]any{"monitors": len(infos)}).
		WithLogID(utils.TopologyReceivedLogID)).Debug("Received monitor topology")
	return Update{Monitors: infos}
}

func malformed(err error) Update {
	logrus.WithFields(utils.NewLogrusEmptyFields().WithLogID(utils.MalformedPayloadLogID)).WithError(err).Warn(
		"Dropping malformed topology event")
	return Update{Err: err}
}
