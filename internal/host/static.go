package host

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/fiffeek/inputswitcher/internal/errs"
	"github.com/fiffeek/inputswitcher/internal/monitors"
	"github.com/fiffeek/inputswitcher/internal/utils"
	"github.com/sirupsen/logrus"
)

// StaticHost serves a fixed topology from memory, refresh re-broadcasts it to every subscriber.
type StaticHost struct {
	mu           sync.Mutex
	monitors     monitors.MonitorInfos
	subs         map[int]*staticSubscription
	nextSubID    int
	invoked      []Command
	subscribeErr error
	rejections   map[string]string
}

type staticSubscription struct {
	*subscription
	mu      sync.Mutex
	queue   []Event
	notify  chan struct{}
	ended   chan struct{}
	endOnce sync.Once
}

func NewStaticHost(monitors monitors.MonitorInfos) *StaticHost {
	return &StaticHost{
		monitors:   orEmpty(monitors),
		subs:       map[int]*staticSubscription{},
		rejections: map[string]string{},
	}
}

// NewStaticHostFromFile loads the topology from a json or yaml fixture.
func NewStaticHostFromFile(path string) (*StaticHost, error) {
	infos, err := LoadMonitorsFixture(path)
	if err != nil {
		return nil, err
	}
	return NewStaticHost(infos), nil
}

func LoadMonitorsFixture(path string) (monitors.MonitorInfos, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cant read monitors fixture %s: %w", path, err)
	}

	if len(bytes.TrimSpace(contents)) == 0 {
		logrus.WithField("path", path).Debug("Monitors fixture is empty, serving no monitors")
		return monitors.MonitorInfos{}, nil
	}

	var infos monitors.MonitorInfos
	if err := utils.UnmarshalByExtension(path, contents, &infos); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrMalformedPayload, err)
	}
	infos = orEmpty(infos)
	if err := infos.Validate(); err != nil {
		return nil, fmt.Errorf("fixture %s is invalid: %w", path, err)
	}

	logrus.WithFields(logrus.Fields{"path": path, "monitors": len(infos)}).Debug("Loaded monitors fixture")
	return infos, nil
}

func (h *StaticHost) Subscribe(_ context.Context, event string) (Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscribeErr != nil {
		return nil, h.subscribeErr
	}

	id := h.nextSubID
	h.nextSubID++

	sub := &staticSubscription{notify: make(chan struct{}, 1), ended: make(chan struct{})}
	sub.subscription = newSubscription(event, func() error {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
		return nil
	})
	sub.start(sub.drain)
	h.subs[id] = sub

	return sub, nil
}

func (s *staticSubscription) push(event Event) {
	s.mu.Lock()
	s.queue = append(s.queue, event)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *staticSubscription) drain(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.ended:
			return nil
		case <-s.notify:
		}

		s.mu.Lock()
		pending := s.queue
		s.queue = nil
		s.mu.Unlock()

		for _, event := range pending {
			if !s.emit(event) {
				return ctx.Err()
			}
		}
	}
}

func (h *StaticHost) Invoke(_ context.Context, command Command) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.invoked = append(h.invoked, command)
	if reason, ok := h.rejections[command.Name]; ok {
		return &errs.CommandError{Command: command.Name, Token: command.Token, Reason: reason}
	}

	switch command.Name {
	case CommandRefreshMonitorInfo:
		payload, err := json.Marshal(h.monitors)
		if err != nil {
			return fmt.Errorf("cant marshal monitors: %w", err)
		}
		h.broadcastLocked(Event{Name: EventMonitorInfo, Payload: payload})
		return nil
	case CommandSwitchMonitorInput:
		args, err := DecodeArgs[SwitchMonitorInputArgs](command)
		if err != nil {
			return &errs.CommandError{Command: command.Name, Token: command.Token, Reason: err.Error()}
		}
		if reason := h.checkSwitchLocked(args); reason != "" {
			return &errs.CommandError{Command: command.Name, Token: command.Token, Reason: reason}
		}
		logrus.WithFields(logrus.Fields{
			"monitor": args.MonitorIdx,
			"input":   args.Input,
		}).Info("Static host accepted input switch")
		return nil
	}

	return &errs.CommandError{Command: command.Name, Token: command.Token, Reason: "unknown command"}
}

func (h *StaticHost) checkSwitchLocked(args SwitchMonitorInputArgs) string {
	for _, monitor := range h.monitors {
		if monitor.Index() != args.MonitorIdx {
			continue
		}
		if monitor.HasInput(args.Input) {
			return ""
		}
		return fmt.Sprintf("monitor %d has no input %s", args.MonitorIdx, args.Input)
	}
	return fmt.Sprintf("no monitor with id %d", args.MonitorIdx)
}

func (h *StaticHost) broadcastLocked(event Event) {
	for _, sub := range h.subs {
		sub.push(event)
	}
}

// Emit pushes a topology to every subscriber without changing the served fixture.
func (h *StaticHost) Emit(infos monitors.MonitorInfos) error {
	payload, err := json.Marshal(orEmpty(infos))
	if err != nil {
		return fmt.Errorf("cant marshal monitors: %w", err)
	}
	h.EmitRaw(payload)
	return nil
}

func (h *StaticHost) EmitRaw(payload json.RawMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastLocked(Event{Name: EventMonitorInfo, Payload: payload})
}

func (h *StaticHost) SetMonitors(infos monitors.MonitorInfos) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.monitors = orEmpty(infos)
}

// Disconnect ends every open event stream as if the host went away.
func (h *StaticHost) Disconnect() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.subs {
		sub.endOnce.Do(func() { close(sub.ended) })
		delete(h.subs, id)
	}
}

// orEmpty keeps an empty topology a list on the wire, null is not a topology.
func orEmpty(infos monitors.MonitorInfos) monitors.MonitorInfos {
	if infos == nil {
		return monitors.MonitorInfos{}
	}
	return infos
}

func (h *StaticHost) FailSubscribe(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribeErr = err
}

func (h *StaticHost) Reject(command, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rejections[command] = reason
}

func (h *StaticHost) Invoked() []Command {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Command, len(h.invoked))
	copy(out, h.invoked)
	return out
}

func (h *StaticHost) ActiveSubscriptions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
