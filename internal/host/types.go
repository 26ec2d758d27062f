// Package host provides clients for the native host process that owns the monitors.
package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	EventMonitorInfo = "monitor-info"

	CommandRefreshMonitorInfo = "refresh_monitor_info"
	CommandSwitchMonitorInput = "switch_monitor_input"
)

// Host exposes the two primitives supplied by the native shell.
type Host interface {
	Subscribe(ctx context.Context, event string) (Subscription, error)
	Invoke(ctx context.Context, command Command) error
}

// Subscription delivers events in emission order until Close is called or the host goes away,
// at which point the events channel is closed.
type Subscription interface {
	Events() <-chan Event
	Close() error
}

type Event struct {
	Name    string
	Payload json.RawMessage
	Err     error
}

type Command struct {
	Name  string `json:"command"`
	Args  any    `json:"args,omitempty"`
	Token string `json:"token"`
}

type SwitchMonitorInputArgs struct {
	MonitorIdx int    `json:"monitorIdx"`
	Input      string `json:"input"`
}

type Ack struct {
	Token string `json:"token"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func (a Ack) Validate() error {
	if a.Token == "" {
		return errors.New("ack token cant be empty")
	}
	return nil
}

type eventEnvelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

func (e eventEnvelope) Validate() error {
	if e.Event == "" {
		return errors.New("event name cant be empty")
	}
	return nil
}

type subscribeRequest struct {
	Subscribe string `json:"subscribe"`
}

func DecodeArgs[T any](command Command) (T, error) {
	var zero T
	if typed, ok := command.Args.(T); ok {
		return typed, nil
	}

	raw, err := json.Marshal(command.Args)
	if err != nil {
		return zero, fmt.Errorf("cant marshal args of %s: %w", command.Name, err)
	}
	var args T
	if err := json.Unmarshal(raw, &args); err != nil {
		return zero, fmt.Errorf("cant decode args of %s: %w", command.Name, err)
	}
	return args, nil
}
