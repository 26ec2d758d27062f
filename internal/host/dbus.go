package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fiffeek/inputswitcher/internal/errs"
	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
)

const (
	dbusInvokeMember = "Invoke"
	dbusEventMember  = "Event"

	dbusBusErrorPrefix = "org.freedesktop.DBus.Error."
)

type DBusTarget struct {
	Destination string
	Path        string
	Interface   string
}

func (t DBusTarget) fields() logrus.Fields {
	return logrus.Fields{
		"destination": t.Destination,
		"path":        t.Path,
		"interface":   t.Interface,
	}
}

// DBusHost invokes commands as method calls and receives events as signals on a single object.
type DBusHost struct {
	conn   *dbus.Conn
	target DBusTarget
}

func NewDBusHost(conn *dbus.Conn, target DBusTarget) *DBusHost {
	return &DBusHost{conn: conn, target: target}
}

func (h *DBusHost) matchOptions() []dbus.MatchOption {
	return []dbus.MatchOption{
		dbus.WithMatchInterface(h.target.Interface),
		dbus.WithMatchMember(dbusEventMember),
		dbus.WithMatchObjectPath(dbus.ObjectPath(h.target.Path)),
	}
}

func (h *DBusHost) Subscribe(ctx context.Context, event string) (Subscription, error) {
	if err := h.conn.AddMatchSignalContext(ctx, h.matchOptions()...); err != nil {
		logrus.WithError(err).WithFields(h.target.fields()).Debug("Failed to add D-Bus match rule")
		return nil, fmt.Errorf("%w: cant add signal rule for dbus: %w", errs.ErrHostUnavailable, err)
	}

	signals := make(chan *dbus.Signal, 10)
	h.conn.Signal(signals)

	sub := newSubscription(event, func() error {
		h.conn.RemoveSignal(signals)
		if err := h.conn.RemoveMatchSignal(h.matchOptions()...); err != nil {
			return fmt.Errorf("cant remove signal rule for dbus: %w", err)
		}
		return nil
	})
	expectedName := h.target.Interface + "." + dbusEventMember
	sub.start(func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case signal, ok := <-signals:
				if !ok {
					return errors.New("dbus signals channel closed")
				}
				if signal.Name != expectedName || string(signal.Path) != h.target.Path {
					logrus.WithField("signal_name", signal.Name).Debug("Ignoring unrelated D-Bus signal")
					continue
				}

				name, payload, err := decodeEventSignal(signal)
				if err != nil {
					if !sub.emit(Event{Name: event, Err: err}) {
						return ctx.Err()
					}
					continue
				}
				if name != event {
					logrus.WithField("event", name).Debug("Skipping event for another channel")
					continue
				}
				if !sub.emit(Event{Name: name, Payload: payload}) {
					return ctx.Err()
				}
			}
		}
	})

	logrus.WithFields(h.target.fields()).Debug("Subscribed to D-Bus host events")
	return sub, nil
}

func decodeEventSignal(signal *dbus.Signal) (string, json.RawMessage, error) {
	if len(signal.Body) != 2 {
		return "", nil, fmt.Errorf("%w: expected 2 signal arguments, got %d", errs.ErrMalformedPayload, len(signal.Body))
	}
	name, ok := signal.Body[0].(string)
	if !ok {
		return "", nil, fmt.Errorf("%w: event name is not a string", errs.ErrMalformedPayload)
	}
	payload, ok := signal.Body[1].(string)
	if !ok {
		return "", nil, fmt.Errorf("%w: event payload is not a string", errs.ErrMalformedPayload)
	}
	return name, json.RawMessage(payload), nil
}

func (h *DBusHost) Invoke(ctx context.Context, command Command) error {
	args := "{}"
	if command.Args != nil {
		raw, err := json.Marshal(command.Args)
		if err != nil {
			return fmt.Errorf("cant marshal args for %s: %w", command.Name, err)
		}
		args = string(raw)
	}

	obj := h.conn.Object(h.target.Destination, dbus.ObjectPath(h.target.Path))
	logrus.WithFields(h.target.fields()).WithField("command", command.Name).Debug("About to make D-Bus method call")

	var ok bool
	var reason string
	err := obj.CallWithContext(ctx, h.target.Interface+"."+dbusInvokeMember, 0,
		command.Name, args, command.Token).Store(&ok, &reason)
	if err != nil {
		return classifyCallError(command, err)
	}

	return checkAck(command, Ack{Token: command.Token, OK: ok, Error: reason})
}

// classifyCallError treats errors raised by the host object as rejections and bus level errors as an unreachable host.
func classifyCallError(command Command, err error) error {
	var name string
	var remote dbus.Error
	var remotePtr *dbus.Error
	switch {
	case errors.As(err, &remote):
		name = remote.Name
	case errors.As(err, &remotePtr):
		name = remotePtr.Name
	default:
		return fmt.Errorf("%w: D-Bus call %s failed: %w", errs.ErrHostUnavailable, command.Name, err)
	}

	if strings.HasPrefix(name, dbusBusErrorPrefix) {
		return fmt.Errorf("%w: D-Bus call %s failed: %w", errs.ErrHostUnavailable, command.Name, err)
	}
	return &errs.CommandError{Command: command.Name, Token: command.Token, Reason: err.Error()}
}
