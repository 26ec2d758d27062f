package host

import (
	"bufio"
	"context"
	"fmt"
	"path/filepath"

	"github.com/fiffeek/inputswitcher/internal/dial"
	"github.com/fiffeek/inputswitcher/internal/errs"
	"github.com/fiffeek/inputswitcher/internal/utils"
	"github.com/sirupsen/logrus"
)

func GetEventsSocket(socketDir string) string {
	return filepath.Join(socketDir, "events.sock")
}

func GetCommandsSocket(socketDir string) string {
	return filepath.Join(socketDir, "commands.sock")
}

// SocketHost talks JSON lines to the host over two unix sockets.
type SocketHost struct {
	socketDir string
}

func NewSocketHost(socketDir string) *SocketHost {
	return &SocketHost{socketDir: socketDir}
}

func (h *SocketHost) Subscribe(ctx context.Context, event string) (Subscription, error) {
	socketPath := GetEventsSocket(h.socketDir)
	conn, teardown, err := dial.GetUnixSocketConnection(ctx, socketPath)
	if err != nil {
		return nil, fmt.Errorf("%w: cant open events socket %s: %w", errs.ErrHostUnavailable, socketPath, err)
	}

	if err := dial.WriteJSONLine(conn, subscribeRequest{Subscribe: event}); err != nil {
		teardown()
		return nil, fmt.Errorf("cant send subscribe request: %w", err)
	}
	dial.ClearDeadline(conn)

	sub := newSubscription(event, func() error {
		teardown()
		return nil
	})
	sub.start(func(ctx context.Context) error {
		scanner := bufio.NewScanner(conn)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var envelope eventEnvelope
			if err := utils.UnmarshalResponse(line, &envelope); err != nil {
				if !sub.emit(Event{Name: event, Err: fmt.Errorf("%w: %w", errs.ErrMalformedPayload, err)}) {
					return ctx.Err()
				}
				continue
			}
			if err := envelope.Validate(); err != nil {
				if !sub.emit(Event{Name: event, Err: fmt.Errorf("%w: %w", errs.ErrMalformedPayload, err)}) {
					return ctx.Err()
				}
				continue
			}
			if envelope.Event != event {
				logrus.WithField("event", envelope.Event).Debug("Skipping event for another channel")
				continue
			}

			if !sub.emit(Event{Name: envelope.Event, Payload: envelope.Payload}) {
				return ctx.Err()
			}
		}

		if err := scanner.Err(); err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return fmt.Errorf("scanner error: %w", err)
			}
		}

		logrus.Debug("Host events stream finished")
		return nil
	})

	return sub, nil
}

func (h *SocketHost) Invoke(ctx context.Context, command Command) error {
	socketPath := GetCommandsSocket(h.socketDir)
	conn, teardown, err := dial.GetUnixSocketConnection(ctx, socketPath)
	if err != nil {
		return fmt.Errorf("%w: cant open commands socket %s: %w", errs.ErrHostUnavailable, socketPath, err)
	}
	defer teardown()

	ack, err := dial.SyncQuerySocket[Ack](conn, command)
	if err != nil {
		return fmt.Errorf("%s failed: %w", command.Name, err)
	}

	return checkAck(command, ack)
}

func checkAck(command Command, ack Ack) error {
	if ack.Token != command.Token {
		return fmt.Errorf("%w: ack token %s does not match %s", errs.ErrMalformedPayload, ack.Token, command.Token)
	}
	if !ack.OK {
		return &errs.CommandError{Command: command.Name, Token: command.Token, Reason: ack.Error}
	}
	return nil
}
