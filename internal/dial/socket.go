// Package dial provides unix socket helpers.
package dial

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/fiffeek/inputswitcher/internal/utils"
	"github.com/sirupsen/logrus"
)

func GetUnixSocketConnection(ctx context.Context, socketPath string) (net.Conn, func(), error) {
	if _, err := os.Stat(socketPath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("host socket not found at %s", socketPath)
	}

	d := &net.Dialer{}
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to socket: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			logrus.WithError(err).Debug("Failed to set connection deadline")
		}
	}

	return conn, func() {
		if err := conn.Close(); err != nil {
			logrus.WithError(err).Debug("Failed to close connection")
		}
	}, nil
}

// ClearDeadline drops any deadline inherited from the dialing context, used for long lived streams.
func ClearDeadline(conn net.Conn) {
	if err := conn.SetDeadline(time.Time{}); err != nil {
		logrus.WithError(err).Debug("Failed to clear connection deadline")
	}
}

func WriteJSONLine(conn net.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("failed to write request: %w", err)
	}

	return nil
}

type SocketJSONResponse interface {
	Validate() error
}

// SyncQuerySocket writes one JSON line and reads exactly one JSON line back.
func SyncQuerySocket[T SocketJSONResponse](conn net.Conn, request any) (T, error) {
	var zero T

	if err := WriteJSONLine(conn, request); err != nil {
		return zero, err
	}

	response, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return zero, fmt.Errorf("failed to read response: %w", err)
	}

	logrus.WithFields(logrus.Fields{"response": string(response)}).Debug("ipc response")

	var res T
	if err := utils.UnmarshalResponse(response, &res); err != nil {
		return zero, fmt.Errorf("failed to parse response: %w", err)
	}

	if err := res.Validate(); err != nil {
		return zero, fmt.Errorf("failed to validate response: %w", err)
	}

	return res, nil
}
