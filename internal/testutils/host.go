package testutils

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func SetupHostSocket(ctx context.Context, t *testing.T, socketDir, name string) net.Listener {
	socketPath := filepath.Join(socketDir, name)
	lc := &net.ListenConfig{}
	listener, err := lc.Listen(ctx, "unix", socketPath)
	require.NoError(t, err, "failed to create a test socket %s", socketPath)
	t.Cleanup(func() {
		_ = listener.Close()
	})
	return listener
}

// SetupFakeEventsServer accepts one subscriber, checks its subscribe line and streams lines until ctx ends.
func SetupFakeEventsServer(ctx context.Context, t *testing.T, listener net.Listener,
	expectedSubscribe string, lines []string,
) chan struct{} {
	serverDone := make(chan struct{})
	go func() {
		defer func() {
			Logf(t, "Fake host events server goroutine exiting")
			close(serverDone)
		}()

		conn, err := listener.Accept()
		if err != nil {
			Logf(t, "Fake host events server: accept failed: %v", err)
			return
		}
		defer func() {
			_ = conn.Close()
		}()

		reader := bufio.NewReader(conn)
		request, err := reader.ReadString('\n')
		if err != nil {
			t.Errorf("Failed to read subscribe request: %v", err)
			return
		}
		assert.JSONEq(t, expectedSubscribe, request, "wrong subscribe request")

		for i, line := range lines {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if _, err := conn.Write([]byte(line + "\n")); err != nil {
				t.Errorf("Failed to write event %d: %v", i, err)
				return
			}
			Logf(t, "Wrote event %d on the events socket: %s", i, line)
			time.Sleep(5 * time.Millisecond)
		}

		<-ctx.Done()
	}()
	return serverDone
}

type FakeCommand struct {
	Command string          `json:"command"`
	Args    json.RawMessage `json:"args"`
	Token   string          `json:"token"`
}

type FakeAck struct {
	Token string `json:"token"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// FakeCommandsServer answers every command line with the ack produced by respond.
type FakeCommandsServer struct {
	mu       sync.Mutex
	received []FakeCommand
	done     chan struct{}
}

func SetupFakeCommandsServer(t *testing.T, listener net.Listener,
	respond func(FakeCommand) FakeAck,
) *FakeCommandsServer {
	server := &FakeCommandsServer{done: make(chan struct{})}
	go func() {
		defer close(server.done)
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			server.handle(t, conn, respond)
		}
	}()
	return server
}

func (s *FakeCommandsServer) handle(t *testing.T, conn net.Conn, respond func(FakeCommand) FakeAck) {
	defer func() {
		_ = conn.Close()
	}()

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		t.Errorf("Failed to read command: %v", err)
		return
	}

	var command FakeCommand
	if !assert.NoError(t, json.Unmarshal(line, &command), "command is not valid json") {
		return
	}

	s.mu.Lock()
	s.received = append(s.received, command)
	s.mu.Unlock()

	ack, err := json.Marshal(respond(command))
	require.NoError(t, err)
	_, err = conn.Write(append(ack, '\n'))
	assert.NoError(t, err, "failed to write ack")
}

func (s *FakeCommandsServer) Received() []FakeCommand {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FakeCommand, len(s.received))
	copy(out, s.received)
	return out
}

func AckOK(command FakeCommand) FakeAck {
	return FakeAck{Token: command.Token, OK: true}
}
