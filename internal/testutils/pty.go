package testutils

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/charmbracelet/x/vt"
	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

var errReadTimeout = errors.New("timeout while reading")

// restoring the cursor is the last thing a bubbletea program writes
const cursorShowSequence = "\x1b[?25h"

// terminal queries a program may block on, with the replies of a dark 1x1 terminal
var queryReplies = []struct {
	query string
	reply string
}{
	{query: "\x1b]11;?", reply: "\x1b]11;rgb:0000/0000/0000\x1b\\"},
	{query: "\x1b[6n", reply: "\x1b[1;1R"},
}

type ptyOptions struct {
	width  int
	height int
}

type PtyOption func(*ptyOptions)

func WithTermSize(width, height int) PtyOption {
	return func(o *ptyOptions) {
		o.width = width
		o.height = height
	}
}

// PtySession runs a binary attached to a pseudo terminal, it collects the raw output and
// replays it into a virtual screen once the binary exits.
type PtySession struct {
	pty      *os.File
	fd       int
	cmd      *exec.Cmd
	screen   *vt.Emulator
	doneCh   chan error
	once     sync.Once
	mu       sync.Mutex
	output   bytes.Buffer
	answered []int
}

func StartPtySession(cmd *exec.Cmd, options ...PtyOption) (*PtySession, error) {
	opts := ptyOptions{width: 100, height: 30}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.width <= 0 || opts.height <= 0 || opts.width > math.MaxUint16 || opts.height > math.MaxUint16 {
		return nil, fmt.Errorf("invalid terminal size %dx%d", opts.width, opts.height)
	}

	f, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(opts.height), // #nosec G115 -- validated above
		Cols: uint16(opts.width),  // #nosec G115 -- validated above
	})
	if err != nil {
		return nil, fmt.Errorf("cant start command in a pty: %w", err)
	}

	s := &PtySession{
		pty:      f,
		fd:       int(f.Fd()),
		cmd:      cmd,
		screen:   vt.NewEmulator(opts.width, opts.height),
		doneCh:   make(chan error, 1),
		answered: make([]int, len(queryReplies)),
	}
	if err := unix.SetNonblock(s.fd, true); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("cant set nonblocking on pty fd: %w", err)
	}

	go func() {
		s.doneCh <- cmd.Wait()
	}()

	return s, nil
}

func (s *PtySession) Type(keys string) error {
	data := []byte(keys)
	for len(data) > 0 {
		n, err := unix.Write(s.fd, data)
		if errors.Is(err, unix.EAGAIN) {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if err != nil {
			return fmt.Errorf("cant write keys: %w", err)
		}
		data = data[n:]
	}
	return nil
}

// readChunk returns false once the other side of the pty is gone.
func (s *PtySession) readChunk(timeout time.Duration) (bool, error) {
	pollFds := []unix.PollFd{{Fd: int32(s.fd), Events: unix.POLLIN}} // #nosec G115 -- fds are small
	n, err := unix.Poll(pollFds, int(timeout.Milliseconds()))
	if errors.Is(err, unix.EINTR) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("cant poll: %w", err)
	}
	if n == 0 {
		return true, errReadTimeout
	}

	buf := make([]byte, 4096)
	read, err := unix.Read(s.fd, buf)
	switch {
	case errors.Is(err, unix.EAGAIN):
		return true, nil
	case errors.Is(err, unix.EIO), read == 0 && err == nil:
		return false, nil
	case err != nil:
		return false, fmt.Errorf("cant read from pty: %w", err)
	}

	s.mu.Lock()
	s.output.Write(buf[:read])
	replies := s.pendingRepliesLocked()
	s.mu.Unlock()

	for _, reply := range replies {
		if err := s.Type(reply); err != nil {
			return true, fmt.Errorf("cant answer terminal query: %w", err)
		}
	}
	return true, nil
}

// pendingRepliesLocked answers every query seen in the output once, queries may span reads.
func (s *PtySession) pendingRepliesLocked() []string {
	replies := []string{}
	for i, q := range queryReplies {
		seen := bytes.Count(s.output.Bytes(), []byte(q.query))
		for ; s.answered[i] < seen; s.answered[i]++ {
			replies = append(replies, q.reply)
		}
	}
	return replies
}

func (s *PtySession) Output() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Clone(s.output.Bytes())
}

// WaitFor reads the output until it contains expected or the duration passes.
func (s *PtySession) WaitFor(expected string, duration time.Duration) error {
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if bytes.Contains(s.Output(), []byte(expected)) {
			return nil
		}
		open, err := s.readChunk(50 * time.Millisecond)
		if err != nil && !errors.Is(err, errReadTimeout) {
			return err
		}
		if !open {
			break
		}
	}
	if bytes.Contains(s.Output(), []byte(expected)) {
		return nil
	}
	return fmt.Errorf("%q not found after %s, output:\n%q", expected, duration, string(s.Output()))
}

// Finish drains the output until the binary exits and returns the final screen.
func (s *PtySession) Finish(timeout time.Duration) (string, error) {
	var exitErr error
	s.once.Do(func() {
		defer func() { _ = s.pty.Close() }()

		deadline := time.After(timeout)
		for {
			select {
			case err := <-s.doneCh:
				for range 100 {
					if open, _ := s.readChunk(10 * time.Millisecond); !open {
						break
					}
					if bytes.HasSuffix(s.Output(), []byte(cursorShowSequence)) {
						break
					}
				}
				if err != nil {
					exitErr = fmt.Errorf("program exited: %w", err)
				}
				return
			case <-deadline:
				_ = s.cmd.Process.Kill()
				exitErr = errors.New("timeout while waiting for the program to exit")
				return
			default:
				if _, err := s.readChunk(50 * time.Millisecond); err != nil && !errors.Is(err, errReadTimeout) {
					exitErr = err
					return
				}
			}
		}
	})

	output := s.Output()
	if pos := bytes.LastIndex(output, []byte(cursorShowSequence)); pos != -1 {
		output = output[:pos]
	}
	if _, err := s.screen.Write(output); err != nil {
		return "", fmt.Errorf("cant hydrate virtual terminal: %w", err)
	}

	return s.screen.String(), exitErr
}
