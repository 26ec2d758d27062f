package dispatcher_test

import (
	"errors"
	"testing"

	"github.com/fiffeek/inputswitcher/internal/dispatcher"
	"github.com/fiffeek/inputswitcher/internal/errs"
	"github.com/fiffeek/inputswitcher/internal/host"
	"github.com/fiffeek/inputswitcher/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_SwitchInput(t *testing.T) {
	h := host.NewStaticHost(nil)
	d := dispatcher.NewDispatcher(h, "ui-")

	// the static host rejects unknown monitors, the dispatcher still sends exactly one command
	err := d.SwitchInput(t.Context(), 3, "HDMI2")
	require.Error(t, err)

	invoked := h.Invoked()
	require.Len(t, invoked, 1)
	assert.Equal(t, host.CommandSwitchMonitorInput, invoked[0].Name)
	assert.Equal(t, host.SwitchMonitorInputArgs{MonitorIdx: 3, Input: "HDMI2"}, invoked[0].Args)
	assert.Equal(t, "ui-1", invoked[0].Token)
}

func TestDispatcher_TokensAreUnique(t *testing.T) {
	h := host.NewStaticHost(testutils.DellU2720Q())
	d := dispatcher.NewDispatcher(h, "")

	require.NoError(t, d.RequestRefresh(t.Context()))
	require.NoError(t, d.SwitchInput(t.Context(), 0, "DP1"))
	require.NoError(t, d.RequestRefresh(t.Context()))

	seen := map[string]bool{}
	for _, command := range h.Invoked() {
		assert.False(t, seen[command.Token], "token %s reused", command.Token)
		seen[command.Token] = true
	}
	assert.Len(t, seen, 3)
}

func TestDispatcher_Errors(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*host.StaticHost)
		call     func(*dispatcher.Dispatcher, *testing.T) error
		expected error
	}{
		{
			name:  "refresh rejected",
			setup: func(h *host.StaticHost) { h.Reject(host.CommandRefreshMonitorInfo, "busy") },
			call: func(d *dispatcher.Dispatcher, t *testing.T) error {
				return d.RequestRefresh(t.Context())
			},
			expected: errs.ErrCommandRejected,
		},
		{
			name:  "switch to unknown input",
			setup: func(*host.StaticHost) {},
			call: func(d *dispatcher.Dispatcher, t *testing.T) error {
				return d.SwitchInput(t.Context(), 0, "VGA1")
			},
			expected: errs.ErrCommandRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := host.NewStaticHost(testutils.DellU2720Q())
			tt.setup(h)
			err := tt.call(dispatcher.NewDispatcher(h, ""), t)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.expected))
			assert.Len(t, h.Invoked(), 1, "failures are never retried")
		})
	}
}

func TestDispatcher_HostUnavailable(t *testing.T) {
	d := dispatcher.NewDispatcher(host.NewSocketHost(t.TempDir()), "")
	err := d.RequestRefresh(t.Context())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrHostUnavailable))
	assert.False(t, errors.Is(err, errs.ErrCommandRejected))
}
