package tui_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/fiffeek/inputswitcher/internal/bridge"
	"github.com/fiffeek/inputswitcher/internal/config"
	"github.com/fiffeek/inputswitcher/internal/dispatcher"
	"github.com/fiffeek/inputswitcher/internal/errs"
	"github.com/fiffeek/inputswitcher/internal/host"
	"github.com/fiffeek/inputswitcher/internal/monitors"
	"github.com/fiffeek/inputswitcher/internal/testutils"
	"github.com/fiffeek/inputswitcher/internal/tui"
	"github.com/fiffeek/inputswitcher/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type step struct {
	msg                   tea.Msg
	waitFor               *time.Duration
	expectOutputToContain string
}

type fakeBackend struct {
	mu        sync.Mutex
	refreshes int
	switches  []host.SwitchMonitorInputArgs
	switchErr error
}

func (f *fakeBackend) RequestRefresh(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return nil
}

func (f *fakeBackend) SwitchInput(_ context.Context, id int, input string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.switches = append(f.switches, host.SwitchMonitorInputArgs{MonitorIdx: id, Input: input})
	return f.switchErr
}

func (f *fakeBackend) Switches() []host.SwitchMonitorInputArgs {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]host.SwitchMonitorInputArgs{}, f.switches...)
}

func (f *fakeBackend) Refreshes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshes
}

var (
	footer      = "enter toggle/switch"
	defaultWait = 500 * time.Millisecond
	runFor      = 3 * time.Second
	enter       = tea.KeyMsg{Type: tea.KeyEnter}
	down        = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}
)

func runes(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func waitForOutput(t *testing.T, tm *teatest.TestModel, expected string, wait time.Duration) {
	t.Helper()
	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte(expected))
	}, teatest.WithCheckInterval(time.Millisecond*50), teatest.WithDuration(wait))
}

func TestModel_Update_UserFlows(t *testing.T) {
	withConfirmation := &config.UISection{ConfirmSwitch: utils.BoolPtr(true)}
	rejected := &errs.CommandError{
		Command: host.CommandSwitchMonitorInput, Token: "ui-1", Reason: "monitor 0 has no input HDMI1",
	}

	tests := []struct {
		name      string
		ui        *config.UISection
		display   *config.DisplaySection
		labels    map[string]string
		switchErr error
		steps     []step
		check     func(t *testing.T, m tui.Model, backend *fakeBackend)
	}{
		{
			name: "expand_and_switch",
			steps: []step{
				{msg: tui.TopologyReceived{Monitors: testutils.DellU2720Q()}, expectOutputToContain: "1. Dell U2720Q"},
				{msg: enter, expectOutputToContain: "HDMI 1 (HDMI1)"},
				{msg: down},
				{msg: down, expectOutputToContain: "►     DP1"},
				{msg: enter, expectOutputToContain: "Switch Input: success"},
			},
			check: func(t *testing.T, m tui.Model, backend *fakeBackend) {
				assert.Equal(t, []host.SwitchMonitorInputArgs{{MonitorIdx: 0, Input: "DP1"}}, backend.Switches())
				assert.Equal(t, 0, backend.Refreshes())
				assert.True(t, m.Toggles().Expanded(0))
				assert.Equal(t, 1, m.Snapshot().Len())
			},
		},
		{
			name: "id_order_and_custom_labels",
			display: &config.DisplaySection{
				Order:   utils.JustPtr(config.IDOrder),
				Ordinal: utils.JustPtr(config.PositionOrdinal),
			},
			labels: map[string]string{"HDMI1": "Console"},
			steps: []step{
				{
					msg: tui.TopologyReceived{Monitors: monitors.MonitorInfos{
						monitors.NewMonitorInfo(4, "LG 27GL850", "DisplayPort1"),
						monitors.NewMonitorInfo(1, "Dell U2720Q", "HDMI1"),
					}},
					expectOutputToContain: "2. LG 27GL850",
				},
				{msg: enter, expectOutputToContain: "Console (HDMI1)"},
				{msg: down},
				{msg: enter, expectOutputToContain: "Switch Input: success"},
			},
			check: func(t *testing.T, m tui.Model, backend *fakeBackend) {
				assert.Equal(t, []host.SwitchMonitorInputArgs{{MonitorIdx: 1, Input: "HDMI1"}}, backend.Switches())
				assert.True(t, m.Toggles().Expanded(1))
				assert.False(t, m.Toggles().Expanded(4))
			},
		},
		{
			name: "collapse_from_row",
			steps: []step{
				{msg: tui.TopologyReceived{Monitors: testutils.DellU2720Q()}, expectOutputToContain: "1. Dell U2720Q"},
				{msg: enter, expectOutputToContain: "HDMI 1 (HDMI1)"},
				{msg: down},
				{msg: tea.KeyMsg{Type: tea.KeyLeft}, expectOutputToContain: "► ▸ 1. Dell U2720Q"},
			},
			check: func(t *testing.T, m tui.Model, backend *fakeBackend) {
				assert.False(t, m.Toggles().Expanded(0))
				assert.Empty(t, backend.Switches())
			},
		},
		{
			name: "refresh_clears_store",
			steps: []step{
				{msg: tui.TopologyReceived{Monitors: testutils.DualDesk()}, expectOutputToContain: "2. LG 27GL850"},
				{msg: enter, expectOutputToContain: "DP 1 (DisplayPort1)"},
				{msg: runes('r'), expectOutputToContain: "Waiting for monitors..."},
			},
			check: func(t *testing.T, m tui.Model, backend *fakeBackend) {
				assert.Equal(t, 1, backend.Refreshes())
				assert.Equal(t, 0, m.Snapshot().Len())
				assert.True(t, m.Tree().Empty())
				assert.True(t, m.Toggles().Expanded(0), "toggles survive a refresh")
				assert.Equal(t, 2, m.Toggles().Len())
			},
		},
		{
			name: "new_monitor_is_reconciled",
			steps: []step{
				{msg: tui.TopologyReceived{Monitors: testutils.DellU2720Q()}, expectOutputToContain: "1. Dell U2720Q"},
				{msg: enter, expectOutputToContain: "HDMI 1 (HDMI1)"},
				{
					msg: tui.TopologyReceived{Monitors: monitors.MonitorInfos{
						monitors.NewMonitorInfo(0, "Dell U2720Q", "HDMI1", "DP1"),
						monitors.NewMonitorInfo(5, "LG 27GL850", "HDMI1"),
					}},
					expectOutputToContain: "6. LG 27GL850",
				},
			},
			check: func(t *testing.T, m tui.Model, _ *fakeBackend) {
				assert.Equal(t, 2, m.Toggles().Len())
				assert.True(t, m.Toggles().Expanded(0))
				assert.True(t, m.Toggles().Has(5))
				assert.False(t, m.Toggles().Expanded(5))
				assert.Equal(t, []int{0, 5}, m.Snapshot().IDs())
			},
		},
		{
			name: "confirm_switch_accepted",
			ui:   withConfirmation,
			steps: []step{
				{msg: tui.TopologyReceived{Monitors: testutils.DellU2720Q()}, expectOutputToContain: "1. Dell U2720Q"},
				{msg: enter, expectOutputToContain: "HDMI 1 (HDMI1)"},
				{msg: down},
				{msg: enter, expectOutputToContain: "Switch Dell U2720Q to HDMI 1?"},
				{msg: runes('y'), expectOutputToContain: "Switch Input: success"},
			},
			check: func(t *testing.T, m tui.Model, backend *fakeBackend) {
				assert.Equal(t, []host.SwitchMonitorInputArgs{{MonitorIdx: 0, Input: "HDMI1"}}, backend.Switches())
				assert.False(t, m.ConfirmationShown())
			},
		},
		{
			name: "confirm_switch_declined",
			ui:   withConfirmation,
			steps: []step{
				{msg: tui.TopologyReceived{Monitors: testutils.DellU2720Q()}, expectOutputToContain: "1. Dell U2720Q"},
				{msg: enter, expectOutputToContain: "HDMI 1 (HDMI1)"},
				{msg: down},
				{msg: enter, expectOutputToContain: "Switch Dell U2720Q to HDMI 1?"},
				{msg: runes('n'), expectOutputToContain: "Dell U2720Q"},
			},
			check: func(t *testing.T, m tui.Model, backend *fakeBackend) {
				assert.Empty(t, backend.Switches())
				assert.False(t, m.ConfirmationShown())
			},
		},
		{
			name:      "switch_rejected_by_host",
			switchErr: rejected,
			steps: []step{
				{msg: tui.TopologyReceived{Monitors: testutils.DellU2720Q()}, expectOutputToContain: "1. Dell U2720Q"},
				{msg: enter, expectOutputToContain: "HDMI 1 (HDMI1)"},
				{msg: down},
				{msg: enter, expectOutputToContain: "Command Rejected (monitor 0 has no input HDMI1)"},
			},
			check: func(t *testing.T, m tui.Model, backend *fakeBackend) {
				assert.Len(t, backend.Switches(), 1)
				assert.Equal(t, 1, m.Snapshot().Len())
				assert.Contains(t, m.Header().GetError(), "Command Rejected")
			},
		},
		{
			name: "mouse_toggle",
			steps: []step{
				{msg: tui.TopologyReceived{Monitors: testutils.DualDesk()}, expectOutputToContain: "2. LG 27GL850"},
				{
					msg:                   tea.MouseMsg{X: 6, Y: 3, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft},
					expectOutputToContain: "HDMI 2 (HDMI2)",
				},
			},
			check: func(t *testing.T, m tui.Model, _ *fakeBackend) {
				assert.False(t, m.Toggles().Expanded(0))
				assert.True(t, m.Toggles().Expanded(1))
			},
		},
		{
			name: "malformed_payload_keeps_store",
			steps: []step{
				{msg: tui.TopologyReceived{Monitors: testutils.DellU2720Q()}, expectOutputToContain: "1. Dell U2720Q"},
				{
					msg:                   tui.NewOperationStatus(tui.OperationNameTopology, errs.ErrMalformedPayload),
					expectOutputToContain: "Topology Update: Malformed Payload",
				},
			},
			check: func(t *testing.T, m tui.Model, _ *fakeBackend) {
				assert.Equal(t, 1, m.Snapshot().Len())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testutils.NewTestConfig(t).WithUI(tt.ui).WithDisplay(tt.display).WithInputLabels(tt.labels).Get()
			backend := &fakeBackend{switchErr: tt.switchErr}
			model := tui.NewModel(t.Context(), cfg, backend, nil, utils.JustPtr(runFor))
			tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(120, 30))

			// wait for app to be `ready`, just check if the footer is up
			waitForOutput(t, tm, footer, defaultWait)

			for _, step := range tt.steps {
				tm.Send(step.msg)
				if step.expectOutputToContain != "" {
					stepWait := defaultWait
					if step.waitFor != nil {
						stepWait = *step.waitFor
					}
					waitForOutput(t, tm, step.expectOutputToContain, stepWait)
				}
			}
			tm.Send(tea.Quit())
			tm.WaitFinished(t, teatest.WithFinalTimeout(runFor))

			fm := tm.FinalModel(t)
			m, ok := fm.(tui.Model)
			require.True(t, ok, "the model should be of the same type")
			tt.check(t, m, backend)
		})
	}
}

func relay(b *bridge.EventBridge, tm *teatest.TestModel) {
	for update := range b.Listen() {
		tm.Send(tui.FromBridgeUpdate(update))
		if errors.Is(update.Err, errs.ErrSubscriptionFailed) {
			tm.Send(tui.BridgeStateChanged{State: b.State()})
		}
	}
}

func TestModel_EndToEnd_StaticHost(t *testing.T) {
	staticHost := host.NewStaticHost(testutils.DellU2720Q())
	b := bridge.NewEventBridge(staticHost, dispatcher.NewDispatcher(staticHost, "bridge-"))
	t.Cleanup(func() { require.NoError(t, b.Stop()) })

	cfg := testutils.NewTestConfig(t).Get()
	model := tui.NewModel(t.Context(), cfg, dispatcher.NewDispatcher(staticHost, "ui-"), b, utils.JustPtr(runFor))
	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(120, 30))
	go relay(b, tm)

	waitForOutput(t, tm, "► ▸ 1. Dell U2720Q", time.Second)

	tm.Send(enter)
	waitForOutput(t, tm, "HDMI1", defaultWait)
	tm.Send(down)
	tm.Send(down)
	tm.Send(enter)
	waitForOutput(t, tm, "Switch Input: success", defaultWait)

	tm.Send(tea.Quit())
	tm.WaitFinished(t, teatest.WithFinalTimeout(runFor))
	m, ok := tm.FinalModel(t).(tui.Model)
	require.True(t, ok)
	assert.Equal(t, bridge.Active, b.State())

	invoked := staticHost.Invoked()
	require.Len(t, invoked, 2)
	assert.Equal(t, host.CommandRefreshMonitorInfo, invoked[0].Name)
	assert.Equal(t, host.CommandSwitchMonitorInput, invoked[1].Name)
	args, err := host.DecodeArgs[host.SwitchMonitorInputArgs](invoked[1])
	require.NoError(t, err)
	assert.Equal(t, host.SwitchMonitorInputArgs{MonitorIdx: 0, Input: "DP1"}, args)
	assert.NotEqual(t, invoked[0].Token, invoked[1].Token)

	assert.Equal(t, []int{0}, m.Snapshot().IDs())
	assert.True(t, m.Toggles().Expanded(0))
	assert.Equal(t, 1, m.Toggles().Len())
}

func TestModel_ResubscribeAfterFailure(t *testing.T) {
	staticHost := host.NewStaticHost(testutils.DualDesk())
	staticHost.FailSubscribe(errors.New("host is starting"))
	b := bridge.NewEventBridge(staticHost, dispatcher.NewDispatcher(staticHost, "bridge-"))
	t.Cleanup(func() { require.NoError(t, b.Stop()) })

	cfg := testutils.NewTestConfig(t).Get()
	model := tui.NewModel(t.Context(), cfg, dispatcher.NewDispatcher(staticHost, "ui-"), b, utils.JustPtr(runFor))
	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(120, 30))
	go relay(b, tm)

	waitForOutput(t, tm, "Subscribe: Subscription Failed", time.Second)
	assert.Equal(t, bridge.Uninitialized, b.State())

	staticHost.FailSubscribe(nil)
	tm.Send(runes('r'))
	waitForOutput(t, tm, "2. LG 27GL850", time.Second)

	tm.Send(tea.Quit())
	tm.WaitFinished(t, teatest.WithFinalTimeout(runFor))
	m, ok := tm.FinalModel(t).(tui.Model)
	require.True(t, ok)

	assert.Equal(t, bridge.Active, b.State())
	assert.Equal(t, 1, staticHost.ActiveSubscriptions())
	assert.Equal(t, []int{0, 1}, m.Snapshot().IDs())
}
