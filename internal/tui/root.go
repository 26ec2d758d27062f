// Package tui renders the monitor tree and turns user interactions into toggles and host commands
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fiffeek/inputswitcher/internal/bridge"
	"github.com/fiffeek/inputswitcher/internal/config"
	"github.com/fiffeek/inputswitcher/internal/errs"
	"github.com/fiffeek/inputswitcher/internal/monitors"
	"github.com/sirupsen/logrus"
)

const Title = "InputSwitcher"

// Backend sends commands to the host, results are reported and never applied to state.
type Backend interface {
	RequestRefresh(ctx context.Context) error
	SwitchInput(ctx context.Context, id int, input string) error
}

// Subscriber (re)establishes the topology subscription.
type Subscriber interface {
	Start(ctx context.Context) error
	State() bridge.State
}

type subscribeFinished struct {
	state bridge.State
	err   error
}

type Model struct {
	ctx     context.Context
	config  *config.Config
	keys    keyMap
	layout  *Layout
	help    help.Model
	header  *Header
	tree    *MonitorTree
	store   *monitors.Store
	toggles monitors.ToggleState

	settings   Settings
	backend    Backend
	subscriber Subscriber

	confirmationPrompt     *ConfirmationPrompt
	showConfirmationPrompt bool

	// for tests
	duration *time.Duration
	start    time.Time
}

// NewModel builds the UI, subscriber may be nil when topology messages are delivered by the caller.
func NewModel(ctx context.Context, cfg *config.Config, backend Backend, subscriber Subscriber,
	duration *time.Duration,
) Model {
	model := Model{
		ctx:        ctx,
		config:     cfg,
		keys:       rootKeyMap,
		layout:     NewLayout(),
		help:       help.New(),
		header:     NewHeader(Title),
		tree:       NewMonitorTree(),
		store:      monitors.NewStore(),
		toggles:    monitors.NewToggleState(),
		settings:   NewSettings(cfg.Get()),
		backend:    backend,
		subscriber: subscriber,
		start:      time.Now(),
		duration:   duration,
	}
	model.rebuild()

	return model
}

func (m Model) Init() tea.Cmd {
	if m.subscriber == nil {
		return nil
	}
	return m.subscribe()
}

func (m Model) timeLeft() time.Duration {
	// infinite time effectively when no duration is passed
	if m.duration == nil {
		return time.Minute
	}
	return *m.duration - time.Since(m.start)
}

func (m Model) Snapshot() *monitors.Snapshot {
	return m.store.Snapshot()
}

func (m Model) Toggles() monitors.ToggleState {
	return m.toggles
}

func (m Model) Tree() Tree {
	return m.tree.Tree()
}

func (m Model) Header() *Header {
	return m.header
}

func (m Model) ConfirmationShown() bool {
	return m.showConfirmationPrompt
}

func (m *Model) rebuild() {
	m.tree.SetTree(BuildTree(m.store.Snapshot(), m.toggles, m.settings))
}

func (m Model) View() string {
	logrus.Debug("Rendering the root model")

	if m.showConfirmationPrompt && m.confirmationPrompt != nil {
		m.confirmationPrompt.SetWidth(m.layout.PromptWidth())
		m.confirmationPrompt.SetHeight(m.layout.PromptHeight())
		prompt := ActiveStyle.Width(m.layout.PromptWidth()).Height(
			m.layout.PromptHeight()).Render(m.confirmationPrompt.View())

		return lipgloss.Place(m.layout.AvailableWidth(), m.layout.AvailableHeight(),
			lipgloss.Center, lipgloss.Center, prompt)
	}

	m.header.SetWidth(m.layout.visibleWidth)
	header := m.header.View()

	m.help.Width = m.layout.visibleWidth
	footer := HelpStyle.Width(m.layout.visibleWidth).Render(m.help.View(m.keys))

	m.layout.SetReservedTop(lipgloss.Height(header))
	m.layout.SetReservedBelow(lipgloss.Height(footer))

	style := ActiveStyle
	if m.store.Snapshot().Len() == 0 {
		style = InactiveStyle
	}
	m.tree.SetWidth(m.layout.AvailableWidth())
	if m.layout.visibleHeight > 0 {
		m.tree.SetHeight(m.layout.AvailableHeight())
		style = style.Height(m.layout.AvailableHeight())
	}
	tree := style.Width(m.layout.AvailableWidth()).Render(m.tree.View())

	return lipgloss.JoinVertical(lipgloss.Top, header, tree, footer)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.timeLeft() <= 0 {
		return m, tea.Quit
	}

	logrus.Debugf("Received a message in root: %v", msg)
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case TopologyReceived:
		previous := m.store.Snapshot()
		next := m.store.Replace(msg.Monitors)
		if !previous.SameKeys(next) {
			logrus.Debugf("Monitor set changed, reconciling toggles for %v", next.IDs())
			m.toggles = m.toggles.Reconcile(next.IDs())
		}
		m.rebuild()
	case RefreshRequested:
		cmds = append(cmds, m.refresh())
	case subscribeFinished:
		op := OperationNameSubscribe
		if msg.err != nil && !errors.Is(msg.err, errs.ErrSubscriptionFailed) {
			op = OperationNameRefresh
		}
		cmds = append(cmds, bridgeStateCmd(msg.state), OperationStatusCmd(op, msg.err))
	case ConfigReloaded:
		logrus.Debug("Received config reloaded event in root")
		m.settings = NewSettings(m.config.Get())
		m.rebuild()
		cmds = append(cmds, OperationStatusCmd(OperationNameConfigReload, nil))
	case SwitchInputCommand:
		cmds = append(cmds, m.switchInput(msg.ID, msg.Input))
	case ToggleConfirmationPromptCommand:
		m.showConfirmationPrompt = !m.showConfirmationPrompt
		if !m.showConfirmationPrompt {
			m.confirmationPrompt = nil
		}
	case tea.WindowSizeMsg:
		m.layout.SetHeight(msg.Height)
		m.layout.SetWidth(msg.Width)
	case tea.MouseMsg:
		if m.showConfirmationPrompt {
			break
		}
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			if item, ok := m.tree.ItemAt(msg.Y - m.layout.TreeTop()); ok {
				cmds = append(cmds, m.activate(item))
			}
		}
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) && (!m.showConfirmationPrompt || msg.Type == tea.KeyCtrlC) {
			return m, tea.Quit
		}
		if m.showConfirmationPrompt {
			cmds = append(cmds, m.confirmationPrompt.Update(msg))
			break
		}
		cmds = append(cmds, m.handleKey(msg))
	}

	cmds = append(cmds, m.header.Update(msg))

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.tree.MoveUp()
	case key.Matches(msg, m.keys.Down):
		m.tree.MoveDown()
	case key.Matches(msg, m.keys.Activate):
		if item, ok := m.tree.Selected(); ok {
			return m.activate(item)
		}
	case key.Matches(msg, m.keys.Expand):
		if item, ok := m.tree.Selected(); ok && item.Kind == SectionItem {
			m.setExpanded(m.tree.Section(item).ID, true)
		}
	case key.Matches(msg, m.keys.Collapse):
		if item, ok := m.tree.Selected(); ok {
			m.tree.SelectSection(item.Section)
			m.setExpanded(m.tree.Section(item).ID, false)
		}
	case key.Matches(msg, m.keys.Refresh):
		return m.refresh()
	case key.Matches(msg, m.keys.ShowFullHelp):
		m.help.ShowAll = !m.help.ShowAll
	}
	return nil
}

func (m *Model) setExpanded(id int, expanded bool) {
	if m.toggles.Expanded(id) == expanded {
		return
	}
	m.toggles = m.toggles.SetExpanded(id, expanded)
	m.rebuild()
}

// activate toggles a section header or requests a switch for an input row.
func (m *Model) activate(item Item) tea.Cmd {
	section := m.tree.Section(item)
	if item.Kind == SectionItem {
		logrus.Debugf("Toggling monitor %d", section.ID)
		m.toggles = m.toggles.Toggle(section.ID)
		m.rebuild()
		return nil
	}

	row := section.Rows[item.Row]
	if !*m.config.Get().UI.ConfirmSwitch {
		return m.switchInput(section.ID, row.Input)
	}

	m.confirmationPrompt = NewConfirmationPrompt(
		fmt.Sprintf("Switch %s to %s?", section.Model, row.Label),
		fmt.Sprintf("monitor %d, input %s", section.ID, row.Input),
		tea.Batch(toggleConfirmationPromptCmd(), switchInputCmd(section.ID, row.Input)),
		toggleConfirmationPromptCmd())
	m.showConfirmationPrompt = true
	return nil
}

func (m Model) switchInput(id int, input string) tea.Cmd {
	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		return NewOperationStatus(OperationNameSwitchInput, backend.SwitchInput(ctx, id, input))
	}
}

// refresh drops the current snapshot and asks the host for a new one,
// resubscribing first when the event stream is gone.
func (m *Model) refresh() tea.Cmd {
	m.store.Clear()
	m.rebuild()

	if m.subscriber != nil && m.subscriber.State() != bridge.Active {
		logrus.Debug("Event stream is not active, resubscribing instead of refreshing")
		return m.subscribe()
	}

	backend, ctx := m.backend, m.ctx
	return func() tea.Msg {
		return NewOperationStatus(OperationNameRefresh, backend.RequestRefresh(ctx))
	}
}

func (m Model) subscribe() tea.Cmd {
	subscriber, ctx := m.subscriber, m.ctx
	return tea.Sequence(
		bridgeStateCmd(bridge.Subscribing),
		func() tea.Msg {
			err := subscriber.Start(ctx)
			return subscribeFinished{state: subscriber.State(), err: err}
		},
	)
}
