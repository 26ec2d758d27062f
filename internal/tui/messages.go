package tui

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fiffeek/inputswitcher/internal/bridge"
	"github.com/fiffeek/inputswitcher/internal/errs"
	"github.com/fiffeek/inputswitcher/internal/monitors"
)

// TopologyReceived carries one decoded host event.
type TopologyReceived struct {
	Monitors monitors.MonitorInfos
}

type BridgeStateChanged struct {
	State bridge.State
}

type ConfigReloaded struct{}

// RefreshRequested is sent from outside the UI, e.g. on SIGUSR1.
type RefreshRequested struct{}

type SwitchInputCommand struct {
	ID    int
	Input string
}

type ToggleConfirmationPromptCommand struct{}

type OperationName int

const (
	OperationNameNone OperationName = iota
	OperationNameRefresh
	OperationNameSwitchInput
	OperationNameSubscribe
	OperationNameTopology
	OperationNameConfigReload
)

func (o OperationName) String() string {
	switch o {
	case OperationNameNone:
		return "None"
	case OperationNameRefresh:
		return "Refresh"
	case OperationNameSwitchInput:
		return "Switch Input"
	case OperationNameSubscribe:
		return "Subscribe"
	case OperationNameTopology:
		return "Topology Update"
	case OperationNameConfigReload:
		return "Config Reload"
	}
	return "Unknown"
}

func (o OperationName) showSuccessToUser() bool {
	switch o {
	case OperationNameSwitchInput, OperationNameConfigReload:
		return true
	}
	return false
}

// OperationStatus reports how an asynchronous operation ended, only the header consumes it.
type OperationStatus struct {
	name OperationName
	err  error
}

func NewOperationStatus(name OperationName, err error) OperationStatus {
	return OperationStatus{name: name, err: err}
}

func (o OperationStatus) IsError() bool {
	return o.err != nil
}

func (o OperationStatus) Err() error {
	return o.err
}

func (o OperationStatus) Name() OperationName {
	return o.name
}

func (o OperationStatus) String() string {
	if o.err == nil {
		return o.name.String() + ": success"
	}

	var commandErr *errs.CommandError
	if errors.As(o.err, &commandErr) && commandErr.Reason != "" {
		return fmt.Sprintf("%s: %s (%s)", o.name, errs.Kind(o.err), commandErr.Reason)
	}
	return fmt.Sprintf("%s: %s", o.name, errs.Kind(o.err))
}

func OperationStatusCmd(name OperationName, err error) tea.Cmd {
	return func() tea.Msg {
		return NewOperationStatus(name, err)
	}
}

func switchInputCmd(id int, input string) tea.Cmd {
	return func() tea.Msg {
		return SwitchInputCommand{ID: id, Input: input}
	}
}

func toggleConfirmationPromptCmd() tea.Cmd {
	return func() tea.Msg {
		return ToggleConfirmationPromptCommand{}
	}
}

func bridgeStateCmd(state bridge.State) tea.Cmd {
	return func() tea.Msg {
		return BridgeStateChanged{State: state}
	}
}

// FromBridgeUpdate converts one bridge update into the message the model consumes.
func FromBridgeUpdate(update bridge.Update) tea.Msg {
	if update.Err != nil {
		return NewOperationStatus(OperationNameTopology, update.Err)
	}
	return TopologyReceived{Monitors: update.Monitors}
}
