package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fiffeek/inputswitcher/internal/bridge"
	"github.com/sirupsen/logrus"
)

// Header shows the title, the bridge state and the outcome of the last operation.
type Header struct {
	title   string
	state   string
	width   int
	err     string
	success string
}

func NewHeader(title string) *Header {
	return &Header{
		title: title,
		state: bridge.Uninitialized.String(),
	}
}

func (h *Header) Update(msg tea.Msg) tea.Cmd {
	logrus.Debugf("Header received message: %v", msg)
	switch msg := msg.(type) {
	case BridgeStateChanged:
		h.state = msg.State.String()
	case OperationStatus:
		h.success = ""
		if msg.IsError() {
			h.err = msg.String()
			return nil
		}
		h.err = ""
		if msg.name.showSuccessToUser() {
			h.success = msg.String()
		}
	}
	return nil
}

func (h *Header) GetState() string {
	return h.state
}

func (h *Header) GetError() string {
	return h.err
}

func (h *Header) GetSuccess() string {
	return h.success
}

func (h *Header) View() string {
	sections := []string{}
	availableSpace := h.width
	logrus.Debugf("Available header space: %d", availableSpace)

	header := HeaderStyle.Render(h.title)
	availableSpace -= lipgloss.Width(header)
	sections = append(sections, header)

	state := HeaderIndicatorStyle.Render(h.state)
	availableSpace -= lipgloss.Width(state)

	var status string
	switch {
	case h.err != "":
		status = ErrorStyle.Render(h.err)
	case h.success != "":
		status = SuccessStyle.Render(h.success)
	}
	availableSpace -= lipgloss.Width(status)

	spacer := lipgloss.NewStyle().Width(max(availableSpace, 0)).Render("")
	sections = append(sections, spacer)
	if status != "" {
		sections = append(sections, status)
	}
	sections = append(sections, state)

	return lipgloss.JoinHorizontal(
		lipgloss.Left,
		sections...,
	)
}

func (h *Header) SetWidth(width int) {
	h.width = width
}
