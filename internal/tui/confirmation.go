package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
)

type confirmKeyMap struct {
	Accept key.Binding
	Reject key.Binding
	Back   key.Binding
}

func (c *confirmKeyMap) Help() []key.Binding {
	return []key.Binding{
		c.Accept,
		c.Reject,
		c.Back,
	}
}

// ConfirmationPrompt asks a yes/no question and runs one of two commands.
type ConfirmationPrompt struct {
	accepted tea.Cmd
	rejected tea.Cmd
	keys     confirmKeyMap
	title    string
	detail   string
	help     help.Model
	width    int
	height   int
}

func NewConfirmationPrompt(title, detail string, accepted, rejected tea.Cmd) *ConfirmationPrompt {
	return &ConfirmationPrompt{
		title:    title,
		detail:   detail,
		accepted: accepted,
		rejected: rejected,
		keys: confirmKeyMap{
			Accept: key.NewBinding(
				key.WithKeys("y", "Y"),
				key.WithHelp("y/Y", "yes"),
			),
			Reject: key.NewBinding(
				key.WithKeys("n", "N"),
				key.WithHelp("n/N", "no"),
			),
			Back: key.NewBinding(
				key.WithKeys("esc"),
				key.WithHelp("esc", "back"),
			),
		},
		help: help.New(),
	}
}

func (c *ConfirmationPrompt) Title() string {
	return c.title
}

func (c *ConfirmationPrompt) Update(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	switch {
	case key.Matches(keyMsg, c.keys.Accept):
		logrus.Debugf("Confirmation prompt accepted: %s", c.title)
		return c.accepted
	case key.Matches(keyMsg, c.keys.Reject), key.Matches(keyMsg, c.keys.Back):
		logrus.Debugf("Confirmation prompt rejected: %s", c.title)
		return c.rejected
	}
	return nil
}

func (c *ConfirmationPrompt) SetHeight(height int) {
	c.height = height
}

func (c *ConfirmationPrompt) SetWidth(width int) {
	c.width = width
}

func (c *ConfirmationPrompt) View() string {
	lines := []string{c.title}
	if c.detail != "" {
		lines = append(lines, MutedStyle.Render(c.detail))
	}
	lines = append(lines, c.help.ShortHelpView(c.keys.Help()))
	view := lipgloss.JoinVertical(lipgloss.Center, lines...)

	return lipgloss.Place(c.width, c.height, lipgloss.Center, lipgloss.Center, view)
}
