package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const waitingPlaceholder = "Waiting for monitors..."

// MonitorTree draws the tree and keeps the cursor, activation is left to the root model.
type MonitorTree struct {
	tree   Tree
	items  []Item
	cursor int
	offset int
	width  int
	height int
}

func NewMonitorTree() *MonitorTree {
	return &MonitorTree{}
}

// SetTree swaps the rendered tree and keeps the cursor on the same monitor or input when possible.
func (t *MonitorTree) SetTree(tree Tree) {
	var previousID, previousRow int
	previousKind := ItemKind(-1)
	if item, ok := t.Selected(); ok {
		previousKind = item.Kind
		previousID = t.tree.Sections[item.Section].ID
		previousRow = item.Row
	}

	t.tree = tree
	t.items = tree.Items()

	if previousKind >= 0 {
		if index, ok := t.find(previousKind, previousID, previousRow); ok {
			t.cursor = index
			t.scroll()
			return
		}
	}
	t.cursor = min(t.cursor, max(len(t.items)-1, 0))
	t.scroll()
}

func (t *MonitorTree) find(kind ItemKind, id, row int) (int, bool) {
	fallback := -1
	for i, item := range t.items {
		if t.tree.Sections[item.Section].ID != id {
			continue
		}
		if item.Kind == SectionItem {
			fallback = i
		}
		if item.Kind == kind && (kind == SectionItem || item.Row == row) {
			return i, true
		}
	}
	return fallback, fallback >= 0
}

func (t *MonitorTree) Tree() Tree {
	return t.tree
}

func (t *MonitorTree) Selected() (Item, bool) {
	if t.cursor < 0 || t.cursor >= len(t.items) {
		return Item{}, false
	}
	return t.items[t.cursor], true
}

func (t *MonitorTree) Section(item Item) Section {
	return t.tree.Sections[item.Section]
}

func (t *MonitorTree) MoveUp() {
	if t.cursor > 0 {
		t.cursor--
	}
	t.scroll()
}

func (t *MonitorTree) MoveDown() {
	if t.cursor < len(t.items)-1 {
		t.cursor++
	}
	t.scroll()
}

// SelectSection moves the cursor to the header of the given section.
func (t *MonitorTree) SelectSection(section int) {
	for i, item := range t.items {
		if item.Kind == SectionItem && item.Section == section {
			t.cursor = i
			t.scroll()
			return
		}
	}
}

// ItemAt resolves a visible line (0 is the first content line) to the item drawn there.
func (t *MonitorTree) ItemAt(line int) (Item, bool) {
	index := t.offset + line
	if line < 0 || line >= t.visibleLines() || index >= len(t.items) {
		return Item{}, false
	}
	t.cursor = index
	return t.items[index], true
}

func (t *MonitorTree) SetWidth(width int) {
	t.width = width
}

func (t *MonitorTree) SetHeight(height int) {
	t.height = height
	t.scroll()
}

func (t *MonitorTree) visibleLines() int {
	if t.height <= 0 {
		return len(t.items)
	}
	return t.height
}

func (t *MonitorTree) scroll() {
	visible := t.visibleLines()
	if t.cursor < t.offset {
		t.offset = t.cursor
	}
	if t.cursor >= t.offset+visible {
		t.offset = t.cursor - visible + 1
	}
	t.offset = max(min(t.offset, len(t.items)-visible), 0)
}

func (t *MonitorTree) View() string {
	if t.tree.Empty() {
		return MutedStyle.Render(waitingPlaceholder)
	}

	lines := []string{}
	end := min(t.offset+t.visibleLines(), len(t.items))
	for i := t.offset; i < end; i++ {
		lines = append(lines, t.renderItem(t.items[i], i == t.cursor))
	}

	return lipgloss.NewStyle().MaxWidth(max(t.width, 0)).Render(strings.Join(lines, "\n"))
}

func (t *MonitorTree) renderItem(item Item, selected bool) string {
	pointer := "  "
	if selected {
		pointer = "► "
	}

	section := t.tree.Sections[item.Section]
	if item.Kind == SectionItem {
		chevron := "▸"
		if section.Expanded {
			chevron = "▾"
		}
		title := MonitorListTitle
		if selected {
			title = MonitorListSelected
		}
		return pointer + chevron + " " + OrdinalStyle.Render(fmt.Sprintf("%d.", section.Ordinal)) + " " +
			title.Render(section.Model)
	}

	row := section.Rows[item.Row]
	text := row.Label
	if row.Label != row.Input {
		text = fmt.Sprintf("%s (%s)", row.Label, row.Input)
	}
	style := InputStyle
	if selected {
		style = MonitorListSelected
	}
	return pointer + "    " + style.Render(text)
}
