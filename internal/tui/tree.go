package tui

import (
	"github.com/fiffeek/inputswitcher/internal/config"
	"github.com/fiffeek/inputswitcher/internal/monitors"
)

// Settings decide how a snapshot is laid out, they never change the snapshot itself.
type Settings struct {
	Order   config.DisplayOrder
	Ordinal config.OrdinalMode
	Labels  *monitors.InputLabels
}

func NewSettings(cfg *config.RawConfig) Settings {
	return Settings{
		Order:   *cfg.Display.Order,
		Ordinal: *cfg.Display.Ordinal,
		Labels:  monitors.NewInputLabels(cfg.InputLabels),
	}
}

type Row struct {
	Input string
	Label string
}

type Section struct {
	ID       int
	Ordinal  int
	Model    string
	Expanded bool
	Rows     []Row
}

type Tree struct {
	Sections []Section
}

func (t Tree) Empty() bool {
	return len(t.Sections) == 0
}

// BuildTree renders one section per monitor, rows are present only for expanded monitors.
func BuildTree(snapshot *monitors.Snapshot, toggles monitors.ToggleState, settings Settings) Tree {
	ids := snapshot.IDs()
	if settings.Order == config.IDOrder {
		ids = snapshot.SortedIDs()
	}

	sections := make([]Section, 0, len(ids))
	for position, id := range ids {
		monitor, ok := snapshot.Get(id)
		if !ok {
			continue
		}

		ordinal := id + 1
		if settings.Ordinal == config.PositionOrdinal {
			ordinal = position + 1
		}

		section := Section{
			ID:       id,
			Ordinal:  ordinal,
			Model:    monitor.DisplayModel(),
			Expanded: toggles.Expanded(id),
		}
		if section.Expanded {
			section.Rows = make([]Row, 0, len(monitor.Inputs))
			for _, input := range monitor.Inputs {
				section.Rows = append(section.Rows, Row{Input: input, Label: settings.Labels.Label(input)})
			}
		}
		sections = append(sections, section)
	}

	return Tree{Sections: sections}
}

type ItemKind int

const (
	SectionItem ItemKind = iota
	RowItem
)

// Item is one focusable line of the tree.
type Item struct {
	Kind    ItemKind
	Section int
	Row     int
}

func (t Tree) Items() []Item {
	items := []Item{}
	for s, section := range t.Sections {
		items = append(items, Item{Kind: SectionItem, Section: s})
		for r := range section.Rows {
			items = append(items, Item{Kind: RowItem, Section: s, Row: r})
		}
	}
	return items
}
