package monitors

import "maps"

// ToggleState maps monitor ids to their expanded flag, every update returns a new value.
type ToggleState struct {
	expanded map[int]bool
}

func NewToggleState() ToggleState {
	return ToggleState{expanded: map[int]bool{}}
}

func (t ToggleState) Expanded(id int) bool {
	return t.expanded[id]
}

func (t ToggleState) Has(id int) bool {
	_, ok := t.expanded[id]
	return ok
}

func (t ToggleState) Len() int {
	return len(t.expanded)
}

func (t ToggleState) SetExpanded(id int, expanded bool) ToggleState {
	next := maps.Clone(t.expanded)
	if next == nil {
		next = map[int]bool{}
	}
	next[id] = expanded
	return ToggleState{expanded: next}
}

func (t ToggleState) Toggle(id int) ToggleState {
	return t.SetExpanded(id, !t.Expanded(id))
}

// Reconcile adds a collapsed entry for every unknown id and keeps every existing entry,
// including the ones for ids that are gone.
func (t ToggleState) Reconcile(ids []int) ToggleState {
	next := maps.Clone(t.expanded)
	if next == nil {
		next = map[int]bool{}
	}
	for _, id := range ids {
		if _, ok := next[id]; !ok {
			next[id] = false
		}
	}
	return ToggleState{expanded: next}
}
