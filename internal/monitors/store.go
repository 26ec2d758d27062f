package monitors

import (
	"slices"
	"sort"
)

// Snapshot is an immutable view of the topology, keyed by id and ordered by emission.
type Snapshot struct {
	order []int
	byID  map[int]*MonitorInfo
}

func EmptySnapshot() *Snapshot {
	return &Snapshot{order: []int{}, byID: map[int]*MonitorInfo{}}
}

// NewSnapshot keys monitors by id; a repeated id keeps its first position and its last value.
func NewSnapshot(monitors MonitorInfos) *Snapshot {
	snapshot := &Snapshot{
		order: make([]int, 0, len(monitors)),
		byID:  make(map[int]*MonitorInfo, len(monitors)),
	}
	for _, monitor := range monitors {
		id := monitor.Index()
		if _, seen := snapshot.byID[id]; !seen {
			snapshot.order = append(snapshot.order, id)
		}
		snapshot.byID[id] = monitor
	}
	return snapshot
}

func (s *Snapshot) IDs() []int {
	return slices.Clone(s.order)
}

// SortedIDs returns the ids in ascending numeric order.
func (s *Snapshot) SortedIDs() []int {
	ids := s.IDs()
	sort.Ints(ids)
	return ids
}

func (s *Snapshot) Get(id int) (*MonitorInfo, bool) {
	monitor, ok := s.byID[id]
	return monitor, ok
}

func (s *Snapshot) Len() int {
	return len(s.order)
}

func (s *Snapshot) Monitors() MonitorInfos {
	result := make(MonitorInfos, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.byID[id])
	}
	return result
}

// SameKeys reports whether both snapshots know exactly the same ids.
func (s *Snapshot) SameKeys(other *Snapshot) bool {
	if other == nil || len(s.byID) != len(other.byID) {
		return false
	}
	for id := range s.byID {
		if _, ok := other.byID[id]; !ok {
			return false
		}
	}
	return true
}

// Store owns the current snapshot, it is not safe for concurrent use.
type Store struct {
	current *Snapshot
}

func NewStore() *Store {
	return &Store{current: EmptySnapshot()}
}

func (s *Store) Replace(monitors MonitorInfos) *Snapshot {
	s.current = NewSnapshot(monitors)
	return s.current
}

func (s *Store) Clear() *Snapshot {
	s.current = EmptySnapshot()
	return s.current
}

func (s *Store) Snapshot() *Snapshot {
	return s.current
}
