package monitors_test

import (
	"testing"

	"github.com/fiffeek/inputswitcher/internal/monitors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Replace(t *testing.T) {
	tests := []struct {
		name          string
		events        []monitors.MonitorInfos
		expectedOrder []int
		expectedModel map[int]string
	}{
		{
			name:          "empty store",
			events:        nil,
			expectedOrder: []int{},
			expectedModel: map[int]string{},
		},
		{
			name: "single event",
			events: []monitors.MonitorInfos{
				{monitors.NewMonitorInfo(0, "Dell U2720Q", "HDMI1", "DisplayPort1")},
			},
			expectedOrder: []int{0},
			expectedModel: map[int]string{0: "Dell U2720Q"},
		},
		{
			name: "last event wins regardless of prior events",
			events: []monitors.MonitorInfos{
				{
					monitors.NewMonitorInfo(0, "A"),
					monitors.NewMonitorInfo(1, "B"),
				},
				{
					monitors.NewMonitorInfo(2, "C"),
				},
			},
			expectedOrder: []int{2},
			expectedModel: map[int]string{2: "C"},
		},
		{
			name: "emission order preserved",
			events: []monitors.MonitorInfos{
				{
					monitors.NewMonitorInfo(5, "E"),
					monitors.NewMonitorInfo(0, "A"),
					monitors.NewMonitorInfo(3, "D"),
				},
			},
			expectedOrder: []int{5, 0, 3},
			expectedModel: map[int]string{5: "E", 0: "A", 3: "D"},
		},
		{
			name: "duplicate id last occurrence wins",
			events: []monitors.MonitorInfos{
				{
					monitors.NewMonitorInfo(1, "first"),
					monitors.NewMonitorInfo(2, "other"),
					monitors.NewMonitorInfo(1, "second"),
				},
			},
			expectedOrder: []int{1, 2},
			expectedModel: map[int]string{1: "second", 2: "other"},
		},
		{
			name: "empty payload empties the store",
			events: []monitors.MonitorInfos{
				{monitors.NewMonitorInfo(0, "A")},
				{},
			},
			expectedOrder: []int{},
			expectedModel: map[int]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := monitors.NewStore()
			for _, event := range tt.events {
				store.Replace(event)
			}

			snapshot := store.Snapshot()
			assert.Equal(t, tt.expectedOrder, snapshot.IDs())
			assert.Equal(t, len(tt.expectedModel), snapshot.Len())
			for id, model := range tt.expectedModel {
				monitor, ok := snapshot.Get(id)
				require.True(t, ok, "monitor %d should be present", id)
				assert.Equal(t, model, monitor.Model)
			}
		})
	}
}

func TestStore_Clear(t *testing.T) {
	store := monitors.NewStore()
	previous := store.Replace(monitors.MonitorInfos{monitors.NewMonitorInfo(0, "A")})

	cleared := store.Clear()

	assert.Equal(t, 0, cleared.Len())
	assert.Equal(t, 0, store.Snapshot().Len())
	assert.Equal(t, 1, previous.Len(), "old snapshots are not mutated")
}

func TestSnapshot_SameKeys(t *testing.T) {
	a := monitors.NewSnapshot(monitors.MonitorInfos{
		monitors.NewMonitorInfo(0, "A"),
		monitors.NewMonitorInfo(1, "B"),
	})
	reordered := monitors.NewSnapshot(monitors.MonitorInfos{
		monitors.NewMonitorInfo(1, "B2"),
		monitors.NewMonitorInfo(0, "A2"),
	})
	grown := monitors.NewSnapshot(monitors.MonitorInfos{
		monitors.NewMonitorInfo(0, "A"),
		monitors.NewMonitorInfo(1, "B"),
		monitors.NewMonitorInfo(5, "C"),
	})

	assert.True(t, a.SameKeys(reordered))
	assert.False(t, a.SameKeys(grown))
	assert.False(t, a.SameKeys(nil))
	assert.True(t, monitors.EmptySnapshot().SameKeys(monitors.EmptySnapshot()))
}

func TestSnapshot_SortedIDs(t *testing.T) {
	snapshot := monitors.NewSnapshot(monitors.MonitorInfos{
		monitors.NewMonitorInfo(4, "A"),
		monitors.NewMonitorInfo(1, "B"),
		monitors.NewMonitorInfo(2, "C"),
	})

	assert.Equal(t, []int{1, 2, 4}, snapshot.SortedIDs())
	assert.Equal(t, []int{4, 1, 2}, snapshot.IDs(), "emission order is untouched")
}
