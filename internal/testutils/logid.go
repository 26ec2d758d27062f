package testutils

import (
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"github.com/fiffeek/inputswitcher/internal/utils"
	"github.com/stretchr/testify/assert"
)

type logline struct {
	LogID *utils.LogID `json:"log_id"`
}

func collectLogIDs(logs []byte) []utils.LogID {
	seenIDs := []utils.LogID{}
	for _, line := range strings.Split(string(logs), "\n") {
		var m logline
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			continue
		}
		if m.LogID != nil {
			seenIDs = append(seenIDs, *m.LogID)
		}
	}
	return seenIDs
}

func CountLogID(logs []byte, id utils.LogID) int {
	count := 0
	for _, seen := range collectLogIDs(logs) {
		if seen == id {
			count++
		}
	}
	return count
}

func AssertLogIDPresent(t *testing.T, logs []byte, id utils.LogID) {
	assert.True(t, slices.Contains(collectLogIDs(logs), id), "log id %d should be present", id)
}
