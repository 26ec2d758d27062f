// Package monitors holds the monitor topology reported by the host and the UI state derived from it.
package monitors

import (
	"errors"
	"fmt"

	"github.com/fiffeek/inputswitcher/internal/errs"
)

const GenericModel = "Generic Display"

type MonitorInfo struct {
	ID     *int     `json:"id" yaml:"id"`
	Model  string   `json:"model" yaml:"model"`
	Inputs []string `json:"inputs" yaml:"inputs"`
}

func NewMonitorInfo(id int, model string, inputs ...string) *MonitorInfo {
	return &MonitorInfo{ID: &id, Model: model, Inputs: inputs}
}

// Index returns the host assigned hardware index, callers must Validate first.
func (m *MonitorInfo) Index() int {
	return *m.ID
}

func (m *MonitorInfo) DisplayModel() string {
	if m.Model == "" {
		return GenericModel
	}
	return m.Model
}

func (m *MonitorInfo) HasInput(input string) bool {
	for _, candidate := range m.Inputs {
		if candidate == input {
			return true
		}
	}
	return false
}

func (m *MonitorInfo) Validate() error {
	if m == nil {
		return errors.New("monitor cant be null")
	}
	if m.ID == nil {
		return errors.New("id cant be nil")
	}
	if *m.ID < 0 {
		return errors.New("id cant < 0")
	}
	if m.Inputs == nil {
		m.Inputs = []string{}
	}
	return nil
}

type MonitorInfos []*MonitorInfo

// Validate checks the structural shape only, an empty topology is valid.
func (m MonitorInfos) Validate() error {
	for i, monitor := range m {
		if err := monitor.Validate(); err != nil {
			return fmt.Errorf("%w: monitor at position %d: %w", errs.ErrMalformedPayload, i, err)
		}
	}
	return nil
}
