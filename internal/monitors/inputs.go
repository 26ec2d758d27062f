package monitors

// Labels for the MCCS input source names (VCP 0x60) the host reports.
var defaultInputLabels = map[string]string{
	"AnalogVideo1":    "Analog Video 1",
	"AnalogVideo2":    "Analog Video 2",
	"DVI1":            "DVI 1",
	"DVI2":            "DVI 2",
	"CompositeVideo1": "Composite Video 1",
	"CompositeVideo2": "Composite Video 2",
	"SVideo1":         "SVideo 1",
	"SVideo2":         "SVideo 2",
	"Tuner1":          "Tuner 1",
	"Tuner2":          "Tuner 2",
	"Tuner3":          "Tuner 3",
	"ComponentVideo1": "Component Video 1",
	"ComponentVideo2": "Component Video 2",
	"ComponentVideo3": "Component Video 3",
	"DisplayPort1":    "DP 1",
	"DisplayPort2":    "DP 2",
	"HDMI1":           "HDMI 1",
	"HDMI2":           "HDMI 2",
	"Unknown":         "Unknown",
	"Reserved":        "Unknown",
}

type InputLabels struct {
	overrides map[string]string
}

func NewInputLabels(overrides map[string]string) *InputLabels {
	return &InputLabels{overrides: overrides}
}

// Label maps an input identifier to its display text, unknown identifiers are shown as-is.
func (l *InputLabels) Label(input string) string {
	if l != nil {
		if label, ok := l.overrides[input]; ok && label != "" {
			return label
		}
	}
	if label, ok := defaultInputLabels[input]; ok {
		return label
	}
	return input
}
