package testutils

import (
	"github.com/fiffeek/inputswitcher/internal/monitors"
)

func DellU2720Q() monitors.MonitorInfos {
	return monitors.MonitorInfos{
		monitors.NewMonitorInfo(0, "Dell U2720Q", "HDMI1", "DP1"),
	}
}

func DualDesk() monitors.MonitorInfos {
	return monitors.MonitorInfos{
		monitors.NewMonitorInfo(0, "Dell U2720Q", "HDMI1", "DisplayPort1"),
		monitors.NewMonitorInfo(1, "LG 27GL850", "HDMI1", "HDMI2", "DisplayPort1"),
	}
}
