package app

import (
	"fmt"

	"github.com/fiffeek/inputswitcher/internal/config"
	"github.com/sirupsen/logrus"
)

// HostOptions are the command line overrides for the [backend] section.
type HostOptions struct {
	Transport        string
	TransportChanged bool
	MonitorsOverride string
}

// forceTransport picks the transport, an explicit flag wins, a monitors override implies the static host.
func forceTransport(opts HostOptions, cfg *config.Config) (config.TransportType, error) {
	if opts.TransportChanged {
		transport, err := config.ParseTransport(opts.Transport)
		if err != nil {
			return transport, fmt.Errorf("invalid --transport: %w", err)
		}
		return transport, nil
	}

	if opts.MonitorsOverride != "" {
		logrus.Info("monitors override passed, forcing the static transport. Pass --transport directly to change it.")
		return config.StaticTransport, nil
	}

	return *cfg.Get().Backend.Transport, nil
}
