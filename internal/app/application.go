// Package app provides the application runners behind the cli commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fiffeek/inputswitcher/internal/bridge"
	"github.com/fiffeek/inputswitcher/internal/config"
	"github.com/fiffeek/inputswitcher/internal/dispatcher"
	"github.com/fiffeek/inputswitcher/internal/monitors"
	"github.com/sirupsen/logrus"
)

var ErrTopologyTimeout = errors.New("no monitor topology received in time")

// Application runs one-shot commands against the host.
type Application struct {
	cfg        *config.Config
	backend    *Backend
	dispatcher *dispatcher.Dispatcher
}

func NewApplication(configPath string, opts HostOptions) (*Application, error) {
	cfg, err := config.NewConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	backend, err := NewBackend(cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("cant init host backend: %w", err)
	}

	return &Application{
		cfg:        cfg,
		backend:    backend,
		dispatcher: dispatcher.NewDispatcher(backend.Host, "cli-"),
	}, nil
}

func (a *Application) Close() error {
	return a.backend.Close()
}

func (a *Application) Refresh(ctx context.Context) error {
	if err := a.dispatcher.RequestRefresh(ctx); err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}
	logrus.Info("Monitor refresh requested")
	return nil
}

func (a *Application) Switch(ctx context.Context, id int, input string) error {
	if err := a.dispatcher.SwitchInput(ctx, id, input); err != nil {
		return fmt.Errorf("switch failed: %w", err)
	}
	logrus.WithFields(logrus.Fields{"monitor": id, "input": input}).Info("Input switch requested")
	return nil
}

// List subscribes, asks for a refresh and returns the first topology the host publishes.
func (a *Application) List(ctx context.Context, timeout time.Duration) (monitors.MonitorInfos, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	b := bridge.NewEventBridge(a.backend.Host, a.dispatcher)
	defer func() {
		if err := b.Stop(); err != nil {
			logrus.WithError(err).Debug("Failed to stop the event bridge")
		}
	}()

	if err := b.Start(ctx); err != nil {
		return nil, fmt.Errorf("cant start event bridge: %w", err)
	}

	select {
	case update, ok := <-b.Listen():
		if !ok {
			return nil, bridge.ErrBridgeClosed
		}
		if update.Err != nil {
			return nil, fmt.Errorf("cant read monitor topology: %w", update.Err)
		}
		return update.Monitors, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTopologyTimeout, timeout)
		}
		return nil, context.Cause(ctx)
	}
}

// Labels exposes the configured input labels for printing.
func (a *Application) Labels() *monitors.InputLabels {
	return monitors.NewInputLabels(a.cfg.Get().InputLabels)
}
