package app

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fiffeek/inputswitcher/internal/bridge"
	"github.com/fiffeek/inputswitcher/internal/config"
	"github.com/fiffeek/inputswitcher/internal/dispatcher"
	"github.com/fiffeek/inputswitcher/internal/errs"
	"github.com/fiffeek/inputswitcher/internal/filewatcher"
	"github.com/fiffeek/inputswitcher/internal/notifications"
	"github.com/fiffeek/inputswitcher/internal/reloader"
	"github.com/fiffeek/inputswitcher/internal/signal"
	"github.com/fiffeek/inputswitcher/internal/tui"
	"github.com/fiffeek/inputswitcher/internal/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// notifyingBackend also raises a desktop notification when the host rejects a switch.
type notifyingBackend struct {
	*dispatcher.Dispatcher
	notifications *notifications.Service
}

func (n notifyingBackend) SwitchInput(ctx context.Context, id int, input string) error {
	err := n.Dispatcher.SwitchInput(ctx, id, input)
	if notifyErr := n.notifications.NotifyFailure(err); notifyErr != nil {
		logrus.WithError(notifyErr).Debug("Cant send the failure notification")
	}
	return err
}

type TUI struct {
	program       *tea.Program
	cfg           *config.Config
	backend       *Backend
	bridge        *bridge.EventBridge
	fswatcher     *filewatcher.Service
	reloader      *reloader.Service
	signal        *signal.Handler
	notifications *notifications.Service
}

func NewTUI(ctx context.Context, cancel context.CancelCauseFunc, configPath string, opts HostOptions,
	runningUnderTest bool,
) (*TUI, error) {
	cfg, err := config.NewConfig(configPath)
	if err != nil {
		logrus.WithError(err).Error("cant create/read config")
		return nil, fmt.Errorf("cant create/read config: %w", err)
	}

	backend, err := NewBackend(cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("cant init host backend: %w", err)
	}

	notifier := notifications.NewService(cfg)
	eventBridge := bridge.NewEventBridge(backend.Host, dispatcher.NewDispatcher(backend.Host, "bridge-"))
	commands := notifyingBackend{
		Dispatcher:    dispatcher.NewDispatcher(backend.Host, "ui-"),
		notifications: notifier,
	}
	model := tui.NewModel(ctx, cfg, commands, eventBridge, nil)

	options := []tea.ProgramOption{tea.WithMouseCellMotion()}
	if !runningUnderTest {
		options = append(options, tea.WithAltScreen())
	}

	t := &TUI{
		program:       tea.NewProgram(model, options...),
		cfg:           cfg,
		backend:       backend,
		bridge:        eventBridge,
		notifications: notifier,
	}

	disableHotReload := *cfg.Get().HotReload.Disabled
	t.fswatcher = filewatcher.NewService(cfg, utils.BoolPtr(disableHotReload))
	t.reloader = reloader.NewService(cfg, t.fswatcher, disableHotReload, t.reportReloadFailure,
		reloader.Hook{Name: "monitors fixture reload", Fun: t.reloadFixture},
		reloader.Hook{Name: "ui config update", Fun: t.notifyConfigReloaded},
	)
	t.signal = signal.NewHandler(cancel, t.requestRefresh, t.reloader.Reload)

	return t, nil
}

func (t *TUI) requestRefresh(_ context.Context) error {
	t.program.Send(tui.RefreshRequested{})
	return nil
}

func (t *TUI) reloadFixture(ctx context.Context) error {
	if err := t.backend.ReloadFixture(); err != nil {
		return err
	}
	if t.backend.Transport != config.StaticTransport {
		return nil
	}
	// the ui refresh rebroadcasts the reloaded fixture
	return t.requestRefresh(ctx)
}

func (t *TUI) notifyConfigReloaded(_ context.Context) error {
	t.program.Send(tui.ConfigReloaded{})
	return nil
}

func (t *TUI) reportReloadFailure(err error) {
	t.program.Send(tui.NewOperationStatus(tui.OperationNameConfigReload, err))
	if notifyErr := t.notifications.NotifyReloadFailed(err); notifyErr != nil {
		logrus.WithError(notifyErr).Debug("Cant send the reload failure notification")
	}
}

// relay forwards bridge updates to the program in the order they were received.
func (t *TUI) relay(ctx context.Context) error {
	updates := t.bridge.Listen()
	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.program.Send(tui.FromBridgeUpdate(update))
			if errors.Is(update.Err, errs.ErrSubscriptionFailed) {
				t.program.Send(tui.BridgeStateChanged{State: t.bridge.State()})
			}
		case <-ctx.Done():
			logrus.Debug("Relay context cancelled, shutting down")
			return context.Cause(ctx)
		}
	}
}

func (t *TUI) teardown() {
	if err := t.bridge.Stop(); err != nil {
		logrus.WithError(err).Warn("Cant stop the event bridge")
	}
	if err := t.backend.Close(); err != nil {
		logrus.WithError(err).Warn("Cant close the host backend")
	}
}

func (t *TUI) Run(ctx context.Context, cancel context.CancelCauseFunc) error {
	defer t.teardown()
	eg, ctx := errgroup.WithContext(ctx)

	backgroundGoroutines := []struct {
		Fun  func(context.Context) error
		Name string
	}{
		{Fun: t.signal.Run, Name: "signal handler"},
		{Fun: t.fswatcher.Run, Name: "filewatcher"},
		{Fun: t.reloader.Run, Name: "reloader"},
		{Fun: t.relay, Name: "bridge relay"},
	}
	for _, bg := range backgroundGoroutines {
		eg.Go(func() error {
			fields := logrus.Fields{"name": bg.Name, "fun": utils.GetFunctionName(bg.Fun)}
			logrus.WithFields(fields).Debug("Starting")
			if err := bg.Fun(ctx); err != nil {
				return fmt.Errorf("%s failed: %w", bg.Name, err)
			}
			logrus.WithFields(fields).Debug("Finished")
			return nil
		})
	}

	eg.Go(func() error {
		if _, err := t.program.Run(); err != nil {
			return fmt.Errorf("failed to run TUI: %w", err)
		}
		cancel(context.Canceled)
		logrus.Debug("Exiting tea")
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		logrus.Debug("Context cancelled, shutting down")
		t.program.Quit()
		return context.Cause(ctx)
	})

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("main eg failed: %w", err)
	}

	logrus.Info("Shutdown complete")
	return nil
}
