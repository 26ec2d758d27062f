// Package reloader provides a service that listens to file change notifications
// and issues an application-wide reload
package reloader

import (
	"context"
	"errors"
	"fmt"

	"github.com/fiffeek/inputswitcher/internal/config"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type IFilewatcher interface {
	Update() error
	Listen() <-chan struct{}
}

// Hook runs after the configuration was reloaded successfully.
type Hook struct {
	Name string
	Fun  func(context.Context) error
}

type Service struct {
	cfg                  *config.Config
	filewatcher          IFilewatcher
	hooks                []Hook
	report               func(error)
	disableAutoHotReload *bool
}

func NewService(cfg *config.Config, filewatcher IFilewatcher, disableAutoHotReload bool,
	report func(error), hooks ...Hook,
) *Service {
	return &Service{
		cfg:                  cfg,
		filewatcher:          filewatcher,
		hooks:                hooks,
		report:               report,
		disableAutoHotReload: &disableAutoHotReload,
	}
}

func (s *Service) Reload(ctx context.Context) error {
	updates := []struct {
		Fun  func() error
		Name string
		Err  string
	}{
		{Fun: s.cfg.Reload, Name: "config reload", Err: "cant reload configuration"},
		{Fun: s.filewatcher.Update, Name: "update filewatcher", Err: "cant update filewatcher"},
	}
	for _, hook := range s.hooks {
		updates = append(updates, struct {
			Fun  func() error
			Name string
			Err  string
		}{Fun: func() error { return hook.Fun(ctx) }, Name: hook.Name, Err: "cant run " + hook.Name})
	}

	for _, update := range updates {
		logrus.Debug("Executing " + update.Name)
		if err := update.Fun(); err != nil {
			return fmt.Errorf("%s: %w", update.Err, err)
		}
	}

	return nil
}

// Run reports failed reloads and keeps serving.
func (s *Service) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		<-ctx.Done()
		logrus.Debug("Context cancelled for reloader, shutting down")
		return context.Cause(ctx)
	})

	if s.disableAutoHotReload != nil && *s.disableAutoHotReload {
		logrus.Info("Disabling reloader, no files will be watched")
		return eg.Wait()
	}

	watcherEventsChannel := s.filewatcher.Listen()

	eg.Go(func() error {
		logrus.Debug("Reloader event processor starting")
		for {
			select {
			case _, ok := <-watcherEventsChannel:
				if !ok {
					return errors.New("watcher event channel closed")
				}
				logrus.Debug("Watcher event received")
				if err := s.Reload(ctx); err != nil {
					logrus.WithError(err).Error("Reload failed, keeping the previous configuration")
					if s.report != nil {
						s.report(err)
					}
				}

			case <-ctx.Done():
				logrus.Debug("Reloader event processor context cancelled, shutting down")
				return context.Cause(ctx)
			}
		}
	})

	return eg.Wait()
}
