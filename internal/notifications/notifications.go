// Package notifications provides notifications through dbus
package notifications

import (
	"errors"
	"fmt"

	"github.com/TheCreeper/go-notify"
	"github.com/fiffeek/inputswitcher/internal/config"
	"github.com/fiffeek/inputswitcher/internal/errs"
	"github.com/sirupsen/logrus"
)

type Service struct {
	config *config.Config
	hints  map[string]any
	show   func(*notify.Notification) error
}

func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		hints: map[string]any{
			"synchronous":       "inputswitcher",
			"x-dunst-stack-tag": "inputswitcher",
		},
		show: func(ntf *notify.Notification) error {
			_, err := ntf.Show()
			return err
		},
	}
}

// NotifyFailure shows a desktop notification for rejected commands, other errors are ignored.
func (s *Service) NotifyFailure(err error) error {
	if err == nil || !errors.Is(err, errs.ErrCommandRejected) {
		return nil
	}

	body := err.Error()
	var commandErr *errs.CommandError
	if errors.As(err, &commandErr) && commandErr.Reason != "" {
		body = commandErr.Reason
	}
	return s.send("Monitor input switch failed", body)
}

func (s *Service) NotifyReloadFailed(err error) error {
	return s.send("Configuration reload failed", err.Error())
}

func (s *Service) send(summary, body string) error {
	cfg := s.config.Get().Notifications
	if *cfg.Disabled {
		logrus.Debug("notifications are not enabled, not sending")
		return nil
	}

	ntf := notify.NewNotification(summary, body)
	ntf.Timeout = *cfg.TimeoutMs
	ntf.Hints = s.hints

	if err := s.show(&ntf); err != nil {
		return fmt.Errorf("cant send notification %s: %w", summary, err)
	}
	return nil
}
