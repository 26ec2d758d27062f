// Package signal provides signal handling functionality.
package signal

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
)

// Interrupted is the cancellation cause used for termination signals.
type Interrupted struct {
	Signal os.Signal
}

func (i *Interrupted) Error() string {
	return fmt.Sprintf("interrupted by %s", i.Signal)
}

func (i *Interrupted) Unwrap() error {
	return context.Canceled
}

// ExitCode follows the shell convention of 128 + signal number.
func (i *Interrupted) ExitCode() int {
	if sig, ok := i.Signal.(syscall.Signal); ok {
		return 128 + int(sig)
	}
	return 1
}

// Action is run in the handler goroutine, failures are logged and never stop the app.
type Action func(context.Context) error

type Handler struct {
	sigChan     chan os.Signal
	cancelCause context.CancelCauseFunc
	onRefresh   Action
	onReload    Action
}

func NewHandler(cancelCause context.CancelCauseFunc, onRefresh, onReload Action) *Handler {
	return &Handler{
		sigChan:     make(chan os.Signal, 1),
		cancelCause: cancelCause,
		onRefresh:   onRefresh,
		onReload:    onReload,
	}
}

// Run handles SIGUSR1 (refresh), SIGUSR2 (config reload) and termination signals until ctx ends.
func (h *Handler) Run(ctx context.Context) error {
	signal.Notify(h.sigChan, syscall.SIGUSR1, syscall.SIGUSR2, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)
	defer signal.Stop(h.sigChan)
	logrus.Debug("Signal notifications registered for SIGUSR1, SIGUSR2, SIGTERM, SIGINT, SIGHUP")

	for {
		select {
		case sig := <-h.sigChan:
			logrus.WithField("signal", sig).Debug("Signal received")
			h.handle(ctx, sig)
		case <-ctx.Done():
			logrus.Debug("Signal handler context done, exiting")
			return context.Cause(ctx)
		}
	}
}

func (h *Handler) handle(ctx context.Context, sig os.Signal) {
	switch sig {
	case syscall.SIGUSR1:
		logrus.Info("Received SIGUSR1, requesting monitor refresh")
		h.run(ctx, "refresh", h.onRefresh)
	case syscall.SIGUSR2:
		logrus.Info("Received SIGUSR2, reloading configuration")
		h.run(ctx, "reload", h.onReload)
	case syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP:
		logrus.WithField("signal", sig).Info("Received termination signal, shutting down gracefully")
		h.cancelCause(&Interrupted{Signal: sig})
	}
}

func (h *Handler) run(ctx context.Context, name string, action Action) {
	if action == nil {
		logrus.WithField("action", name).Debug("No handler registered")
		return
	}
	if err := action(ctx); err != nil {
		logrus.WithError(err).WithField("action", name).Error("Signal action failed, will keep running")
	}
}
