// Package cmd provides the entry point for the inputswitcher application.
// It shows the monitors known to the host and switches their video inputs.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"time"

	"github.com/fiffeek/inputswitcher/internal/app"
	"github.com/fiffeek/inputswitcher/internal/errs"
	"github.com/fiffeek/inputswitcher/internal/signal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	Version    = "dev"
	Commit     = "none"
	BuildDate  = "unknown"
	BinaryName = "inputswitcher"
)

var (
	debug                bool
	verbose              bool
	enableJSONLogsFormat bool
	configPath           string
	rootCmd              = &cobra.Command{
		Use:              BinaryName,
		Short:            "Switch monitor video inputs from the terminal",
		Long:             "InputSwitcher shows the monitors reported by the input switching host and lets you switch their video inputs.",
		Version:          fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildDate),
		PersistentPreRun: setupLogger,
		SilenceErrors:    true,
		SilenceUsage:     true,
	}
)

func Execute() {
	cmd, _, err := rootCmd.Find(os.Args[1:])

	if err == nil && cmd.Use == rootCmd.Use && !errors.Is(cmd.Flags().Parse(os.Args[1:]), pflag.ErrHelp) &&
		!slices.Contains(os.Args[1:], "--version") && !slices.Contains(os.Args[1:], "-v") {
		args := append([]string{tuiCmd.Use}, os.Args[1:]...)
		rootCmd.SetArgs(args)
	}

	err = rootCmd.Execute()
	var target *signal.Interrupted
	if errors.As(err, &target) {
		logrus.WithError(err).Info("Interrupted")
		os.Exit(target.ExitCode())
	}
	if errors.Is(err, context.Canceled) {
		logrus.WithError(err).Debug("Context cancelled, exiting")
		return
	}
	if errors.Is(err, errs.ErrHostUnavailable) {
		logrus.Warn(`The input switching host is not reachable. Make sure it is running and that
backend.transport and backend.socket_dir (or the dbus names) in your config match it.`)
		logrus.WithError(err).Fatal("Is the host running?")
		return
	}
	if errors.Is(err, app.ErrTopologyTimeout) {
		logrus.WithError(err).Fatal("The host did not publish monitors, try a longer --timeout")
		return
	}
	if errors.Is(err, errs.ErrCommandRejected) {
		logrus.WithError(err).Fatal("Command rejected by the host")
		return
	}
	if err != nil {
		logrus.WithError(err).Fatal("Command failed")
	}
	logrus.Debug("Exiting...")
}

func setupLogger(cmd *cobra.Command, args []string) {
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
	if verbose {
		logrus.SetReportCaller(true)
	}

	if enableJSONLogsFormat {
		logrus.SetFormatter(&logrus.JSONFormatter{
			DisableTimestamp: false,
			TimestampFormat:  time.RFC3339Nano,
		})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			DisableTimestamp: false,
			DisableColors:    false,
			TimestampFormat:  time.RFC3339Nano,
			FullTimestamp:    true,
			ForceQuote:       true,
			CallerPrettyfier: func(f *runtime.Frame) (string, string) {
				fn := filepath.Base(f.Function)
				file := fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
				return fn, file
			},
		})
	}
}

// hostFlags are shared by every command that talks to the host.
var (
	transport        string
	monitorsOverride string
)

func addHostFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&transport, "transport", "socket",
		"Host transport override: socket, dbus or static. Defaults to backend.transport from the config.")
	cmd.Flags().StringVar(&monitorsOverride, "monitors-override", "",
		"Serve the monitors from the given json/yaml file instead of a live host, used for testing.")
}

func hostOptions(cmd *cobra.Command) app.HostOptions {
	return app.HostOptions{
		Transport:        transport,
		TransportChanged: cmd.Flags().Changed("transport"),
		MonitorsOverride: monitorsOverride,
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(
		&configPath,
		"config",
		"$HOME/.config/inputswitcher/config.toml",
		"Path to configuration file",
	)
	rootCmd.PersistentFlags().BoolVar(&enableJSONLogsFormat, "enable-json-logs-format", false, "Enable structured logging")
}
