package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fiffeek/inputswitcher/internal/app"
	"github.com/spf13/cobra"
)

var switchCmd = &cobra.Command{
	Use:   "switch <monitor-id> <input>",
	Short: "Switch a monitor to the given input",
	Long:  `Send one switch_monitor_input command to the host, input is the identifier shown by list (e.g. HDMI1).`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil || id < 0 {
			return fmt.Errorf("monitor id %q needs to be a non-negative integer", args[0])
		}

		application, err := app.NewApplication(configPath, hostOptions(cmd))
		if err != nil {
			return fmt.Errorf("cant init app: %w", err)
		}
		defer func() { _ = application.Close() }()

		return application.Switch(context.Background(), id, args[1])
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Ask the host to publish the monitor topology again",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := app.NewApplication(configPath, hostOptions(cmd))
		if err != nil {
			return fmt.Errorf("cant init app: %w", err)
		}
		defer func() { _ = application.Close() }()

		return application.Refresh(context.Background())
	},
}

func init() {
	rootCmd.AddCommand(switchCmd)
	addHostFlags(switchCmd)

	rootCmd.AddCommand(refreshCmd)
	addHostFlags(refreshCmd)
}
