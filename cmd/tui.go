package cmd

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fiffeek/inputswitcher/internal/app"
	"github.com/muesli/termenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runningUnderTest bool

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive monitor input switcher",
	Long:  `Launch a terminal UI listing the monitors reported by the host, expand a monitor to switch its input.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if debug {
			f, err := tea.LogToFile("debug.log", "debug")
			if err != nil {
				fmt.Println("fatal:", err)
				os.Exit(1)
			}
			logrus.SetOutput(f)
			defer f.Close()
		} else {
			// disable logging completely for tui unless run in the debug mode
			logrus.SetLevel(logrus.PanicLevel)
		}

		if runningUnderTest {
			lipgloss.SetColorProfile(termenv.Ascii)
			lipgloss.SetHasDarkBackground(true)
		}

		ctx, cancel := context.WithCancelCause(context.Background())
		defer cancel(context.Canceled)

		app, err := app.NewTUI(ctx, cancel, configPath, hostOptions(cmd), runningUnderTest)
		if err != nil {
			return fmt.Errorf("cant init tui: %w", err)
		}

		return app.Run(ctx, cancel)
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
	addHostFlags(tuiCmd)

	tuiCmd.Flags().BoolVar(&runningUnderTest, "running-under-test", false,
		"Use test settings such as no styling etc.")
}
