package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fiffeek/inputswitcher/internal/app"
	"github.com/fiffeek/inputswitcher/internal/monitors"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var listTimeout time.Duration

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the monitors reported by the host",
	Long:  `Subscribe to the host, request a refresh and print the first monitor topology (a table on a terminal, JSON otherwise).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := app.NewApplication(configPath, hostOptions(cmd))
		if err != nil {
			return fmt.Errorf("cant init app: %w", err)
		}
		defer func() { _ = application.Close() }()

		infos, err := application.List(context.Background(), listTimeout)
		if err != nil {
			return err
		}

		if term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Println(renderTable(infos, application.Labels()))
			return nil
		}

		out, err := json.MarshalIndent(infos, "", "  ")
		if err != nil {
			return fmt.Errorf("cant encode monitors: %w", err)
		}
		fmt.Println(string(out))
		return nil
	},
}

func renderTable(infos monitors.MonitorInfos, labels *monitors.InputLabels) string {
	rows := [][]string{}
	for _, info := range infos {
		inputs := []string{}
		for _, input := range info.Inputs {
			inputs = append(inputs, fmt.Sprintf("%s (%s)", labels.Label(input), input))
		}
		rows = append(rows, []string{strconv.Itoa(info.Index()), info.DisplayModel(), strings.Join(inputs, ", ")})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("ID", "MODEL", "INPUTS").
		Rows(rows...).
		String()
}

func init() {
	rootCmd.AddCommand(listCmd)
	addHostFlags(listCmd)

	listCmd.Flags().DurationVar(&listTimeout, "timeout", 5*time.Second,
		"How long to wait for the host to publish the monitors")
}
