package test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fiffeek/inputswitcher/internal/testutils"
	"github.com/fiffeek/inputswitcher/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dellPayload = `{"event":"monitor-info","payload":[{"id":0,"model":"Dell U2720Q","inputs":["HDMI1","DP1"]}]}`

func Test__Run_Binary(t *testing.T) {
	tests := []struct {
		name                string
		description         string
		args                []string
		events              []string
		respond             func(testutils.FakeCommand) testutils.FakeAck
		expectError         bool
		expectOutputContain []string
		expectLogs          []utils.LogID
		expectCommands      []string
	}{
		{
			name:                "list over the socket host",
			description:         "list subscribes, refreshes and prints the first topology as json when stdout is not a terminal",
			args:                []string{"list"},
			events:              []string{dellPayload},
			respond:             testutils.AckOK,
			expectOutputContain: []string{`"model": "Dell U2720Q"`, `"DP1"`},
			expectLogs: []utils.LogID{
				utils.SubscriptionAcquiredLogID, utils.CommandDispatchedLogID,
				utils.TopologyReceivedLogID, utils.SubscriptionReleasedLogID,
			},
			expectCommands: []string{"refresh_monitor_info"},
		},
		{
			name:                "list with a malformed payload",
			description:         "a payload that is not a list is reported and never printed",
			args:                []string{"list"},
			events:              []string{`{"event":"monitor-info","payload":{"id":0}}`},
			respond:             testutils.AckOK,
			expectError:         true,
			expectOutputContain: []string{"malformed event payload"},
			expectLogs:          []utils.LogID{utils.MalformedPayloadLogID},
		},
		{
			name:                "list times out",
			description:         "the host acknowledges the refresh but never publishes",
			args:                []string{"list", "--timeout", "200ms"},
			respond:             testutils.AckOK,
			expectError:         true,
			expectOutputContain: []string{"no monitor topology received in time"},
		},
		{
			name:           "switch is acknowledged",
			args:           []string{"switch", "0", "DP1"},
			respond:        testutils.AckOK,
			expectLogs:     []utils.LogID{utils.CommandDispatchedLogID},
			expectCommands: []string{"switch_monitor_input"},
		},
		{
			name: "switch is rejected",
			args: []string{"switch", "3", "HDMI2"},
			respond: func(command testutils.FakeCommand) testutils.FakeAck {
				return testutils.FakeAck{Token: command.Token, OK: false, Error: "no monitor with id 3"}
			},
			expectError:         true,
			expectOutputContain: []string{"no monitor with id 3", "Command rejected by the host"},
			expectLogs:          []utils.LogID{utils.CommandRejectedLogID},
			expectCommands:      []string{"switch_monitor_input"},
		},
		{
			name:                "switch with an invalid id",
			args:                []string{"switch", "minus-one", "HDMI2"},
			expectError:         true,
			expectOutputContain: []string{"needs to be a non-negative integer"},
		},
		{
			name:           "refresh",
			args:           []string{"refresh"},
			respond:        testutils.AckOK,
			expectLogs:     []utils.LogID{utils.CommandDispatchedLogID},
			expectCommands: []string{"refresh_monitor_info"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(t.Context(), 3*time.Second)
			defer cancel()

			socketDir := t.TempDir()
			if tt.events != nil || tt.args[0] == "list" {
				listener := testutils.SetupHostSocket(ctx, t, socketDir, "events.sock")
				testutils.SetupFakeEventsServer(ctx, t, listener, `{"subscribe":"monitor-info"}`, tt.events)
			}
			var commands *testutils.FakeCommandsServer
			if tt.respond != nil {
				listener := testutils.SetupHostSocket(ctx, t, socketDir, "commands.sock")
				commands = testutils.SetupFakeCommandsServer(t, listener, tt.respond)
			}

			configPath := filepath.Join(t.TempDir(), "config.toml")
			testutils.NewTestConfig(t).WithConfigPath(configPath).WithSocketDir(socketDir).Get()

			args := append([]string{"--config", configPath, "--debug", "--enable-json-logs-format"}, tt.args...)
			out, err := runBinary(ctx, args)
			testutils.Logf(t, "binary output: %s", string(out))
			require.NoError(t, ctx.Err(), "binary timed out")

			if tt.expectError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			for _, expected := range tt.expectOutputContain {
				assert.Contains(t, string(out), expected)
			}
			for _, id := range tt.expectLogs {
				testutils.AssertLogIDPresent(t, out, id)
			}
			assert.LessOrEqual(t, testutils.CountLogID(out, utils.SubscriptionAcquiredLogID), 1,
				"a run holds at most one subscription")
			if commands != nil && tt.expectCommands != nil {
				received := []string{}
				for _, command := range commands.Received() {
					received = append(received, command.Command)
				}
				assert.Equal(t, tt.expectCommands, received)
			}
		})
	}
}

func Test__Run_Binary_Static(t *testing.T) {
	fixture := filepath.Join(examples, "static", "monitors.yaml")

	tests := []struct {
		name                string
		args                []string
		expectError         bool
		expectOutputContain []string
	}{
		{
			name:                "list from the fixture",
			args:                []string{"list", "--monitors-override", fixture},
			expectOutputContain: []string{`"model": "LG 27GL850"`, `"HDMI2"`},
		},
		{
			name: "switch to a known input",
			args: []string{"switch", "1", "HDMI2", "--monitors-override", fixture},
		},
		{
			name:                "switch to an unknown input",
			args:                []string{"switch", "2", "HDMI1", "--monitors-override", fixture},
			expectError:         true,
			expectOutputContain: []string{"monitor 2 has no input HDMI1"},
		},
		{
			name:                "static example config",
			args:                []string{"--config", filepath.Join(examples, "static", "config.toml"), "list"},
			expectOutputContain: []string{`"model": "Dell U2720Q"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(t.Context(), 3*time.Second)
			defer cancel()

			configPath := filepath.Join(t.TempDir(), "config.toml")
			testutils.NewTestConfig(t).WithConfigPath(configPath).Get()

			args := append([]string{"--config", configPath}, tt.args...)
			out, err := runBinary(ctx, args)
			require.NoError(t, ctx.Err(), "binary timed out")
			if tt.expectError {
				require.Error(t, err, "output: %s", string(out))
			} else {
				require.NoError(t, err, "output: %s", string(out))
			}
			for _, expected := range tt.expectOutputContain {
				assert.Contains(t, string(out), expected)
			}
		})
	}
}
