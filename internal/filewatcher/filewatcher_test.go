package filewatcher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fiffeek/inputswitcher/internal/config"
	"github.com/fiffeek/inputswitcher/internal/filewatcher"
	"github.com/fiffeek/inputswitcher/internal/testutils"
	"github.com/fiffeek/inputswitcher/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupFilewatcherTest(t *testing.T) (*config.Config, string) {
	tempDir := t.TempDir()
	configDir := filepath.Join(tempDir, "config")
	fixtureDir := filepath.Join(tempDir, "fixtures")
	require.NoError(t, os.MkdirAll(fixtureDir, 0o750))

	fixture := filepath.Join(fixtureDir, "monitors.json")
	require.NoError(t, os.WriteFile(fixture, []byte(`[{"id":0,"model":"Dell U2720Q","inputs":["HDMI1"]}]`), 0o600))

	cfg := testutils.NewTestConfig(t).
		WithBackend(&config.BackendSection{
			Transport:       utils.JustPtr(config.StaticTransport),
			MonitorsFixture: utils.StringPtr(fixture),
		}).
		WithConfigDir(configDir).
		WithHotReload(&config.HotReloadSection{
			UpdateDebounceTimer: utils.JustPtr(50), // 50ms debounce for faster tests
		}).
		Get()
	return cfg, fixture
}

func TestFilewatcher_Integration(t *testing.T) {
	tests := []struct {
		name        string
		setupChange func(*config.Config, string) error
		changeDesc  string
	}{
		{
			name: "receives events when the config file changes",
			setupChange: func(cfg *config.Config, _ string) error {
				return os.WriteFile(cfg.ConfigPath(), []byte("[ui]\nconfirm_switch = true\n"), 0o600)
			},
			changeDesc: "modified config file",
		},
		{
			name: "receives events when files in config directory change",
			setupChange: func(cfg *config.Config, _ string) error {
				return os.WriteFile(filepath.Join(cfg.ConfigDir(), "other.toml"), []byte(""), 0o600)
			},
			changeDesc: "new file in config directory",
		},
		{
			name: "receives events when the monitors fixture changes",
			setupChange: func(_ *config.Config, fixture string) error {
				return os.WriteFile(fixture, []byte(`[]`), 0o600)
			},
			changeDesc: "modified fixture",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, fixture := setupFilewatcherTest(t)

			service := filewatcher.NewService(cfg, utils.BoolPtr(false))

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

			errCh := make(chan error, 1)
			go func() {
				errCh <- service.Run(ctx)
			}()

			time.Sleep(50 * time.Millisecond)

			events := service.Listen()
			require.NoError(t, tt.setupChange(cfg, fixture))

			select {
			case _, ok := <-events:
				assert.True(t, ok, "should receive event for %s", tt.changeDesc)
			case <-time.After(500 * time.Millisecond):
				t.Fatalf("timeout waiting for event after %s", tt.changeDesc)
			}

			cancel()

			select {
			case err := <-errCh:
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "context canceled")
			case <-time.After(1 * time.Second):
				t.Fatal("timeout waiting for service to shut down")
			}
		})
	}
}

func TestFilewatcher_Debounces(t *testing.T) {
	cfg, fixture := setupFilewatcherTest(t)
	service := filewatcher.NewService(cfg, utils.BoolPtr(false))

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go func() {
		_ = service.Run(ctx)
	}()
	time.Sleep(50 * time.Millisecond)

	for range 5 {
		require.NoError(t, os.WriteFile(fixture, []byte(`[]`), 0o600))
	}

	select {
	case <-service.Listen():
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout waiting for the debounced event")
	}

	select {
	case <-service.Listen():
		t.Fatal("writes within the debounce window should produce one event")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestFilewatcher_DisabledHotReload(t *testing.T) {
	cfg := testutils.NewTestConfig(t).Get()
	service := filewatcher.NewService(cfg, utils.BoolPtr(true))

	err := service.Update()
	assert.NoError(t, err, "Update should succeed when hot reload is disabled")
}

func TestFilewatcher_UpdateError(t *testing.T) {
	cfg := testutils.NewTestConfig(t).Get()
	service := filewatcher.NewService(cfg, utils.BoolPtr(false))

	err := service.Update()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no watcher assigned")
}
