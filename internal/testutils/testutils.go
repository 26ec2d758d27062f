// Package testutils provides utils for testing
// should not be imported by any other app packages
package testutils

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/fiffeek/inputswitcher/internal/config"
	"github.com/fiffeek/inputswitcher/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func Logf(t *testing.T, format string, args ...any) {
	t.Helper()
	t.Logf(format, args...)
}

type TestConfig struct {
	cfg     *config.UnsafeConfig
	t       *testing.T
	cfgFile *string
}

func NewTestConfig(t *testing.T) *TestConfig {
	return &TestConfig{cfg: &config.UnsafeConfig{}, t: t}
}

func (t *TestConfig) WithBackend(b *config.BackendSection) *TestConfig {
	t.cfg.Backend = b
	return t
}

func (t *TestConfig) WithSocketDir(dir string) *TestConfig {
	if t.cfg.Backend == nil {
		t.cfg.Backend = &config.BackendSection{}
	}
	t.cfg.Backend.Transport = utils.JustPtr(config.SocketTransport)
	t.cfg.Backend.SocketDir = utils.StringPtr(dir)
	return t
}

func (t *TestConfig) WithDisplay(d *config.DisplaySection) *TestConfig {
	t.cfg.Display = d
	return t
}

func (t *TestConfig) WithUI(u *config.UISection) *TestConfig {
	t.cfg.UI = u
	return t
}

func (t *TestConfig) WithInputLabels(labels map[string]string) *TestConfig {
	t.cfg.InputLabels = labels
	return t
}

func (t *TestConfig) WithNotifications(n *config.NotificationsSection) *TestConfig {
	t.cfg.Notifications = n
	return t
}

func (t *TestConfig) WithHotReload(h *config.HotReloadSection) *TestConfig {
	t.cfg.HotReload = h
	return t
}

func (t *TestConfig) WithConfigDir(dir string) *TestConfig {
	require.NoError(t.t, os.MkdirAll(dir, 0o750))
	return t.WithConfigPath(filepath.Join(dir, "config.toml"))
}

func (t *TestConfig) WithConfigPath(path string) *TestConfig {
	t.cfgFile = &path
	return t
}

func (t *TestConfig) SaveToFile() *TestConfig {
	buf := new(bytes.Buffer)
	if err := toml.NewEncoder(buf).Encode(t.cfg); err != nil {
		t.t.Fatalf("cant encode config: %v", err)
	}
	require.NotNil(t.t, t.cfgFile, "cfgFile cant be nil")
	if err := utils.WriteAtomic(*t.cfgFile, buf.Bytes()); err != nil {
		t.t.Fatalf("cant write config: %v", err)
	}
	return t
}

func (t *TestConfig) createConfig() *config.Config {
	logrus.WithFields(logrus.Fields{"path": *t.cfgFile}).Debug("Creating config")
	cfg, err := config.NewConfig(*t.cfgFile)
	require.NoError(t.t, err, "cant create config")

	return cfg
}

func (t *TestConfig) FillDefaults() *TestConfig {
	if t.cfgFile == nil {
		t = t.WithConfigDir(t.t.TempDir())
	}
	if t.cfg.Notifications == nil {
		t.cfg.Notifications = &config.NotificationsSection{Disabled: utils.BoolPtr(true)}
	}
	return t
}

func (t *TestConfig) Get() *config.Config {
	return t.FillDefaults().SaveToFile().createConfig()
}
