// Package config handles loading and validation of TOML configuration files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/fiffeek/inputswitcher/internal/utils"
	"github.com/sirupsen/logrus"
)

// Config is the live configuration, safe to share between goroutines.
type Config struct {
	mu         sync.RWMutex
	cfg        *RawConfig
	configPath string
}

// RawConfig mirrors the TOML document, every section is populated with defaults after Validate.
type RawConfig struct {
	configPath    string
	Backend       *BackendSection       `toml:"backend"`
	Display       *DisplaySection       `toml:"display"`
	UI            *UISection            `toml:"ui"`
	InputLabels   map[string]string     `toml:"input_labels"`
	Notifications *NotificationsSection `toml:"notifications"`
	HotReload     *HotReloadSection     `toml:"hot_reload"`
}

// UnsafeConfig is a RawConfig that was not validated yet, used to compose test configs.
type UnsafeConfig = RawConfig

type BackendSection struct {
	Transport          *TransportType `toml:"transport"`
	SocketDir          *string        `toml:"socket_dir"`
	DbusDestination    *string        `toml:"dbus_destination"`
	DbusObjectPath     *string        `toml:"dbus_object_path"`
	DbusInterface      *string        `toml:"dbus_interface"`
	ConnectToSystemBus *bool          `toml:"connect_to_system_bus"`
	MonitorsFixture    *string        `toml:"monitors_fixture"`
}

type DisplaySection struct {
	Order   *DisplayOrder `toml:"order"`
	Ordinal *OrdinalMode  `toml:"ordinal"`
}

type UISection struct {
	ConfirmSwitch *bool `toml:"confirm_switch"`
}

type NotificationsSection struct {
	Disabled  *bool  `toml:"disabled"`
	TimeoutMs *int32 `toml:"timeout_ms"`
}

type HotReloadSection struct {
	Disabled            *bool `toml:"disabled"`
	UpdateDebounceTimer *int  `toml:"update_debounce_timer"`
}

const (
	DefaultDbusDestination = "io.github.inputswitcher.Host"
	DefaultDbusObjectPath  = "/io/github/inputswitcher/Host"
	DefaultDbusInterface   = "io.github.inputswitcher.Host"
	defaultSocketDir       = "$XDG_RUNTIME_DIR/inputswitcher"
)

func NewConfig(configPath string) (*Config, error) {
	cfg, err := Load(configPath)
	if err != nil {
		return nil, err
	}

	return &Config{cfg: cfg, configPath: configPath}, nil
}

func (c *Config) Get() *RawConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

func (c *Config) ConfigPath() string {
	return c.configPath
}

func (c *Config) ConfigDir() string {
	return filepath.Dir(os.ExpandEnv(c.configPath))
}

// Reload swaps the held configuration only when the new file is valid.
func (c *Config) Reload() error {
	cfg, err := Load(c.configPath)
	if err != nil {
		return fmt.Errorf("cant reload config: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg

	logrus.WithFields(utils.NewLogrusCustomFields(map[string]any{"path": c.configPath}).
		WithLogID(utils.ConfigReloadedLogID)).Info("Configuration reloaded")
	return nil
}

// Load reads and validates the file, a missing file yields the defaults.
func Load(configPath string) (*RawConfig, error) {
	configPath = os.ExpandEnv(configPath)

	absConfig, err := filepath.Abs(filepath.Dir(configPath))
	if err != nil {
		return nil, fmt.Errorf("cant convert config path to abs %w", err)
	}

	var config RawConfig
	config.configPath = absConfig

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		logrus.WithField("path", configPath).Debug("Configuration file not found, using defaults")
	} else if _, err := toml.DecodeFile(configPath, &config); err != nil {
		return nil, fmt.Errorf("failed to decode TOML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *RawConfig) Validate() error {
	if c.Backend == nil {
		c.Backend = &BackendSection{}
	}
	if err := c.Backend.Validate(c.configPath); err != nil {
		return fmt.Errorf("backend section validation failed: %w", err)
	}

	if c.Display == nil {
		c.Display = &DisplaySection{}
	}
	c.Display.Validate()

	if c.UI == nil {
		c.UI = &UISection{}
	}
	if c.UI.ConfirmSwitch == nil {
		c.UI.ConfirmSwitch = utils.BoolPtr(false)
	}

	if c.InputLabels == nil {
		c.InputLabels = map[string]string{}
	}
	for input, label := range c.InputLabels {
		if label == "" {
			return fmt.Errorf("input_labels.%s cant be empty", input)
		}
	}

	if c.Notifications == nil {
		c.Notifications = &NotificationsSection{}
	}
	if err := c.Notifications.Validate(); err != nil {
		return fmt.Errorf("notifications section validation failed: %w", err)
	}

	if c.HotReload == nil {
		c.HotReload = &HotReloadSection{}
	}
	if err := c.HotReload.Validate(); err != nil {
		return fmt.Errorf("hot_reload section validation failed: %w", err)
	}

	return nil
}

func (b *BackendSection) Validate(configPath string) error {
	if b.Transport == nil {
		b.Transport = utils.JustPtr(SocketTransport)
	}
	if b.SocketDir == nil {
		b.SocketDir = utils.StringPtr(defaultSocketDir)
	}
	socketDir := os.ExpandEnv(*b.SocketDir)
	if *b.Transport == SocketTransport && socketDir == "" {
		return errors.New("socket_dir cant be empty")
	}
	b.SocketDir = &socketDir

	if b.DbusDestination == nil {
		b.DbusDestination = utils.StringPtr(DefaultDbusDestination)
	}
	if b.DbusObjectPath == nil {
		b.DbusObjectPath = utils.StringPtr(DefaultDbusObjectPath)
	}
	if b.DbusInterface == nil {
		b.DbusInterface = utils.StringPtr(DefaultDbusInterface)
	}
	if b.ConnectToSystemBus == nil {
		b.ConnectToSystemBus = utils.BoolPtr(false)
	}

	if *b.Transport == StaticTransport {
		if b.MonitorsFixture == nil || *b.MonitorsFixture == "" {
			return errors.New("monitors_fixture is required for the static transport")
		}
	}
	if b.MonitorsFixture != nil {
		fixture := os.ExpandEnv(*b.MonitorsFixture)
		if !filepath.IsAbs(fixture) {
			fixture = filepath.Join(configPath, fixture)
		}
		b.MonitorsFixture = &fixture
	}

	if *b.Transport == DbusTransport {
		if *b.DbusDestination == "" || *b.DbusInterface == "" {
			return errors.New("dbus_destination and dbus_interface cant be empty")
		}
		if len(*b.DbusObjectPath) == 0 || (*b.DbusObjectPath)[0] != '/' {
			return fmt.Errorf("dbus_object_path %q needs to be absolute", *b.DbusObjectPath)
		}
	}

	return nil
}

func (d *DisplaySection) Validate() {
	if d.Order == nil {
		d.Order = utils.JustPtr(EmissionOrder)
	}
	if d.Ordinal == nil {
		d.Ordinal = utils.JustPtr(IDOrdinal)
	}
}

func (n *NotificationsSection) Validate() error {
	if n.Disabled == nil {
		n.Disabled = utils.BoolPtr(false)
	}
	if n.TimeoutMs == nil {
		n.TimeoutMs = utils.JustPtr(int32(10000))
	}
	if *n.TimeoutMs < 0 {
		return errors.New("timeout_ms needs to be >= 0")
	}
	return nil
}

func (h *HotReloadSection) Validate() error {
	if h.Disabled == nil {
		h.Disabled = utils.BoolPtr(false)
	}
	if h.UpdateDebounceTimer == nil {
		h.UpdateDebounceTimer = utils.IntPtr(1000)
	}
	if *h.UpdateDebounceTimer < 0 {
		return errors.New("update_debounce_timer needs to be >= 0")
	}
	return nil
}
