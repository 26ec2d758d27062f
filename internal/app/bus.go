package app

import (
	"errors"
	"fmt"

	"github.com/fiffeek/inputswitcher/internal/config"
	"github.com/fiffeek/inputswitcher/internal/host"
	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"
)

func getBus(connectToSystemBus bool) (*dbus.Conn, error) {
	var conn *dbus.Conn
	var err error
	if connectToSystemBus {
		logrus.Debug("Trying to connect to system bus")
		conn, err = dbus.ConnectSystemBus()
	} else {
		logrus.Debug("Trying to connect to session bus")
		conn, err = dbus.ConnectSessionBus()
	}

	if err != nil {
		return nil, fmt.Errorf("cant init dbus conn: %w", err)
	}

	return conn, nil
}

// Backend is the host transport picked from config and flags, with what it needs to be torn down.
type Backend struct {
	Host      host.Host
	Transport config.TransportType
	static    *host.StaticHost
	fixture   string
	conn      *dbus.Conn
}

func NewBackend(cfg *config.Config, opts HostOptions) (*Backend, error) {
	transport, err := forceTransport(opts, cfg)
	if err != nil {
		return nil, err
	}
	backendCfg := cfg.Get().Backend
	fields := logrus.Fields{"transport": transport.Value()}

	switch transport {
	case config.SocketTransport:
		logrus.WithFields(fields).WithField("dir", *backendCfg.SocketDir).Debug("Using the socket host")
		return &Backend{Host: host.NewSocketHost(*backendCfg.SocketDir), Transport: transport}, nil

	case config.DbusTransport:
		conn, err := getBus(*backendCfg.ConnectToSystemBus)
		if err != nil {
			return nil, fmt.Errorf("cant connect to dbus: %w", err)
		}
		target := host.DBusTarget{
			Destination: *backendCfg.DbusDestination,
			Path:        *backendCfg.DbusObjectPath,
			Interface:   *backendCfg.DbusInterface,
		}
		logrus.WithFields(fields).Debug("Using the dbus host")
		return &Backend{Host: host.NewDBusHost(conn, target), Transport: transport, conn: conn}, nil

	case config.StaticTransport:
		fixture := opts.MonitorsOverride
		if fixture == "" && backendCfg.MonitorsFixture != nil {
			fixture = *backendCfg.MonitorsFixture
		}
		if fixture == "" {
			return nil, errors.New("static transport needs --monitors-override or backend.monitors_fixture")
		}
		static, err := host.NewStaticHostFromFile(fixture)
		if err != nil {
			return nil, fmt.Errorf("cant load monitors fixture: %w", err)
		}
		logrus.WithFields(fields).WithField("fixture", fixture).Debug("Using the static host")
		return &Backend{Host: static, Transport: transport, static: static, fixture: fixture}, nil
	}

	return nil, fmt.Errorf("unsupported transport %s", transport.Value())
}

// ReloadFixture re-reads the static fixture, other transports are left alone.
func (b *Backend) ReloadFixture() error {
	if b.static == nil {
		return nil
	}
	infos, err := host.LoadMonitorsFixture(b.fixture)
	if err != nil {
		return fmt.Errorf("cant reload monitors fixture: %w", err)
	}
	b.static.SetMonitors(infos)
	logrus.WithField("fixture", b.fixture).Debug("Monitors fixture reloaded")
	return nil
}

func (b *Backend) Close() error {
	if b.conn == nil {
		return nil
	}
	if err := b.conn.Close(); err != nil {
		return fmt.Errorf("cant close dbus conn: %w", err)
	}
	return nil
}
