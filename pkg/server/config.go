package server

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Settings are the host configuration inputs of the event server.
type Settings struct {
	// Port is the first UDP port tried. 0 binds an ephemeral port.
	// Default: 9777.
	Port int

	// PortRange is how many ports after Port are tried.
	// Default: 10.
	PortRange int

	// MaxClients caps the number of concurrent client sessions.
	// Default: 20.
	MaxClients int

	// AllInterfaces binds every interface instead of loopback only.
	// Default: false.
	AllInterfaces bool

	// InitialDelay is the hold time before the first key repeat.
	// A non-positive delay disables key repeat.
	// Default: 750ms.
	InitialDelay time.Duration

	// ContinuousDelay is the interval between subsequent key repeats.
	// A non-positive delay disables key repeat.
	// Default: 25ms.
	ContinuousDelay time.Duration
}

// DefaultSettings returns Settings with the stock values.
func DefaultSettings() Settings {
	return Settings{
		Port:            9777,
		PortRange:       10,
		MaxClients:      20,
		AllInterfaces:   false,
		InitialDelay:    750 * time.Millisecond,
		ContinuousDelay: 25 * time.Millisecond,
	}
}

// SettingsSource is the host configuration store. Start reads it once;
// RefreshSettings reads it again for the repeat delays.
type SettingsSource interface {
	Settings() Settings
}

// StaticSettings is a SettingsSource that always returns the same values.
type StaticSettings Settings

// Settings implements SettingsSource.
func (s StaticSettings) Settings() Settings {
	return Settings(s)
}

// Config holds the wiring of a Server.
type Config struct {
	// Settings is the host configuration store.
	// Default: StaticSettings(DefaultSettings()).
	Settings SettingsSource

	// PollInterval bounds how long the receive loop waits for a datagram,
	// and so how long Stop may take.
	// Default: 1 second.
	PollInterval time.Duration

	// ClientTimeout is the silence after which a client is removed.
	// Default: 60 seconds.
	ClientTimeout time.Duration

	// ReassemblyTimeout is how long an incomplete multi-packet message is kept.
	// Default: 5 seconds.
	ReassemblyTimeout time.Duration

	// DisableIPv6 binds IPv4 only.
	DisableIPv6 bool

	// Logger is the base logger. Default: slog.Default().
	Logger *slog.Logger

	// Registerer receives the server's Prometheus collectors.
	// Default: a private registry, see Server.Gatherer.
	Registerer prometheus.Registerer

	// TracerName names the OpenTelemetry tracer.
	// Default: "eventserver".
	TracerName string

	// Notifier receives NOTIFICATION packets. Default: logs them.
	Notifier Notifier

	// LogSink receives LOG packets. Default: re-emits them through Logger.
	LogSink LogSink

	// BlobSink receives BLOB packets. Default: discards them.
	BlobSink BlobSink

	// Watcher receives client join and leave events. Default: none.
	Watcher ClientWatcher

	// Now returns the current time. Default: time.Now.
	Now func() time.Time
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Settings:          StaticSettings(DefaultSettings()),
		PollInterval:      time.Second,
		ClientTimeout:     60 * time.Second,
		ReassemblyTimeout: 5 * time.Second,
		Logger:            slog.Default(),
		TracerName:        "eventserver",
		Now:               time.Now,
	}
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// withDefaults returns a copy with every unset field filled in.
func (c *Config) withDefaults() *Config {
	defaults := DefaultConfig()
	if c == nil {
		return defaults
	}
	cfg := c.Clone()
	if cfg.Settings == nil {
		cfg.Settings = defaults.Settings
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaults.PollInterval
	}
	if cfg.ClientTimeout <= 0 {
		cfg.ClientTimeout = defaults.ClientTimeout
	}
	if cfg.ReassemblyTimeout <= 0 {
		cfg.ReassemblyTimeout = defaults.ReassemblyTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = defaults.Logger
	}
	if cfg.TracerName == "" {
		cfg.TracerName = defaults.TracerName
	}
	if cfg.Now == nil {
		cfg.Now = defaults.Now
	}
	return cfg
}

// normalize fills zero settings with defaults. Port 0 is kept so tests can
// bind an ephemeral port.
func (s Settings) normalize() Settings {
	d := DefaultSettings()
	if s.PortRange < 0 {
		s.PortRange = 0
	}
	if s.MaxClients <= 0 {
		s.MaxClients = d.MaxClients
	}
	return s
}
