package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vango-dev/eventserver/internal/errors"
	"github.com/vango-dev/eventserver/pkg/server"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "eventserver.yaml"

	// DefaultPort is the default UDP port.
	DefaultPort = 9777

	// DefaultPortRange is how many ports after DefaultPort are tried.
	DefaultPortRange = 10

	// DefaultMaxClients is the default client cap.
	DefaultMaxClients = 20

	// DefaultInitialDelay is the default hold time before key repeat.
	DefaultInitialDelay = 750 * time.Millisecond

	// DefaultContinuousDelay is the default key repeat interval.
	DefaultContinuousDelay = 25 * time.Millisecond

	// DefaultStatusAddr is the default status server address.
	DefaultStatusAddr = "127.0.0.1:9778"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default log format.
	DefaultLogFormat = "text"
)

// configFileNames are tried in order by Load.
var configFileNames = []string{ConfigFileName, "eventserver.yml", "eventserver.json"}

// Config represents the complete eventserver configuration.
type Config struct {
	// Services holds the host settings of the event server.
	Services ServicesConfig `yaml:"services" json:"services"`

	// Server contains receive loop tuning.
	Server ServerConfig `yaml:"server" json:"server"`

	// Status contains status server configuration.
	Status StatusConfig `yaml:"status" json:"status"`

	// Log contains logging configuration.
	Log LogConfig `yaml:"log" json:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServicesConfig holds the event server host settings.
type ServicesConfig struct {
	// Port is the first UDP port tried.
	Port int `yaml:"esport" json:"esport"`

	// PortRange is how many ports after Port are tried.
	PortRange int `yaml:"esportrange" json:"esportrange"`

	// MaxClients caps concurrent client sessions.
	MaxClients int `yaml:"esmaxclients" json:"esmaxclients"`

	// AllInterfaces binds every interface instead of loopback only.
	AllInterfaces bool `yaml:"esallinterfaces" json:"esallinterfaces"`

	// InitialDelay is the hold time before the first key repeat.
	InitialDelay Duration `yaml:"esinitialdelay" json:"esinitialdelay"`

	// ContinuousDelay is the interval between key repeats.
	ContinuousDelay Duration `yaml:"escontinuousdelay" json:"escontinuousdelay"`
}

// ServerConfig contains receive loop tuning.
type ServerConfig struct {
	// PollInterval bounds each wait for a datagram.
	PollInterval Duration `yaml:"poll_interval,omitempty" json:"poll_interval,omitempty"`

	// ClientTimeout is the silence after which a client is removed.
	ClientTimeout Duration `yaml:"client_timeout,omitempty" json:"client_timeout,omitempty"`

	// ReassemblyTimeout is how long an incomplete message is kept.
	ReassemblyTimeout Duration `yaml:"reassembly_timeout,omitempty" json:"reassembly_timeout,omitempty"`

	// DisableIPv6 binds IPv4 only.
	DisableIPv6 bool `yaml:"disable_ipv6,omitempty" json:"disable_ipv6,omitempty"`
}

// StatusConfig contains status server configuration.
type StatusConfig struct {
	// Enabled starts the HTTP status server.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Addr is the HTTP listen address.
	Addr string `yaml:"addr,omitempty" json:"addr,omitempty"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `yaml:"level,omitempty" json:"level,omitempty"`

	// Format is text or json.
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Services: ServicesConfig{
			Port:            DefaultPort,
			PortRange:       DefaultPortRange,
			MaxClients:      DefaultMaxClients,
			AllInterfaces:   false,
			InitialDelay:    Duration(DefaultInitialDelay),
			ContinuousDelay: Duration(DefaultContinuousDelay),
		},
		Server: ServerConfig{
			PollInterval:      Duration(time.Second),
			ClientTimeout:     Duration(60 * time.Second),
			ReassemblyTimeout: Duration(5 * time.Second),
		},
		Status: StatusConfig{
			Enabled: true,
			Addr:    DefaultStatusAddr,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for eventserver.yaml, eventserver.yml and eventserver.json in
// that order.
func Load(dir string) (*Config, error) {
	for _, name := range configFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("E100").
		WithDetail("No " + ConfigFileName + " found in " + dir).
		WithSuggestion("Run 'eventserver config init' to write one with the defaults")
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	unmarshal, err := codecFor(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E100").
				WithDetail("No configuration file at " + path).
				Wrap(err)
		}
		return nil, errors.New("E100").Wrap(err)
	}

	cfg := New()
	if err := unmarshal(data, cfg); err != nil {
		return nil, errors.New("E100").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check the file syntax")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func codecFor(path string) (func([]byte, any) error, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal, nil
	case ".json":
		return json.Unmarshal, nil
	default:
		return nil, errors.New("E101").WithDetail("Unsupported file " + path)
	}
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path. The format follows
// the file extension.
func (c *Config) SaveTo(path string) error {
	if _, err := codecFor(path); err != nil {
		return err
	}
	data, err := c.Marshal(isJSON(path))
	if err != nil {
		return errors.New("E100").Wrap(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E100").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Marshal encodes the configuration as YAML, or as indented JSON.
func (c *Config) Marshal(asJSON bool) ([]byte, error) {
	if asJSON {
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
	return yaml.Marshal(c)
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Services.MaxClients == 0 {
		c.Services.MaxClients = DefaultMaxClients
	}
	if c.Server.PollInterval == 0 {
		c.Server.PollInterval = Duration(time.Second)
	}
	if c.Server.ClientTimeout == 0 {
		c.Server.ClientTimeout = Duration(60 * time.Second)
	}
	if c.Server.ReassemblyTimeout == 0 {
		c.Server.ReassemblyTimeout = Duration(5 * time.Second)
	}
	if c.Status.Addr == "" {
		c.Status.Addr = DefaultStatusAddr
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	s := c.Services
	if s.Port < 0 || s.Port > 65535 {
		return errors.New("E102").
			WithDetailf("esport is %d, must be between 0 and 65535", s.Port)
	}
	if s.PortRange < 0 || s.Port+s.PortRange > 65535 {
		return errors.New("E103").
			WithDetailf("esport %d with esportrange %d runs past port 65535", s.Port, s.PortRange)
	}
	if s.MaxClients < 1 {
		return errors.New("E104").
			WithDetailf("esmaxclients is %d", s.MaxClients)
	}

	durations := []struct {
		name string
		d    Duration
	}{
		{"esinitialdelay", s.InitialDelay},
		{"escontinuousdelay", s.ContinuousDelay},
		{"poll_interval", c.Server.PollInterval},
		{"client_timeout", c.Server.ClientTimeout},
		{"reassembly_timeout", c.Server.ReassemblyTimeout},
	}
	for _, d := range durations {
		if d.d < 0 {
			return errors.New("E105").WithDetailf("%s is %v", d.name, d.d)
		}
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if _, err := ParseFormat(c.Log.Format); err != nil {
		return err
	}
	return nil
}

// Settings returns the event server settings.
func (c *Config) Settings() server.Settings {
	return server.Settings{
		Port:            c.Services.Port,
		PortRange:       c.Services.PortRange,
		MaxClients:      c.Services.MaxClients,
		AllInterfaces:   c.Services.AllInterfaces,
		InitialDelay:    c.Services.InitialDelay.Std(),
		ContinuousDelay: c.Services.ContinuousDelay.Std(),
	}
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, errors.New("E106").WithDetailf("unknown log level %q", level)
	}
}

// ParseFormat validates a log format name.
func ParseFormat(format string) (string, error) {
	switch f := strings.ToLower(format); f {
	case "text", "json":
		return f, nil
	case "":
		return DefaultLogFormat, nil
	default:
		return "", errors.New("E106").WithDetailf("unknown log format %q", format)
	}
}
