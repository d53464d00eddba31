package config

import (
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vango-dev/eventserver/internal/errors"
	"github.com/vango-dev/eventserver/pkg/server"
)

// Store holds the active Config and reloads it from disk. It implements
// server.SettingsSource.
type Store struct {
	mu  sync.RWMutex
	cfg *Config
}

// NewStore creates a Store holding cfg.
func NewStore(cfg *Config) *Store {
	if cfg == nil {
		cfg = New()
	}
	return &Store{cfg: cfg}
}

// Config returns the active Config.
func (s *Store) Config() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Settings implements server.SettingsSource.
func (s *Store) Settings() server.Settings {
	return s.Config().Settings()
}

// Reload re-reads the file the active Config was loaded from. The active
// Config is kept when the file is missing or invalid.
func (s *Store) Reload() error {
	path := s.Config().Path()
	if path == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

// ServerConfig builds the event server wiring from the active Config.
func (s *Store) ServerConfig(logger *slog.Logger, reg prometheus.Registerer) *server.Config {
	cfg := s.Config()
	sc := server.DefaultConfig()
	sc.Settings = s
	sc.PollInterval = cfg.Server.PollInterval.Std()
	sc.ClientTimeout = cfg.Server.ClientTimeout.Std()
	sc.ReassemblyTimeout = cfg.Server.ReassemblyTimeout.Std()
	sc.DisableIPv6 = cfg.Server.DisableIPv6
	sc.Registerer = reg
	if logger != nil {
		sc.Logger = logger
	}
	return sc
}
