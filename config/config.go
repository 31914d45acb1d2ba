package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/c360/wirestreams/errors"
	"github.com/c360/wirestreams/types"
)

// Log formats
const (
	FormatJSON = "json"
	FormatText = "text"
)

// SupportedDrivers lists the database/sql driver names the host can open.
var SupportedDrivers = []string{"sqlite", "sqlite3", "postgres", "pgx", "mysql"}

// Config represents the complete host configuration.
type Config struct {
	Log      LogConfig       `json:"log"      yaml:"log"`
	Metrics  MetricsConfig   `json:"metrics"  yaml:"metrics"`
	Database DatabaseConfig  `json:"database" yaml:"database"`
	NATS     NATSConfig      `json:"nats"     yaml:"nats"`
	Graph    types.GraphSpec `json:"graph"    yaml:"graph"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `json:"level"  yaml:"level"`  // debug, info, warn, error
	Format string `json:"format" yaml:"format"` // json, text
}

// MetricsConfig controls the Prometheus endpoint. Port 0 disables it.
type MetricsConfig struct {
	Port int    `json:"port" yaml:"port"`
	Path string `json:"path" yaml:"path"`
}

// DatabaseConfig is the shared handle given to storage components. An empty
// driver means no database.
type DatabaseConfig struct {
	Driver       string `json:"driver,omitempty"         yaml:"driver,omitempty"`
	DSN          string `json:"dsn,omitempty"            yaml:"dsn,omitempty"`
	MaxOpenConns int    `json:"max_open_conns,omitempty" yaml:"max_open_conns,omitempty"`
}

// Enabled reports whether a database is configured.
func (d DatabaseConfig) Enabled() bool { return d.Driver != "" }

// NATSConfig defines the optional NATS connection. An empty URL leaves NATS
// out entirely: no event forwarding and no graph store.
type NATSConfig struct {
	URL           string        `json:"url,omitempty"            yaml:"url,omitempty"`
	MaxReconnects int           `json:"max_reconnects,omitempty" yaml:"max_reconnects,omitempty"`
	ReconnectWait time.Duration `json:"reconnect_wait,omitempty" yaml:"reconnect_wait,omitempty"`
	Bucket        string        `json:"bucket,omitempty"         yaml:"bucket,omitempty"`    // graph store KV bucket
	GraphKey      string        `json:"graph_key,omitempty"      yaml:"graph_key,omitempty"` // graph to load and watch
	EventSubject  string        `json:"event_subject,omitempty"  yaml:"event_subject,omitempty"`
}

// Enabled reports whether NATS is configured.
func (n NATSConfig) Enabled() bool { return n.URL != "" }

// Default returns the configuration used before any layer is applied.
func Default() *Config {
	return &Config{
		Log:     LogConfig{Level: "info", Format: FormatJSON},
		Metrics: MetricsConfig{Port: 9090, Path: "/metrics"},
		NATS: NATSConfig{
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
			Bucket:        "wirestreams_graphs",
			EventSubject:  "wirestreams.events",
		},
	}
}

// Validate checks the configuration. The graph gets the structural checks of
// GraphSpec.Validate only; kinds and wiring are checked when it is built.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return errors.WrapInvalid(fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level),
			"Config", "Validate", "log level")
	}
	if c.Log.Format != FormatJSON && c.Log.Format != FormatText {
		return errors.WrapInvalid(fmt.Errorf("log.format %q is not json or text", c.Log.Format),
			"Config", "Validate", "log format")
	}

	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		return errors.WrapInvalid(fmt.Errorf("metrics.port %d out of range", c.Metrics.Port),
			"Config", "Validate", "metrics port")
	}
	if c.Metrics.Port > 0 && !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.WrapInvalid(fmt.Errorf("metrics.path %q must start with /", c.Metrics.Path),
			"Config", "Validate", "metrics path")
	}

	if c.Database.Enabled() {
		if !supportedDriver(c.Database.Driver) {
			return errors.WrapInvalid(fmt.Errorf("database.driver %q is not one of %v", c.Database.Driver, SupportedDrivers),
				"Config", "Validate", "database driver")
		}
		if c.Database.DSN == "" {
			return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "database.dsn is required")
		}
	}

	if c.NATS.Enabled() && c.NATS.GraphKey != "" && c.NATS.Bucket == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "nats.bucket is required with nats.graph_key")
	}

	return c.Graph.Validate()
}

func supportedDriver(driver string) bool {
	for _, d := range SupportedDrivers {
		if d == driver {
			return true
		}
	}
	return false
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}
	clone := *c
	clone.Graph = c.Graph.Clone()
	return &clone
}

// String returns a JSON representation of the config with the DSN masked.
func (c *Config) String() string {
	masked := c.Clone()
	if masked.Database.DSN != "" {
		masked.Database.DSN = "***"
	}
	data, _ := json.MarshalIndent(masked, "", "  ")
	return string(data)
}

// SafeConfig provides thread-safe access to configuration
type SafeConfig struct {
	mu     sync.RWMutex
	config *Config
}

// NewSafeConfig creates a new thread-safe config wrapper
func NewSafeConfig(cfg *Config) *SafeConfig {
	if cfg == nil {
		cfg = Default()
	}
	return &SafeConfig{config: cfg}
}

// Get returns a deep copy of the current configuration
func (sc *SafeConfig) Get() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config.Clone()
}

// Update atomically updates the configuration after validation
func (sc *SafeConfig) Update(cfg *Config) error {
	if cfg == nil {
		return errors.WrapInvalid(errors.ErrMissingConfig, "SafeConfig", "Update", "config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.config = cfg.Clone()
	return nil
}
