package recordstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/wirestreams/component"
	"github.com/c360/wirestreams/errors"
	"github.com/c360/wirestreams/record"
	"github.com/c360/wirestreams/types"
)

// Kind is the registered component kind.
const Kind = "record-store"

// Property names and their defaults
const (
	PropTableName    = "table.name"
	PropMaxTableSize = "maximum.table.size"
	PropKeep         = "cleanup.records.keep"

	DefaultTableName    = "WR_data"
	DefaultMaxTableSize = 10000
	DefaultKeep         = 5000
)

const propertySchema = `{
  "type": "object",
  "properties": {
    "table.name": {"type": "string", "minLength": 1},
    "maximum.table.size": {"type": "integer", "minimum": 0},
    "cleanup.records.keep": {"type": "integer", "minimum": 0}
  }
}`

// Register adds the record-store kind to registry.
func Register(registry *component.Registry) error {
	return registry.RegisterWithConfig(component.RegistrationConfig{
		Kind:        Kind,
		Description: "Stores records in a SQL table and re-emits them",
		Schema:      propertySchema,
		Factory:     NewComponent,
	})
}

// Config is the decoded property set of a record-store.
type Config struct {
	TableName    string
	MaxTableSize int
	Keep         int
}

// ConfigFrom reads a Config from properties, applying defaults.
func ConfigFrom(props types.Properties) Config {
	return Config{
		TableName:    props.String(PropTableName, DefaultTableName),
		MaxTableSize: int(props.Int(PropMaxTableSize, DefaultMaxTableSize)),
		Keep:         int(props.Int(PropKeep, DefaultKeep)),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.TableName == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "recordstore", "Config.Validate", "table name is empty")
	}
	if c.MaxTableSize < 0 || c.Keep < 0 {
		return errors.WrapInvalid(fmt.Errorf("sizes must not be negative (max %d, keep %d)", c.MaxTableSize, c.Keep),
			"recordstore", "Config.Validate", "size check")
	}
	return nil
}

// retained is how many rows survive a cleanup.
func (c Config) retained() int {
	return min(c.Keep, c.MaxTableSize)
}

// Component persists every record it receives and passes the envelope on
// unchanged on port 0. Storage errors are logged and counted, never
// returned, so a failing database does not stop delivery downstream.
type Component struct {
	id      string
	cfg     Config
	store   *Store
	logger  *slog.Logger
	metrics *sinkMetrics

	received     int64
	stored       int64
	errors       int64
	mu           sync.RWMutex
	lastActivity time.Time
}

// NewComponent is the component.Factory for record-store. It needs
// Dependencies.DB and a known Dependencies.DBDriver; no connection is made.
func NewComponent(id string, props types.Properties, deps component.Dependencies) (component.Component, error) {
	cfg := ConfigFrom(props)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.DB == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "recordstore", "NewComponent", "no database configured")
	}
	dialect, err := DialectFor(deps.DBDriver)
	if err != nil {
		return nil, err
	}

	logger := deps.GetLoggerWithComponent(id)
	store, err := New(deps.DB, dialect, WithLogger(logger))
	if err != nil {
		return nil, err
	}

	metrics, err := newSinkMetrics(deps.MetricsRegistry, id)
	if err != nil {
		logger.Error("Failed to initialize record store metrics", "error", err)
		metrics = nil // Continue without metrics
	}

	if cfg.Keep > cfg.MaxTableSize {
		logger.Info("cleanup.records.keep exceeds maximum.table.size, cleanup keeps maximum.table.size rows",
			"keep", cfg.Keep, "max", cfg.MaxTableSize)
	}

	return &Component{id: id, cfg: cfg, store: store, logger: logger, metrics: metrics}, nil
}

// Meta returns component metadata
func (c *Component) Meta() component.Metadata {
	return component.Metadata{
		ID:          c.id,
		Kind:        Kind,
		Description: "Record store (" + c.store.Dialect().Name + ")",
	}
}

// InputPorts returns 1
func (c *Component) InputPorts() int { return 1 }

// OutputPorts returns 1
func (c *Component) OutputPorts() int { return 1 }

// Config returns the decoded properties.
func (c *Component) Config() Config { return c.cfg }

// Store returns the underlying store.
func (c *Component) Store() *Store { return c.store }

// OnReceive cleans the table up if it reached its maximum size, stores the
// records and re-emits them.
func (c *Component) OnReceive(ctx context.Context, _ int, env record.Envelope) ([]component.Emission, error) {
	atomic.AddInt64(&c.received, int64(len(env.Records)))
	c.mu.Lock()
	c.lastActivity = time.Now()
	c.mu.Unlock()

	c.cleanup(ctx)

	start := time.Now()
	err := c.store.Insert(ctx, c.cfg.TableName, env.Records)
	c.metrics.recordOperation("insert", err, time.Since(start))
	if err != nil {
		atomic.AddInt64(&c.errors, 1)
		c.logger.Error("Failed to store records", "table", c.cfg.TableName, "records", len(env.Records), "error", err)
	} else {
		atomic.AddInt64(&c.stored, int64(len(env.Records)))
		c.metrics.recordStored(len(env.Records))
	}

	return component.Emit(0, env.Records...), nil
}

func (c *Component) cleanup(ctx context.Context) {
	start := time.Now()
	n, err := c.store.Count(ctx, c.cfg.TableName)
	c.metrics.recordOperation("count", err, time.Since(start))
	if err != nil {
		atomic.AddInt64(&c.errors, 1)
		c.logger.Warn("Failed to read table size", "table", c.cfg.TableName, "error", err)
		return
	}
	if n < c.cfg.MaxTableSize {
		return
	}

	start = time.Now()
	err = c.store.Truncate(ctx, c.cfg.TableName, c.cfg.retained())
	c.metrics.recordOperation("truncate", err, time.Since(start))
	if err != nil {
		atomic.AddInt64(&c.errors, 1)
		c.logger.Warn("Failed to clean up table", "table", c.cfg.TableName, "error", err)
	}
}

// DataFlow returns throughput counters. Emitted counts stored records.
func (c *Component) DataFlow() component.FlowMetrics {
	c.mu.RLock()
	last := c.lastActivity
	c.mu.RUnlock()
	return component.FlowMetrics{
		Received:     atomic.LoadInt64(&c.received),
		Emitted:      atomic.LoadInt64(&c.stored),
		Errors:       atomic.LoadInt64(&c.errors),
		LastActivity: last,
	}
}
