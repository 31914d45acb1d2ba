package component

import (
	"database/sql"
	"log/slog"

	"github.com/c360/wirestreams/metric"
	"github.com/c360/wirestreams/pkg/regexcache"
)

// Dependencies provides all external dependencies needed by components.
// A Manager hands the same Dependencies to every factory it calls.
type Dependencies struct {
	Logger          *slog.Logger            // Structured logger (can be nil, defaults to slog.Default())
	MetricsRegistry *metric.MetricsRegistry // Metrics registry for Prometheus (can be nil)
	DB              *sql.DB                 // Shared database handle for storage components (can be nil)
	DBDriver        string                  // database/sql driver name DB was opened with
	Patterns        *regexcache.Cache       // Compiled pattern cache (can be nil, patterns are then compiled per use)
}

// GetLogger returns the configured logger or a default logger if none is provided
func (d *Dependencies) GetLogger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// GetLoggerWithComponent returns a logger configured with component context
func (d *Dependencies) GetLoggerWithComponent(componentID string) *slog.Logger {
	return d.GetLogger().With("component", componentID)
}
