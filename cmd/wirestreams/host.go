package main

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	// database/sql drivers selectable through database.driver
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/c360/wirestreams/component"
	"github.com/c360/wirestreams/componentregistry"
	"github.com/c360/wirestreams/config"
	"github.com/c360/wirestreams/engine"
	"github.com/c360/wirestreams/errors"
	"github.com/c360/wirestreams/events"
	"github.com/c360/wirestreams/flowstore"
	"github.com/c360/wirestreams/health"
	"github.com/c360/wirestreams/metric"
	"github.com/c360/wirestreams/natsclient"
	"github.com/c360/wirestreams/pkg/retry"
	"github.com/c360/wirestreams/types"
)

const storeRetryWait = 2 * time.Second

// host owns everything a running process shares across graph generations.
type host struct {
	cfg      *config.SafeConfig
	logger   *slog.Logger
	metrics  *metric.MetricsRegistry
	registry *component.Registry
	db       *sql.DB
	manager  *engine.Manager
	health   *health.Monitor
}

func newHost(cfg *config.Config, logger *slog.Logger) (*host, error) {
	registry := component.NewRegistry()
	if err := componentregistry.Register(registry); err != nil {
		return nil, fmt.Errorf("register components: %w", err)
	}
	logger.Info("Component kinds registered", "kinds", registry.Kinds())

	db, err := openDatabase(context.Background(), cfg.Database)
	if err != nil {
		return nil, err
	}

	metrics := metric.NewMetricsRegistry()
	manager, err := engine.NewManager(registry, component.Dependencies{
		Logger:          logger,
		MetricsRegistry: metrics,
		DB:              db,
		DBDriver:        cfg.Database.Driver,
	})
	if err != nil {
		closeDatabase(db, logger)
		return nil, fmt.Errorf("create manager: %w", err)
	}

	monitor := health.NewMonitor()
	if db != nil {
		monitor.Update("database", health.NewHealthy("database", "Connected ("+cfg.Database.Driver+")"))
	}

	return &host{
		health:   monitor,
		cfg:      config.NewSafeConfig(cfg),
		logger:   logger,
		metrics:  metrics,
		registry: registry,
		db:       db,
		manager:  manager,
	}, nil
}

// openDatabase opens and pings the shared handle. No driver means no database.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	driver := cfg.Driver
	if driver == "sqlite3" {
		driver = "sqlite" // modernc registers the pure Go driver as sqlite
	}
	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, errors.WrapInvalid(err, "host", "openDatabase", "open "+cfg.Driver)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	err = retry.Do(ctx, retry.Quick(), func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

func closeDatabase(db *sql.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Warn("Failed to close database", "error", err)
	}
}

// validate builds the configured graph without activating it.
func (h *host) validate(ctx context.Context) error {
	defer closeDatabase(h.db, h.logger)

	cfg := h.cfg.Get()
	g, err := h.manager.Build(ctx, cfg.Graph)
	if err != nil {
		return fmt.Errorf("invalid graph: %w", err)
	}
	defer func() {
		if err := g.Release(ctx); err != nil {
			h.logger.Warn("Failed to release validated graph", "error", err)
		}
	}()

	analysis := g.Analyze()
	h.logger.Info("Configuration is valid",
		"components", len(g.ComponentIDs()),
		"wires", len(cfg.Graph.Wires),
		"status", analysis.ValidationStatus,
		"disconnected", len(analysis.DisconnectedNodes),
		"orphaned_ports", len(analysis.OrphanedPorts))
	return nil
}

// serve activates the graph and keeps it current until ctx is done, then
// tears everything down within shutdownTimeout.
func (h *host) serve(ctx context.Context, watcher *config.Watcher, hooks reloadHooks,
	shutdownTimeout time.Duration) error {
	defer closeDatabase(h.db, h.logger)

	cfg := h.cfg.Get()
	core := h.metrics.CoreMetrics()

	var client *natsclient.Client
	var store *flowstore.Store
	if cfg.NATS.Enabled() {
		var err error
		client, err = connectNATS(ctx, cfg.NATS, h.logger, func(healthy bool) {
			core.RecordNATSStatus(healthy)
			if healthy {
				h.health.Update("nats", health.NewHealthy("nats", "Connected"))
			} else {
				h.health.Update("nats", health.NewDegraded("nats", "Reconnecting"))
			}
		})
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := client.Close(closeCtx); err != nil {
				h.logger.Warn("Failed to close NATS connection", "error", err)
			}
		}()

		forwarder, err := events.NewNATSForwarder(client, cfg.NATS.EventSubject, h.logger, core)
		if err != nil {
			return err
		}
		defer forwarder.Attach(h.manager.Events())()

		if cfg.NATS.GraphKey != "" {
			store, err = flowstore.NewStore(ctx, client, cfg.NATS.Bucket, h.logger)
			if err != nil {
				return fmt.Errorf("open graph store: %w", err)
			}
		}
	}

	defer h.health.Track(h.manager.Events())()

	spec, revision, err := h.initialGraph(ctx, cfg, store)
	if err != nil {
		return err
	}
	if err := h.manager.Activate(ctx, spec); err != nil {
		return fmt.Errorf("activate graph: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if cfg.Metrics.Port > 0 {
		server := metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, h.metrics)
		server.HandleHealth(health.Handler(h.health, appName))
		server.Handle("/flows", h.flowsHandler())
		g.Go(server.Start)
		g.Go(func() error {
			<-gctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Stop(stopCtx)
		})
		h.logger.Info("Serving metrics", "address", server.Address())
	}

	if watcher != nil {
		g.Go(func() error {
			return watcher.Run(gctx, func(next *config.Config) {
				err := h.applyConfig(gctx, next, hooks, store == nil)
				core.RecordConfigReload(err == nil)
			})
		})
	}

	if store != nil {
		g.Go(func() error { return h.followStore(gctx, store, cfg.NATS.GraphKey, revision, core) })
	}

	h.logger.Info("Wirestreams started", "components", len(spec.Components), "wires", len(spec.Wires))
	runErr := g.Wait()
	h.logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := h.manager.Teardown(shutdownCtx); err != nil {
		h.logger.Warn("Graph teardown reported errors", "error", err)
	}
	if runErr != nil {
		return runErr
	}
	h.logger.Info("Wirestreams shutdown complete")
	return nil
}

func connectNATS(ctx context.Context, cfg config.NATSConfig, logger *slog.Logger,
	onHealthChange func(bool)) (*natsclient.Client, error) {
	opts := []natsclient.ClientOption{
		natsclient.WithLogger(logger),
		natsclient.WithClientName(appName),
		natsclient.WithMaxReconnects(cfg.MaxReconnects),
		natsclient.WithHealthChangeCallback(onHealthChange),
	}
	if cfg.ReconnectWait > 0 {
		opts = append(opts, natsclient.WithReconnectWait(cfg.ReconnectWait))
	}
	client, err := natsclient.NewClient(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	logger.Info("Connecting to NATS")
	if err := retry.Do(ctx, retry.Quick(), func() error { return client.Connect(ctx) }); err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return client, nil
}

// initialGraph prefers the graph stored under the configured key and falls
// back to the configuration's own graph when the key does not exist yet.
// The returned revision is 0 for the configured graph.
func (h *host) initialGraph(ctx context.Context, cfg *config.Config, store *flowstore.Store) (types.GraphSpec, uint64, error) {
	if store == nil {
		return cfg.Graph, 0, nil
	}
	stored, err := store.Load(ctx, cfg.NATS.GraphKey)
	switch {
	case err == nil:
		h.logger.Info("Loaded graph from store", "name", stored.Name, "revision", stored.Revision)
		return stored.Spec, stored.Revision, nil
	case stderrors.Is(err, errors.ErrKeyNotFound):
		h.logger.Info("No stored graph, using configured graph", "name", cfg.NATS.GraphKey)
		return cfg.Graph, 0, nil
	default:
		return types.GraphSpec{}, 0, fmt.Errorf("load graph %s: %w", cfg.NATS.GraphKey, err)
	}
}

// flowsHandler serves the throughput counters of the active components as
// JSON keyed by component id.
func (h *host) flowsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(h.manager.DataFlow()); err != nil {
			h.logger.Warn("Failed to write flow counters", "error", err)
		}
	})
}

// reloadHooks adjust a reloaded configuration before it is validated and
// act on it once it has been accepted. Either may be nil.
type reloadHooks struct {
	prepare func(*config.Config)
	commit  func(*config.Config)
}

// applyConfig takes a reloaded configuration. The graph follows the files
// only when no graph store owns it. Database and NATS settings apply on the
// next start.
func (h *host) applyConfig(ctx context.Context, next *config.Config, hooks reloadHooks, ownsGraph bool) error {
	if hooks.prepare != nil {
		hooks.prepare(next)
	}
	if err := h.cfg.Update(next); err != nil {
		h.logger.Warn("Reloaded configuration rejected", "error", err)
		return err
	}
	if hooks.commit != nil {
		hooks.commit(next)
	}
	if !ownsGraph {
		return nil
	}
	return h.manager.Reconfigure(ctx, next.Graph)
}

// followStore reconfigures on every stored revision of key newer than
// applied. A broken watch is re-established until ctx is done; each watch
// starts from the current value, so nothing stored in between is missed.
func (h *host) followStore(ctx context.Context, store *flowstore.Store, key string, applied uint64,
	core *metric.Metrics) error {
	apply := func(change flowstore.Change) {
		if change.Revision <= applied {
			return
		}
		applied = change.Revision
		if change.Deleted {
			h.logger.Warn("Stored graph deleted, keeping active graph", "name", change.Name)
			return
		}
		err := h.manager.Reconfigure(ctx, change.Spec)
		core.RecordGraphUpdate(err == nil)
		if err == nil {
			h.logger.Info("Applied stored graph", "name", change.Name, "revision", change.Revision)
		}
	}

	for {
		err := store.Watch(ctx, key, apply)
		if err == nil || ctx.Err() != nil {
			return nil
		}
		if !errors.IsTransient(err) {
			return err
		}
		h.logger.Warn("Graph watch interrupted, retrying", "name", key, "error", err)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(storeRetryWait):
		}
	}
}
