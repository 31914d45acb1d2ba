// Package main implements the wirestreams host: it loads the layered
// configuration, activates the wire graph it describes and keeps the graph
// current as configuration files or the NATS graph store change.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/c360/wirestreams/config"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "wirestreams"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	cli, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if err := validateFlags(cli); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	if cli.ShowVersion {
		_, _ = fmt.Fprintf(stdout, "%s version %s\n", appName, Version)
		return nil
	}

	loader := config.NewLoader()
	for _, path := range cli.ConfigPaths {
		loader.AddLayer(path)
	}
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlagOverrides(cfg, cli)

	levelVar := new(slog.LevelVar)
	level, _ := parseLevel(cfg.Log.Level)
	levelVar.Set(level)
	logger := setupLogger(stdout, levelVar, cfg.Log.Format)
	slog.SetDefault(logger)

	logger.Info("Starting wirestreams",
		"version", Version,
		"build_time", BuildTime,
		"config_layers", cli.ConfigPaths)

	h, err := newHost(cfg, logger)
	if err != nil {
		return err
	}

	if cli.Validate {
		return h.validate(context.Background())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var watcher *config.Watcher
	if cli.Watch {
		watcher, err = config.NewWatcher(loader, config.DefaultDebounce, logger)
		if err != nil {
			return err
		}
	}
	return h.serve(ctx, watcher, reloadHooks{
		prepare: func(c *config.Config) { applyFlagOverrides(c, cli) },
		commit: func(c *config.Config) {
			if lvl, ok := parseLevel(c.Log.Level); ok {
				levelVar.Set(lvl)
			}
		},
	}, cli.ShutdownTimeout)
}

// applyFlagOverrides gives explicit log flags precedence over every layer.
func applyFlagOverrides(cfg *config.Config, cli *CLIConfig) {
	if cli.LogLevel != "" {
		cfg.Log.Level = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.Log.Format = cli.LogFormat
	}
}
