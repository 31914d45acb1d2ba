package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/c360/wirestreams/errors"
)

// DefaultDebounce is how long a watcher waits for writes to settle.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads the configuration when one of the loader's files changes.
type Watcher struct {
	loader   *Loader
	files    map[string]bool
	debounce time.Duration
	logger   *slog.Logger

	mu sync.Mutex // serializes reloads
}

// NewWatcher creates a watcher for every layer of loader.
func NewWatcher(loader *Loader, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if loader == nil || len(loader.layers) == 0 {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Watcher", "New", "loader has no file layers")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	files := make(map[string]bool, len(loader.layers))
	for _, path := range loader.layers {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, errors.WrapInvalid(err, "Watcher", "New", "resolve "+path)
		}
		files[abs] = true
	}
	return &Watcher{loader: loader, files: files, debounce: debounce, logger: logger.With("component", "config-watcher")}, nil
}

// Run watches until ctx is done. After each settled change the
// configuration is reloaded and, if it loads and validates, passed to
// onChange. A failed reload is logged and the previous configuration stays.
func (w *Watcher) Run(ctx context.Context, onChange func(*Config)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WrapTransient(err, "Watcher", "Run", "create fsnotify watcher")
	}
	defer fsw.Close()

	// Watch directories: editors replace files by rename, which drops a
	// watch on the file itself.
	dirs := make(map[string]bool)
	for file := range w.files {
		dirs[filepath.Dir(file)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			return errors.WrapTransient(err, "Watcher", "Run", "watch "+dir)
		}
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !w.files[abs] {
				continue
			}

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() { w.reload(ctx, onChange) })

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Config watch error", "error", err)
		}
	}
}

func (w *Watcher) reload(ctx context.Context, onChange func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	cfg, err := w.loader.Load()
	if err != nil {
		w.logger.Warn("Config reload failed, keeping previous configuration", "error", err)
		return
	}
	w.logger.Info("Config reloaded", "layers", w.loader.Layers())
	onChange(cfg)
}
