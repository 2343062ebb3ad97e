package reldoc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports rel documents that are created or rewritten in a
// directory. Events for the same file are debounced.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	dir       string
	debounce  time.Duration
	logger    *slog.Logger
}

// WatchConfig holds watcher configuration options.
type WatchConfig struct {
	Dir      string
	Debounce time.Duration
	Logger   *slog.Logger
}

// NewWatcher creates a watcher for cfg.Dir. Call Run to start it.
func NewWatcher(cfg WatchConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if err := fsw.Add(cfg.Dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching directory %s: %w", cfg.Dir, err)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 100 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Watcher{
		fsWatcher: fsw,
		dir:       cfg.Dir,
		debounce:  cfg.Debounce,
		logger:    cfg.Logger,
	}, nil
}

// Run delivers a Descriptor to onChange for every created or written rel
// document until ctx is done. It closes the underlying watcher on return.
func (w *Watcher) Run(ctx context.Context, onChange func(Descriptor)) error {
	defer w.fsWatcher.Close()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			if !IsRelDoc(event.Name) || !(event.Has(fsnotify.Create) || event.Has(fsnotify.Write)) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("rel watcher error", "dir", w.dir, "error", err)

		case <-timer.C:
			for file := range pending {
				d, err := LoadFile(file)
				if err != nil {
					w.logger.Warn("skipping rel document", "file", file, "error", err)
					continue
				}
				onChange(d)
			}
			clear(pending)
		}
	}
}
