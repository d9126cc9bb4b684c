package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/t3track/t3agent/internal/logging"
)

// Watcher reloads the config file whenever it changes on disk and hands
// every valid result to the callback. Invalid edits are logged and skipped.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	logger   logging.Logger
	onChange func(*Config)
}

// NewWatcher watches the directory holding path, since editors usually
// replace files instead of writing them in place.
func NewWatcher(path string, logger logging.Logger, onChange func(*Config)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve config path")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create config watcher")
	}

	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", filepath.Dir(abs))
	}

	if logger == nil {
		logger = logging.Nop()
	}

	return &Watcher{path: abs, watcher: fw, logger: logger, onChange: onChange}, nil
}

// Run processes file events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("ignoring config change", "path", w.path, "error", err)
		return
	}
	w.logger.Info("config reloaded", "path", w.path)
	w.onChange(cfg)
}
