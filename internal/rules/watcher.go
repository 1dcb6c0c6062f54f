package rules

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/wonny/trendscore/pkg/logger"
)

// Watcher clears the provider cache whenever the rules file changes
type Watcher struct {
	provider *Provider
	watcher  *fsnotify.Watcher
	logger   *logger.Logger
	onReset  func()
}

// NewWatcher watches the directory of the provider's rules file.
// Editors replace files on save, so the parent directory is watched, not the file.
func NewWatcher(provider *Provider, log *logger.Logger) (*Watcher, error) {
	if provider.Path() == "" {
		return nil, fmt.Errorf("provider has no rules file to watch")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	dir := filepath.Dir(provider.Path())
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	if log == nil {
		log = logger.Nop()
	}

	return &Watcher{
		provider: provider,
		watcher:  fw,
		logger:   log,
	}, nil
}

// OnReset registers a callback invoked after each cache reset
func (w *Watcher) OnReset(fn func()) { w.onReset = fn }

// Run processes file events until ctx is cancelled
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	target := filepath.Clean(w.provider.Path())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
				!ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}

			w.logger.WithFields(map[string]interface{}{
				"path":  ev.Name,
				"event": ev.Op.String(),
			}).Info("Analyzer rules file changed")
			w.provider.Reset()
			if w.onReset != nil {
				w.onReset()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("Rules watcher error")
		}
	}
}
