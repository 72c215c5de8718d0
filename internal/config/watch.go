package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/adfinis-sygroup/matterhub/internal/events"
	"github.com/adfinis-sygroup/matterhub/internal/log"
)

const reloadDebounce = 500 * time.Millisecond

// Watch reloads the channel table whenever the config file changes, until
// ctx is cancelled. The directory is watched rather than the file so that
// editors which replace the file on save are still picked up.
//
// A reload is verified like Load: while a .checksums manifest sits next to
// the file, an edit is rejected and the previous channels stay in effect
// until `matterhub config lock` is run again. Writing the new manifest
// counts as a change, so the lock itself triggers the reload.
func (p *FileProvider) Watch(ctx context.Context, pub events.Publisher) error {
	if p.path == "" {
		return fmt.Errorf("provider has no backing file")
	}
	if pub == nil {
		pub = events.Discard
	}
	logger := log.WithComponent("config")

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(p.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(p.path), err)
	}

	var timer *time.Timer
	reload := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !p.watches(ev.Name) || ev.Op&fsnotify.Chmod == fsnotify.Chmod {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case <-reload:
			if err := p.Reload(); err != nil {
				logger.Error("config reload rejected, keeping previous channels", "path", p.path, "error", err,
					"hint", "run `matterhub config lock` after editing a locked config")
				continue
			}
			logger.Info("channel config reloaded", "path", p.path, "channels", len(p.Channels()))
			pub.Publish(events.ConfigReloaded, map[string]any{"path": p.path})
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", "error", err)
		}
	}
}

// watches reports whether a change to name affects the config.
func (p *FileProvider) watches(name string) bool {
	name = filepath.Clean(name)
	return name == p.path || name == filepath.Join(filepath.Dir(p.path), checksumsFilename)
}
