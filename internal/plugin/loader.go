package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/adfinis-sygroup/matterhub/internal/config"
	"github.com/adfinis-sygroup/matterhub/internal/dispatch"
	"github.com/adfinis-sygroup/matterhub/internal/events"
	"github.com/adfinis-sygroup/matterhub/internal/log"
	"github.com/adfinis-sygroup/matterhub/internal/state"
)

// ResolutionError reports a plugin name that is not in the catalog.
type ResolutionError struct {
	Name string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("plugin %q is not registered", e.Name)
}

// InitError reports a failed Init or AsyncInit.
type InitError struct {
	Name     string
	Async    bool
	Panicked bool
	Err      error
}

func (e *InitError) Error() string {
	kind := "init"
	if e.Async {
		kind = "async init"
	}
	if e.Panicked {
		return fmt.Sprintf("plugin %q %s panicked: %v", e.Name, kind, e.Err)
	}
	return fmt.Sprintf("plugin %q %s: %v", e.Name, kind, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// Summary counts the outcome of LoadAll. Async counts plugins whose init was
// started in the background; their outcome is only logged.
type Summary struct {
	Loaded int
	Failed int
	Async  int
}

// Loader initializes configured plugins against a handler registry.
type Loader struct {
	catalog  *Catalog
	registry *dispatch.Registry
	store    *state.Store
	events   events.Publisher
	logger   *slog.Logger

	wg sync.WaitGroup
}

// NewLoader creates a Loader. A nil catalog selects the default catalog, a
// nil store disables plugin state and a nil publisher discards events.
func NewLoader(cat *Catalog, reg *dispatch.Registry, store *state.Store, pub events.Publisher) *Loader {
	if cat == nil {
		cat = defaultCatalog
	}
	if pub == nil {
		pub = events.Discard
	}
	return &Loader{
		catalog:  cat,
		registry: reg,
		store:    store,
		events:   pub,
		logger:   log.WithComponent("loader"),
	}
}

// LoadAll loads the plugin entries in order. A failing plugin is logged and skipped;
// loading never stops early.
func (l *Loader) LoadAll(ctx context.Context, entries []config.PluginEntry) Summary {
	var sum Summary
	for _, entry := range entries {
		async, err := l.load(ctx, entry.Name, entry.Config)
		switch {
		case err != nil:
			sum.Failed++
		case async:
			sum.Async++
		default:
			sum.Loaded++
		}
	}
	l.logger.Info("plugins loaded",
		"loaded", sum.Loaded,
		"failed", sum.Failed,
		"async", sum.Async,
		"handlers", l.registry.Len(),
	)
	return sum
}

// LoadOne resolves name and runs its initialization. For AsyncInit modules
// it returns as soon as the background goroutine has been started.
func (l *Loader) LoadOne(ctx context.Context, name string, cfg Config) error {
	_, err := l.load(ctx, name, cfg)
	return err
}

// Wait blocks until every background initialization has finished.
func (l *Loader) Wait() {
	l.wg.Wait()
}

func (l *Loader) load(ctx context.Context, name string, cfg Config) (async bool, err error) {
	logger := l.logger.With("plugin", name)
	logger.Info("Initializing module " + name)
	l.events.Publish(events.PluginInitializing, map[string]any{"plugin": name})

	mod, ok := l.catalog.Get(name)
	if !ok {
		err := &ResolutionError{Name: name}
		l.fail(logger, name, err)
		return false, err
	}
	if cfg == nil {
		cfg = Config{}
	}

	h := newHost(name, l.registry, l.store)

	switch {
	case mod.Init != nil:
		if err := l.runInit(name, func() error { return mod.Init(h, cfg) }, false); err != nil {
			l.fail(logger, name, err)
			return false, err
		}
	case mod.AsyncInit != nil:
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			if err := l.runInit(name, func() error { return mod.AsyncInit(ctx, h, cfg) }, true); err != nil {
				l.fail(logger, name, err)
				return
			}
			l.loaded(logger, name, true)
		}()
		return true, nil
	default:
		logger.Debug("plugin has no init function")
	}

	l.loaded(logger, name, false)
	return false, nil
}

// runInit calls fn, turning an error or a panic into an *InitError.
func (l *Loader) runInit(name string, fn func() error, async bool) (ierr *InitError) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Debug("plugin init panic stack", "plugin", name, "stack", string(debug.Stack()))
			perr, ok := r.(error)
			if !ok {
				perr = fmt.Errorf("%v", r)
			}
			ierr = &InitError{Name: name, Async: async, Panicked: true, Err: perr}
		}
	}()
	if err := fn(); err != nil {
		return &InitError{Name: name, Async: async, Err: err}
	}
	return nil
}

func (l *Loader) loaded(logger *slog.Logger, name string, async bool) {
	logger.Info("plugin loaded", "async", async)
	l.events.Publish(events.PluginLoaded, map[string]any{"plugin": name, "async": async})
}

func (l *Loader) fail(logger *slog.Logger, name string, err error) {
	logger.Error("failed to load plugin",
		"error_type", fmt.Sprintf("%T", err),
		"error", err.Error(),
	)
	l.events.Publish(events.PluginFailed, map[string]any{"plugin": name, "error": err.Error()})
}
