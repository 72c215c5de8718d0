package plugin

import (
	"context"
	"log/slog"

	"github.com/adfinis-sygroup/matterhub/internal/config"
	"github.com/adfinis-sygroup/matterhub/internal/dispatch"
	"github.com/adfinis-sygroup/matterhub/internal/log"
	"github.com/adfinis-sygroup/matterhub/internal/state"
	"github.com/adfinis-sygroup/matterhub/internal/webhook"
)

// Config is the opaque configuration blob of one plugin entry.
type Config = config.PluginConfig

// Module is what a plugin package registers. At most one of Init and
// AsyncInit is expected to be set; a module with neither loads and does
// nothing.
type Module struct {
	// Init runs on the loader's goroutine before the next plugin is loaded.
	Init func(h Host, cfg Config) error
	// AsyncInit runs on its own goroutine; loading continues immediately.
	AsyncInit func(ctx context.Context, h Host, cfg Config) error
}

// Host is the handle a plugin receives during initialization.
type Host interface {
	// RegisterMessageHandler appends h to the handlers run for every
	// inbound message.
	RegisterMessageHandler(h dispatch.MessageHandler)
	// Register is the older name of RegisterMessageHandler.
	//
	// Deprecated: use RegisterMessageHandler.
	Register(h dispatch.MessageHandler)
	// RegisterGenericHook serves h at (method, path), replacing any hook
	// previously registered there. The hub's own routes (POST /hooks/{channel},
	// GET /healthz, GET /events) take precedence; a hook on one of them is
	// kept but never reached, and a warning is logged.
	RegisterGenericHook(method, path string, h dispatch.GenericHook)
	// State returns the plugin's persisted state, or nil when the hub runs
	// without a state database.
	State() *state.PluginState
	// Logger returns a logger tagged with the plugin name.
	Logger() *slog.Logger
}

type host struct {
	name     string
	registry *dispatch.Registry
	state    *state.PluginState
	logger   *slog.Logger
}

func newHost(name string, reg *dispatch.Registry, store *state.Store) *host {
	h := &host{
		name:     name,
		registry: reg,
		logger:   log.WithPlugin(name),
	}
	if store != nil {
		h.state = store.For(name)
	}
	return h
}

func (h *host) RegisterMessageHandler(fn dispatch.MessageHandler) {
	h.registry.RegisterMessageHandler(fn)
	h.logger.Debug("registered message handler")
}

func (h *host) Register(fn dispatch.MessageHandler) {
	h.logger.Warn("Register is deprecated, use RegisterMessageHandler")
	h.RegisterMessageHandler(fn)
}

func (h *host) RegisterGenericHook(method, path string, hook dispatch.GenericHook) {
	h.registry.RegisterGenericHook(method, path, hook)
	if webhook.Reserved(method, path) {
		h.logger.Warn("generic hook shadowed by a built-in route and will not be served", "method", method, "path", path)
		return
	}
	h.logger.Debug("registered generic hook", "method", method, "path", path)
}

func (h *host) State() *state.PluginState { return h.state }

func (h *host) Logger() *slog.Logger { return h.logger }
