package dispatch

import (
	"context"
	"net/http"
	"strings"
	"sync"
)

// Payload is the inbound message as produced by the transport. The core
// never inspects it.
type Payload any

// MessageHandler is invoked for every inbound message on every channel.
// reply may be retained and used after the handler returns.
type MessageHandler func(ctx context.Context, payload Payload, reply Reply) error

// GenericHook serves non-message integrations addressed by (method, path).
type GenericHook = http.Handler

type hookKey struct {
	method string
	path   string
}

// Registry stores message handlers in registration order and generic hooks
// by (method, path). Handlers are never removed.
type Registry struct {
	mu       sync.RWMutex
	handlers []MessageHandler
	hooks    map[hookKey]GenericHook
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		hooks: make(map[hookKey]GenericHook),
	}
}

// RegisterMessageHandler appends h to the handler list.
func (r *Registry) RegisterMessageHandler(h MessageHandler) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.handlers = append(r.handlers, h)
	r.mu.Unlock()
}

// RegisterGenericHook stores h at (method, path), replacing any previous hook
// at that key. method is matched case-insensitively.
func (r *Registry) RegisterGenericHook(method, path string, h GenericHook) {
	if h == nil {
		return
	}
	r.mu.Lock()
	r.hooks[newHookKey(method, path)] = h
	r.mu.Unlock()
}

// Handlers returns a snapshot of the registered handlers in order.
func (r *Registry) Handlers() []MessageHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MessageHandler, len(r.handlers))
	copy(out, r.handlers)
	return out
}

// Len returns the number of registered message handlers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// Hook returns the generic hook registered at (method, path).
func (r *Registry) Hook(method, path string) (GenericHook, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.hooks[newHookKey(method, path)]
	return h, ok
}

// HookCount returns the number of occupied (method, path) keys.
func (r *Registry) HookCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hooks)
}

func newHookKey(method, path string) hookKey {
	return hookKey{method: strings.ToUpper(method), path: path}
}
