package webhook

import (
	"context"

	"github.com/adfinis-sygroup/matterhub/internal/dispatch"
)

// Receiver runs an inbound message through the message handlers.
type Receiver interface {
	ReceiveWithID(ctx context.Context, id, channel string, payload dispatch.Payload) dispatch.Result
}

// HookSource resolves generic hooks registered by plugins.
type HookSource interface {
	Hook(method, path string) (dispatch.GenericHook, bool)
	Len() int
}

// Config holds inbound server configuration.
type Config struct {
	Listen      string
	MaxBodySize int64
}

// AcceptedResponse is the JSON response for an accepted message.
type AcceptedResponse struct {
	DispatchID string `json:"dispatch_id"`
}

// HealthResponse is the JSON response of /healthz.
type HealthResponse struct {
	Status   string `json:"status"`
	Handlers int    `json:"handlers"`
	Uptime   string `json:"uptime"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Default values
const (
	DefaultListen      = "127.0.0.1:8065"
	DefaultMaxBodySize = 1048576 // 1 MB
)
