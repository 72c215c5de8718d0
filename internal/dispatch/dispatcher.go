package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/adfinis-sygroup/matterhub/internal/events"
	"github.com/adfinis-sygroup/matterhub/internal/log"
)

// HandlerError records a message handler that failed during a dispatch.
type HandlerError struct {
	Index   int // position in registration order
	Channel string
	Err     error
	// Panicked is set when the handler panicked instead of returning Err.
	Panicked bool
}

func (e *HandlerError) Error() string {
	if e.Panicked {
		return fmt.Sprintf("handler %d on channel %q panicked: %v", e.Index, e.Channel, e.Err)
	}
	return fmt.Sprintf("handler %d on channel %q: %v", e.Index, e.Channel, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// Result summarizes one Receive call.
type Result struct {
	DispatchID string
	Handlers   int // handlers invoked
	Failed     int // handlers that returned an error or panicked
}

// Dispatcher fans inbound messages out to the registry's handlers.
type Dispatcher struct {
	registry *Registry
	sender   Sender
	events   events.Publisher
	logger   *slog.Logger
}

// New creates a Dispatcher. A nil publisher discards events.
func New(reg *Registry, sender Sender, pub events.Publisher) *Dispatcher {
	if pub == nil {
		pub = events.Discard
	}
	return &Dispatcher{
		registry: reg,
		sender:   sender,
		events:   pub,
		logger:   log.WithComponent("dispatch"),
	}
}

// Registry returns the registry this dispatcher reads from.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// NewDispatchID returns an identifier for a Receive call.
func NewDispatchID() string { return uuid.NewString() }

// Receive delivers payload from channel to every registered handler under a
// fresh dispatch ID. It returns once every handler has been given a chance
// to run; handler failures are logged, never returned.
func (d *Dispatcher) Receive(ctx context.Context, channel string, payload Payload) Result {
	return d.ReceiveWithID(ctx, NewDispatchID(), channel, payload)
}

// ReceiveWithID is Receive with a caller-chosen dispatch ID, for transports
// that hand the ID out before the dispatch runs.
func (d *Dispatcher) ReceiveWithID(ctx context.Context, id, channel string, payload Payload) Result {
	logger := log.WithDispatch(id).With("component", "dispatch", "channel", channel)
	reply := NewReply(channel, d.sender)
	handlers := d.registry.Handlers()

	res := Result{DispatchID: id}
	start := time.Now()
	logger.Debug("dispatch started", "handlers", len(handlers))
	d.events.Publish(events.DispatchStarted, map[string]any{
		"dispatch_id": id,
		"channel":     channel,
		"handlers":    len(handlers),
	})

	for i, h := range handlers {
		res.Handlers++
		if err := d.invoke(ctx, i, channel, h, payload, reply); err != nil {
			res.Failed++
			logger.Error("error while handling message",
				"handler", i,
				"error_type", errorType(err),
				"error", err.Err.Error(),
			)
			d.events.Publish(events.HandlerFailed, map[string]any{
				"dispatch_id": id,
				"channel":     channel,
				"handler":     i,
				"error":       err.Err.Error(),
			})
		}
	}

	logger.Debug("dispatch completed",
		"handlers", res.Handlers,
		"failed", res.Failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	d.events.Publish(events.DispatchCompleted, map[string]any{
		"dispatch_id": id,
		"channel":     channel,
		"handlers":    res.Handlers,
		"failed":      res.Failed,
	})
	return res
}

// invoke runs one handler, converting a returned error or a panic into a
// *HandlerError.
func (d *Dispatcher) invoke(ctx context.Context, index int, channel string, h MessageHandler, payload Payload, reply Reply) (herr *HandlerError) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Debug("handler panic stack", "handler", index, "stack", string(debug.Stack()))
			herr = &HandlerError{Index: index, Channel: channel, Err: panicError(r), Panicked: true}
		}
	}()

	if err := h(ctx, payload, reply); err != nil {
		return &HandlerError{Index: index, Channel: channel, Err: err}
	}
	return nil
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}

func errorType(e *HandlerError) string {
	if e.Panicked {
		return fmt.Sprintf("panic(%T)", e.Err)
	}
	return fmt.Sprintf("%T", e.Err)
}
