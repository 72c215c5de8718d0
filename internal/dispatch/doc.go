// Package dispatch holds the handler registry and fans inbound chat messages
// out to every registered message handler.
//
// The Registry is an append-only, insertion-ordered list of MessageHandlers
// plus a map of GenericHooks keyed by (HTTP method, path). Plugins populate it
// during initialization, possibly from background goroutines, so all access is
// guarded by a mutex.
//
// Receive invokes the handlers of a registry snapshot strictly in
// registration order on the caller's goroutine, one at a time. Each handler
// gets the payload and a Reply bound to the inbound channel.
//
// Error handling:
//   - A handler returning an error or panicking is logged as a *HandlerError
//     and skipped; the remaining handlers still run.
//   - Receive never returns an error and the failing handler stays registered.
//
// Concurrency:
//   - Concurrent Receive calls are independent and unordered relative to
//     each other.
//   - A handler registered while Receive is iterating is not seen by that
//     call; every later call sees it.
//   - Nothing in this package cancels a handler. A handler blocked on I/O or
//     spinning on CPU stalls the rest of its own Receive call indefinitely.
//     Goroutines are preempted, so other dispatches keep running, but the
//     stalled call never completes. Handlers must respect ctx and bound their
//     own work.
package dispatch
