// Package webhook implements the inbound HTTP side of the hub.
//
// Chat servers deliver messages as outgoing webhooks. Each channel posts to
// its own path and the server hands the decoded body to the dispatcher:
//
//	POST /hooks/{channel}
//
// Bodies are accepted as JSON or as form posts; a form is converted into a
// flat JSON object so plugins always see JSON. The dispatch runs in the
// background and the request is answered right away with
// 202 Accepted and the dispatch_id that appears in the logs.
//
// Every other method and path is offered to the generic hooks plugins have
// registered, matched exactly on (method, path). Unknown routes get 404.
//
// # Other endpoints
//
//   - GET /healthz: liveness and the number of registered handlers
//   - GET /events: server-sent events of the lifecycle event hub
//
// # Error Responses
//
//   - 400 Bad Request: body cannot be decoded
//   - 404 Not Found: no route and no generic hook
//   - 413 Payload Too Large: body exceeds server.max_body_size
//
// Inbound requests are not authenticated; run the server on a trusted
// network or behind a proxy that does.
package webhook
