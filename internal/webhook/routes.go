package webhook

import (
	"net/http"
	"strings"
)

// Paths served by the hub itself.
const (
	MessagePathPrefix = "/hooks/"
	HealthPath        = "/healthz"
	EventsPath        = "/events"
)

// Reserved reports whether (method, path) is answered by one of the hub's
// own routes. Generic hooks registered there are never reached.
func Reserved(method, path string) bool {
	switch strings.ToUpper(method) {
	case http.MethodPost:
		channel, ok := strings.CutPrefix(path, MessagePathPrefix)
		return ok && channel != "" && !strings.Contains(channel, "/")
	case http.MethodGet:
		return path == HealthPath || path == EventsPath
	}
	return false
}
