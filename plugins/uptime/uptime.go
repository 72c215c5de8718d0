// Package uptime answers a command message with how long the hub has been
// running, and serves the same information at GET /uptime.
//
// The plugin initializes asynchronously because it first reads and updates
// its start counter in the state database.
package uptime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/adfinis-sygroup/matterhub/internal/dispatch"
	"github.com/adfinis-sygroup/matterhub/internal/message"
	"github.com/adfinis-sygroup/matterhub/internal/plugin"
)

// Name is the name the plugin is registered under.
const Name = "uptime"

const (
	defaultPrefix = "!uptime"
	defaultPath   = "/uptime"
)

func init() {
	plugin.Register(Name, plugin.Module{AsyncInit: AsyncInit})
}

type pluginState struct {
	Starts    int    `json:"starts"`
	LastStart string `json:"last_start,omitempty"`
}

// Status is the JSON body served by the HTTP hook.
type Status struct {
	Started string `json:"started"`
	Uptime  string `json:"uptime"`
	Starts  int    `json:"starts"`
}

type tracker struct {
	started time.Time
	starts  int
	now     func() time.Time
}

func (t *tracker) status() Status {
	return Status{
		Started: t.started.UTC().Format(time.RFC3339),
		Uptime:  t.uptime(),
		Starts:  t.starts,
	}
}

func (t *tracker) uptime() string {
	return strings.TrimSpace(humanize.RelTime(t.started, t.now(), "", ""))
}

// AsyncInit bumps the start counter, then registers the command handler
// and the HTTP hook.
func AsyncInit(ctx context.Context, h plugin.Host, cfg plugin.Config) error {
	t := &tracker{started: time.Now(), now: time.Now}

	if st := h.State(); st != nil {
		var prev pluginState
		if err := st.Decode(ctx, &prev); err != nil {
			return fmt.Errorf("read state: %w", err)
		}
		t.starts = prev.Starts + 1
		if _, err := st.Merge(ctx, pluginState{Starts: t.starts, LastStart: t.started.UTC().Format(time.RFC3339)}); err != nil {
			return fmt.Errorf("write state: %w", err)
		}
	} else {
		t.starts = 1
	}

	prefix := plugin.String(cfg, "prefix", defaultPrefix)
	h.RegisterMessageHandler(t.handler(prefix))
	h.RegisterGenericHook(http.MethodGet, plugin.String(cfg, "path", defaultPath), t)

	h.Logger().Info("uptime ready", "prefix", prefix, "starts", t.starts)
	return nil
}

func (t *tracker) handler(prefix string) dispatch.MessageHandler {
	return func(ctx context.Context, p dispatch.Payload, reply dispatch.Reply) error {
		if !strings.HasPrefix(strings.TrimSpace(message.Text(p)), prefix) {
			return nil
		}
		return reply.Send(ctx, fmt.Sprintf("up for %s (start #%d)", t.uptime(), t.starts))
	}
}

func (t *tracker) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(t.status())
}
