// Package echo replies to every message with its text repeated twice.
//
// Configuration:
//
//	plugins:
//	  - name: echo
//	    config:
//	      ignore_users: [matterhub]  # never answer these authors
package echo

import (
	"context"
	"slices"

	"github.com/adfinis-sygroup/matterhub/internal/dispatch"
	"github.com/adfinis-sygroup/matterhub/internal/message"
	"github.com/adfinis-sygroup/matterhub/internal/plugin"
)

// Name is the name the plugin is registered under.
const Name = "echo"

func init() {
	plugin.Register(Name, plugin.Module{Init: Init})
}

// Init registers the echo handler.
func Init(h plugin.Host, cfg plugin.Config) error {
	ignore := plugin.Strings(cfg, "ignore_users")
	h.RegisterMessageHandler(func(ctx context.Context, p dispatch.Payload, reply dispatch.Reply) error {
		text := message.Text(p)
		if text == "" {
			return nil
		}
		if slices.Contains(ignore, message.UserName(p)) {
			return nil
		}
		return reply.Send(ctx, text+text)
	})
	return nil
}
