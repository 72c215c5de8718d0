package dispatch

import "context"

//go:generate mockgen -destination=mocks/mock_sender.go -package=mocks github.com/adfinis-sygroup/matterhub/internal/dispatch Sender

// Sender delivers text to a channel's outgoing webhook.
type Sender interface {
	Send(ctx context.Context, channel, text string) error
}

// Reply sends text back to the channel a message arrived on.
type Reply struct {
	channel string
	sender  Sender
}

// NewReply binds sender to channel.
func NewReply(channel string, sender Sender) Reply {
	return Reply{channel: channel, sender: sender}
}

// Channel returns the channel this reply is bound to.
func (r Reply) Channel() string { return r.channel }

// Send posts text to the bound channel.
func (r Reply) Send(ctx context.Context, text string) error {
	return r.sender.Send(ctx, r.channel, text)
}
