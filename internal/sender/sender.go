// Package sender posts replies to a channel's outgoing webhook.
//
// A send resolves the channel's "outgoing" URL and "username" from the
// channel configuration, builds the envelope {"text", "username"} and POSTs it
// as JSON. The response status and body are discarded: there is no retry and a
// non-2xx answer is only logged. Transport failures surface as *DeliveryError;
// missing configuration surfaces as *config.LookupError.
package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/adfinis-sygroup/matterhub/internal/config"
	"github.com/adfinis-sygroup/matterhub/internal/events"
	"github.com/adfinis-sygroup/matterhub/internal/log"
)

const (
	// Channel configuration keys read by Send.
	KeyOutgoing = "outgoing"
	KeyUsername = "username"

	// maxDrainBytes caps how much of a webhook response is read before closing.
	maxDrainBytes = 64 * 1024

	DefaultTimeout = 30 * time.Second
)

// ChannelConfig resolves per-channel settings. Implementations return a
// *config.LookupError when the channel or key is absent.
type ChannelConfig interface {
	ChannelConfig(channel, key string) (string, error)
}

// Envelope is the JSON body posted to an outgoing webhook.
type Envelope struct {
	Text     string `json:"text"`
	Username string `json:"username"`
}

// DeliveryError reports a transport-level failure posting to a webhook.
type DeliveryError struct {
	Channel string
	URL     string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to channel %q: %v", e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Sender performs fire-and-forget webhook posts.
type Sender struct {
	channels ChannelConfig
	client   *http.Client
	events   events.Publisher
	logger   *slog.Logger
}

// New creates a Sender. A nil client gets one with DefaultTimeout; a nil
// publisher discards events.
func New(channels ChannelConfig, client *http.Client, pub events.Publisher) *Sender {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	if pub == nil {
		pub = events.Discard
	}
	return &Sender{
		channels: channels,
		client:   client,
		events:   pub,
		logger:   log.WithComponent("sender"),
	}
}

// Send posts text to channel's outgoing webhook and waits for the POST to
// complete.
func (s *Sender) Send(ctx context.Context, channel, text string) error {
	url, err := s.lookup(channel, KeyOutgoing)
	if err != nil {
		return err
	}
	username, err := s.lookup(channel, KeyUsername)
	if err != nil {
		return err
	}

	body, err := encodeEnvelope(Envelope{Text: text, Username: username})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{Channel: channel, URL: url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return &DeliveryError{Channel: channel, URL: url, Err: err}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
	_ = resp.Body.Close()

	logger := s.logger.With("channel", channel, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn("webhook answered with non-2xx status")
	} else {
		logger.Debug("message sent")
	}
	s.events.Publish(events.MessageSent, map[string]any{
		"channel": channel,
		"status":  resp.StatusCode,
	})
	return nil
}

func (s *Sender) lookup(channel, key string) (string, error) {
	v, err := s.channels.ChannelConfig(channel, key)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", &config.LookupError{Channel: channel, Key: key}
	}
	return v, nil
}

// encodeEnvelope marshals without HTML escaping so text reaches the chat
// server byte for byte.
func encodeEnvelope(env Envelope) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(env); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
