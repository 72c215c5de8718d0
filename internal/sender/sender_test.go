package sender

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfinis-sygroup/matterhub/internal/config"
	"github.com/adfinis-sygroup/matterhub/internal/events"
	"github.com/adfinis-sygroup/matterhub/internal/log"
)

func TestMain(m *testing.M) {
	log.Setup("ERROR")
	os.Exit(m.Run())
}

type capturedRequest struct {
	Method      string
	Path        string
	ContentType string
	Body        []byte
}

// newWebhook starts a test server that records every request and answers
// with status.
func newWebhook(t *testing.T, status int) (*httptest.Server, func() []capturedRequest) {
	t.Helper()
	var mu sync.Mutex
	var got []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		got = append(got, capturedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			ContentType: r.Header.Get("Content-Type"),
			Body:        body,
		})
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"ignored":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), got...)
	}
}

func providerFor(channels map[string]config.ChannelConfig) *config.FileProvider {
	cfg := config.Defaults()
	cfg.Channels = channels
	return config.NewProvider(cfg)
}

func TestSendPostsEnvelope(t *testing.T) {
	srv, requests := newWebhook(t, http.StatusOK)
	p := providerFor(map[string]config.ChannelConfig{
		"general": {"outgoing": srv.URL + "/hooks/general", "username": "matterhub"},
	})

	texts := []string{
		"hello",
		"",
		"line1\nline2\ttab \"quoted\" back\\slash \x00 \x1f",
		"<b>&amp;</b> ünïcödé 🚀",
	}
	s := New(p, srv.Client(), nil)
	for _, text := range texts {
		require.NoError(t, s.Send(context.Background(), "general", text))
	}

	got := requests()
	require.Len(t, got, len(texts))
	for i, req := range got {
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/hooks/general", req.Path)
		assert.Equal(t, "application/json", req.ContentType)

		var env map[string]any
		require.NoError(t, json.Unmarshal(req.Body, &env), "body must be valid JSON: %q", req.Body)
		assert.Equal(t, map[string]any{"text": texts[i], "username": "matterhub"}, env)
	}
}

func TestSendIgnoresNon2xx(t *testing.T) {
	srv, requests := newWebhook(t, http.StatusInternalServerError)
	p := providerFor(map[string]config.ChannelConfig{
		"general": {"outgoing": srv.URL, "username": "bot"},
	})
	hub := events.NewHub(4)

	err := New(p, srv.Client(), hub).Send(context.Background(), "general", "x")
	assert.NoError(t, err)
	assert.Len(t, requests(), 1, "no retry on failure")

	snap := hub.SnapshotSince(0)
	require.Len(t, snap, 1)
	assert.Equal(t, events.MessageSent, snap[0].Type)
	assert.JSONEq(t, `{"channel":"general","status":500}`, string(snap[0].Data))
}

func TestSendMissingChannelConfig(t *testing.T) {
	srv, requests := newWebhook(t, http.StatusOK)
	p := providerFor(map[string]config.ChannelConfig{
		"nouser": {"outgoing": srv.URL},
	})
	s := New(p, srv.Client(), nil)

	tests := []struct {
		channel string
		key     string
	}{
		{"unknown", KeyOutgoing},
		{"nouser", KeyUsername},
	}
	for _, tt := range tests {
		err := s.Send(context.Background(), tt.channel, "x")
		var lookupErr *config.LookupError
		require.True(t, errors.As(err, &lookupErr), "expected LookupError, got %v", err)
		assert.Equal(t, tt.channel, lookupErr.Channel)
		assert.Equal(t, tt.key, lookupErr.Key)
	}
	assert.Empty(t, requests())
}

type staticChannels map[string]string

func (s staticChannels) ChannelConfig(channel, key string) (string, error) {
	return s[key], nil
}

func TestSendTreatsEmptyValueAsMissing(t *testing.T) {
	s := New(staticChannels{"outgoing": "http://127.0.0.1:1", "username": ""}, nil, nil)
	err := s.Send(context.Background(), "general", "x")

	var lookupErr *config.LookupError
	require.True(t, errors.As(err, &lookupErr))
	assert.Equal(t, KeyUsername, lookupErr.Key)
}

func TestSendTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close() // nothing listens here any more

	s := New(staticChannels{"outgoing": url, "username": "bot"}, nil, nil)
	err := s.Send(context.Background(), "general", "x")

	var delivery *DeliveryError
	require.True(t, errors.As(err, &delivery), "expected DeliveryError, got %v", err)
	assert.Equal(t, "general", delivery.Channel)
	assert.Equal(t, url, delivery.URL)
	assert.Error(t, errors.Unwrap(delivery))
}

func TestSendInvalidURL(t *testing.T) {
	s := New(staticChannels{"outgoing": "://bad", "username": "bot"}, nil, nil)
	err := s.Send(context.Background(), "general", "x")

	var delivery *DeliveryError
	assert.True(t, errors.As(err, &delivery))
}

func TestSendHonoursContext(t *testing.T) {
	srv, _ := newWebhook(t, http.StatusOK)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(staticChannels{"outgoing": srv.URL, "username": "bot"}, srv.Client(), nil)
	err := s.Send(ctx, "general", "x")

	var delivery *DeliveryError
	require.True(t, errors.As(err, &delivery))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEncodeEnvelopeKeepsHTML(t *testing.T) {
	b, err := encodeEnvelope(Envelope{Text: "<a&b>", Username: "u"})
	require.NoError(t, err)
	assert.Equal(t, `{"text":"<a&b>","username":"u"}`, string(b))
}
