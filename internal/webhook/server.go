package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/adfinis-sygroup/matterhub/internal/dispatch"
	"github.com/adfinis-sygroup/matterhub/internal/events"
)

// Server represents the inbound HTTP server.
type Server struct {
	config   Config
	receiver Receiver
	registry HookSource
	events   *events.Hub
	logger   *slog.Logger
	server   *http.Server
	started  time.Time

	// baseCtx outlives requests so dispatches finish after the 202.
	baseCtx  context.Context
	inflight sync.WaitGroup

	// shutdown is closed when the server stops so long-lived streams end;
	// http.Server.Shutdown does not cancel request contexts.
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// New creates a new inbound server. hub may be nil, which disables /events.
func New(config Config, receiver Receiver, hooks HookSource, hub *events.Hub, logger *slog.Logger) *Server {
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = DefaultMaxBodySize
	}
	if config.Listen == "" {
		config.Listen = DefaultListen
	}
	return &Server{
		config:   config,
		receiver: receiver,
		registry: hooks,
		events:   hub,
		logger:   logger,
		started:  time.Now(),
		baseCtx:  context.Background(),
		shutdown: make(chan struct{}),
	}
}

// Start starts the HTTP server (blocking). On context cancellation it stops
// accepting requests and waits for in-flight dispatches before returning.
func (s *Server) Start(ctx context.Context) error {
	s.baseCtx = context.WithoutCancel(ctx)

	s.server = &http.Server{
		Addr:              s.config.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("inbound server starting", "listen", s.config.Listen, "max_body_size", humanize.IBytes(uint64(s.config.MaxBodySize)))

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("inbound server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.closeStreams()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("inbound server shutdown failed: %w", err)
		}
		if err := s.Drain(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("inbound server error: %w", err)
	}
}

// closeStreams ends every open /events stream.
func (s *Server) closeStreams() {
	s.shutdownOnce.Do(func() { close(s.shutdown) })
}

// Drain waits for background dispatches to finish or ctx to end.
func (s *Server) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for in-flight dispatches: %w", ctx.Err())
	}
}

// Handler returns the router serving all endpoints.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Post(MessagePathPrefix+"{channel}", s.handleMessage)
	r.Get(HealthPath, s.handleHealth)
	if s.events != nil {
		r.Get(EventsPath, s.handleEvents)
	}

	r.NotFound(s.handleGenericHook)
	r.MethodNotAllowed(s.handleGenericHook)

	return r
}

// loggingMiddleware logs HTTP requests (excludes payloads).
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// handleMessage accepts a message for a channel and dispatches it in the
// background.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	channel := chi.URLParam(r, "channel")
	if channel == "" {
		s.respondError(w, http.StatusNotFound, "channel missing")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, s.config.MaxBodySize+1))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to read request body")
		return
	}
	if int64(len(body)) > s.config.MaxBodySize {
		s.respondError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	payload, err := decodePayload(r.Header.Get("Content-Type"), body)
	if err != nil {
		s.logger.Warn("rejected inbound message", "channel", channel, "error", err)
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := dispatch.NewDispatchID()
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.receiver.ReceiveWithID(s.baseCtx, id, channel, payload)
	}()

	s.logger.Info("message accepted",
		"channel", channel,
		"dispatch_id", id,
		"request_id", middleware.GetReqID(r.Context()),
	)
	s.respondJSON(w, http.StatusAccepted, AcceptedResponse{DispatchID: id})
}

// handleGenericHook serves plugin-registered hooks for any route the router
// does not know.
func (s *Server) handleGenericHook(w http.ResponseWriter, r *http.Request) {
	hook, ok := s.registry.Hook(r.Method, r.URL.Path)
	if !ok {
		s.respondError(w, http.StatusNotFound, "not found")
		return
	}
	hook.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Handlers: s.registry.Len(),
		Uptime:   time.Since(s.started).Round(time.Second).String(),
	})
}

// decodePayload turns a request body into the JSON payload handed to the
// dispatcher. Form posts become a flat object of their first values.
func decodePayload(contentType string, body []byte) (json.RawMessage, error) {
	mediaType := ""
	if contentType != "" {
		mt, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return nil, fmt.Errorf("invalid content type: %w", err)
		}
		mediaType = mt
	}

	switch {
	case mediaType == "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, fmt.Errorf("invalid form body: %w", err)
		}
		obj := make(map[string]string, len(values))
		for k, v := range values {
			if len(v) > 0 {
				obj[k] = v[0]
			}
		}
		b, err := json.Marshal(obj)
		if err != nil {
			return nil, err
		}
		return json.RawMessage(b), nil
	case mediaType == "" || mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		if len(body) == 0 || !json.Valid(body) {
			return nil, fmt.Errorf("body is not valid JSON")
		}
		return json.RawMessage(body), nil
	default:
		return nil, fmt.Errorf("unsupported content type %q", mediaType)
	}
}

// respondJSON sends a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError sends a JSON error response.
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{Error: message})
}
