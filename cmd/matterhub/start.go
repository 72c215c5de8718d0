package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/adfinis-sygroup/matterhub/internal/config"
	"github.com/adfinis-sygroup/matterhub/internal/dispatch"
	"github.com/adfinis-sygroup/matterhub/internal/events"
	"github.com/adfinis-sygroup/matterhub/internal/lock"
	"github.com/adfinis-sygroup/matterhub/internal/log"
	"github.com/adfinis-sygroup/matterhub/internal/plugin"
	"github.com/adfinis-sygroup/matterhub/internal/sender"
	"github.com/adfinis-sygroup/matterhub/internal/state"
	"github.com/adfinis-sygroup/matterhub/internal/storage"
	"github.com/adfinis-sygroup/matterhub/internal/webhook"
)

const eventBufferSize = 256

func newStartCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the hub in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStart(cmd.Context(), *configPath)
		},
	}
}

func runStart(parent context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log.Setup(cfg.Service.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("matterhub starting", "version", version, "config", cfg.Path)

	pidLockPath := lock.PathFor(cfg.State.Path)
	pidLock, err := lock.AcquirePIDLock(pidLockPath)
	if err != nil {
		return fmt.Errorf("acquire PID lock: %w", err)
	}
	defer pidLock.Release()
	logger.Info("acquired PID lock", "path", pidLockPath)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h, err := newHub(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer h.Close()

	err = h.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("matterhub stopped")
	return nil
}

// hub is the wired set of components behind `matterhub start`.
type hub struct {
	cfg        *config.Config
	db         *sql.DB
	provider   *config.FileProvider
	events     *events.Hub
	registry   *dispatch.Registry
	dispatcher *dispatch.Dispatcher
	loader     *plugin.Loader
	server     *webhook.Server
	logger     *slog.Logger
}

// newHub opens the state database, builds the pipeline from inbound server
// to sender, and loads the configured plugins.
func newHub(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*hub, error) {
	serverCfg, err := webhook.FromGlobalConfig(cfg.Server)
	if err != nil {
		return nil, err
	}

	db, err := storage.OpenSQLite(ctx, cfg.State.Path)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}
	logger.Info("database opened", "path", cfg.State.Path)

	h := &hub{
		cfg:      cfg,
		db:       db,
		provider: config.NewProvider(cfg),
		events:   events.NewHub(eventBufferSize),
		registry: dispatch.NewRegistry(),
		logger:   logger,
	}

	client := &http.Client{Timeout: cfg.Outgoing.Timeout}
	snd := sender.New(h.provider, client, h.events)
	h.dispatcher = dispatch.New(h.registry, snd, h.events)
	h.loader = plugin.NewLoader(nil, h.registry, state.NewStore(db), h.events)
	h.server = webhook.New(serverCfg, h.dispatcher, h.registry, h.events, log.WithComponent("webhook"))

	h.loader.LoadAll(ctx, h.provider.Plugins())
	return h, nil
}

// Run serves inbound requests and watches the config file until ctx ends.
func (h *hub) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return h.server.Start(gctx)
	})
	g.Go(func() error {
		if err := h.provider.Watch(gctx, h.events); err != nil {
			// Serving continues without hot reload.
			h.logger.Warn("config watch disabled", "error", err)
		}
		return nil
	})
	return g.Wait()
}

func (h *hub) Close() error {
	return h.db.Close()
}
