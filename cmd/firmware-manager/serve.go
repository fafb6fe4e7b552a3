package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	_ "firmware-manager/docs"
	"firmware-manager/internal/api"
	"firmware-manager/internal/api/handlers"
	"firmware-manager/internal/auth"
	"firmware-manager/internal/bridge"
	"firmware-manager/internal/config"
	"firmware-manager/internal/db"
	"firmware-manager/internal/journal"
	"firmware-manager/internal/logging"
	"firmware-manager/internal/notify"
	"firmware-manager/internal/state"
	"firmware-manager/internal/system"
	"firmware-manager/internal/telemetry"
	"firmware-manager/internal/view"
	"firmware-manager/internal/webhook"
	"firmware-manager/migrations"
)

const (
	outboxSize      = 256
	shutdownTimeout = 10 * time.Second
)

func newServeCmd() *cobra.Command {
	var flagNoScan bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the state core, worker bridge and HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := logging.Setup(cfg); err != nil {
				return fmt.Errorf("logger setup: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, !flagNoScan)
		},
	}

	cmd.Flags().BoolVar(&flagNoScan, "no-scan", false, "Do not request a device scan at startup")

	return cmd
}

func serve(ctx context.Context, cfg config.Config, scan bool) error {
	log.Info().
		Str("version", version).
		Str("listen_addr", cfg.ListenAddr).
		Str("transport", cfg.Worker.Transport).
		Msg("Firmware manager starting")

	// DB + migrations
	log.Info().Str("db_path", cfg.DBPath).Msg("Opening database")
	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := db.RunMigrations(cfg.DBPath, migrations.FS); err != nil {
		return err
	}

	// Outcome sinks
	journalRepo := &journal.SQLiteRepo{DB: database}
	whRepo := &webhook.SQLiteRepo{DB: database}
	whSvc := &webhook.Service{
		Repo:       whRepo,
		Secret:     cfg.Webhooks.Secret,
		TimeoutSec: cfg.Webhooks.TimeoutSec,
		Retries:    cfg.Webhooks.Retries,
	}
	defer whSvc.Wait()

	sinks := []notify.Sink{journalRepo, whSvc}
	influx, err := telemetry.Connect(ctx, cfg.InfluxDB)
	switch {
	case err == nil:
		defer influx.Close()
		sinks = append(sinks, influx)
	case errors.Is(err, telemetry.ErrDisabled):
		log.Debug().Msg("Telemetry disabled")
	default:
		log.Warn().Err(err).Msg("Telemetry unavailable, continuing without it")
	}
	hub := notify.NewHub(sinks...)

	// State core
	board := view.NewBoard()
	uiOut := state.NewOutbox[view.Event](outboxSize)
	workerOut := state.NewOutbox[state.Request](outboxSize)
	defer uiOut.Close()
	defer workerOut.Close()

	rebooter := system.NewRebooter(cfg.System.RebootCommand, cfg.System.DryRun)
	defer rebooter.Wait()

	core := state.New(state.Options{
		View:      board,
		UI:        uiOut,
		Worker:    workerOut,
		Rebooter:  rebooter,
		Observer:  hub,
		OnBattery: system.DetectOnBattery(cfg.System.PowerSupplyDir),
		HideDelay: cfg.HideDelay(),
		Backends:  backends(cfg),
	})
	loop := state.NewLoop(core, state.DefaultQueueSize)

	// HTTP front end
	verifier := setupOIDC(ctx, &cfg)
	authHandler := auth.Auth{
		ViewerKey:    cfg.ViewerKey,
		OperatorKey:  cfg.OperatorKey,
		OIDCEnabled:  cfg.OIDC.Enabled,
		OIDCVerifier: verifier,
	}

	router := api.NewRouter(
		&handlers.DeviceHandler{Auth: authHandler, Board: board, Loop: loop},
		&handlers.JournalHandler{Auth: authHandler, Repo: journalRepo},
		&handlers.WebhookHandler{Auth: authHandler, Repo: whRepo},
	)

	// Apply middlewares: logging first, then CORS
	handler := logging.HTTPLogger(router)
	handler = api.CORSMiddleware(handler)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return loop.Run(ctx) })
	g.Go(func() error { return hub.Run(ctx) })

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-uiOut.C():
				if !ok {
					return nil
				}
				board.Apply(ev)
			}
		}
	})

	g.Go(func() error { return runWorkerBridge(ctx, cfg, loop, workerOut.C()) })

	g.Go(func() error {
		log.Info().Str("listen_addr", cfg.ListenAddr).Msg("Firmware manager API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if scan {
		if err := loop.Post(state.RescanRequested{}); err != nil {
			log.Warn().Err(err).Msg("Initial scan not requested")
		}
	}

	err = g.Wait()
	log.Info().Msg("Firmware manager stopped")
	return err
}

func runWorkerBridge(ctx context.Context, cfg config.Config, loop bridge.Poster, requests <-chan state.Request) error {
	if cfg.Worker.Transport != "mqtt" {
		return bridge.Discard(ctx, requests)
	}
	client, err := bridge.Dial(cfg.Worker.MQTT)
	if err != nil {
		return err
	}
	defer client.Close()
	return bridge.New(client, bridge.Topics{Prefix: cfg.Worker.MQTT.TopicPrefix}, loop).Run(ctx, requests)
}

// setupOIDC builds the verifier, or switches OIDC off when the issuer is
// unreachable so API keys keep working.
func setupOIDC(ctx context.Context, cfg *config.Config) *auth.OIDCVerifier {
	if !cfg.OIDC.Enabled {
		return nil
	}
	log.Info().Str("issuer", cfg.OIDC.IssuerURL).Msg("Initializing OIDC authentication")
	verifier, err := auth.NewOIDCVerifier(
		ctx,
		cfg.OIDC.IssuerURL,
		cfg.OIDC.ClientID,
		cfg.OIDC.Audience,
		cfg.OIDC.OperatorRole,
		cfg.OIDC.ViewerRole,
	)
	if err != nil {
		log.Warn().
			Err(err).
			Msg("OIDC enabled but failed to initialize, falling back to API key authentication only")
		cfg.OIDC.Enabled = false
		return nil
	}
	log.Info().
		Str("issuer", cfg.OIDC.IssuerURL).
		Str("client_id", cfg.OIDC.ClientID).
		Str("operator_role", cfg.OIDC.OperatorRole).
		Str("viewer_role", cfg.OIDC.ViewerRole).
		Msg("OIDC authentication enabled")
	return verifier
}

func backends(cfg config.Config) []state.Backend {
	var out []state.Backend
	if cfg.Backends.Fwupd {
		out = append(out, state.BackendFwupd)
	}
	if cfg.Backends.System76 {
		out = append(out, state.BackendSystem76)
	}
	return out
}
