// Package server orchestrates all components: HTTP gateway, registry,
// settlement coordinator, NATS publisher and Postgres.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	comms "github.com/nats-io/nats.go"
	stripe "github.com/stripe/stripe-go/v79"
	stripewebhook "github.com/stripe/stripe-go/v79/webhook"

	"github.com/GYFX35/AI-services/internal/config"
	"github.com/GYFX35/AI-services/pkg/auth"
	"github.com/GYFX35/AI-services/pkg/capabilities"
	"github.com/GYFX35/AI-services/pkg/commsutil"
	"github.com/GYFX35/AI-services/pkg/db"
	"github.com/GYFX35/AI-services/pkg/events"
	"github.com/GYFX35/AI-services/pkg/gateway"
	"github.com/GYFX35/AI-services/pkg/registry"
	"github.com/GYFX35/AI-services/pkg/settlement"
)

const logPrefix = "server:server"

// Server is the ai-services gateway orchestrator.
type Server struct {
	cfg        *config.Config
	verifier   auth.Verifier
	reg        *registry.Registry
	gw         *gateway.Gateway
	coord      *settlement.Coordinator
	repo       *db.Repository
	httpServer *http.Server

	// verifyWebhook validates a provider webhook signature and returns the
	// decoded event. Swapped in tests.
	verifyWebhook func(payload []byte, sigHeader string) (stripe.Event, error)
}

// Run starts the server, blocks until shutdown signal, then cleans up.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}
	if err := cfg.ValidateForServe(); err != nil {
		return err
	}

	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info(fmt.Sprintf("%s - Starting ai-services gateway", logPrefix))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Step 1: Connect to NATS when configured; event publishing is optional.
	var nc *comms.Conn
	publisher := events.Publisher(&events.NoOpPublisher{})
	if cfg.COMMSURL != "" {
		nc, err = commsutil.Connect(cfg.COMMSURL, cfg.COMMSName)
		if err != nil {
			return fmt.Errorf("%s - failed to connect to NATS: %w", logPrefix, err)
		}
		defer nc.Drain()
		publisher = events.NewCommsPublisher(nc, nil)
		slog.Info(fmt.Sprintf("%s - Connected to NATS at %s", logPrefix, cfg.COMMSURL))
	} else {
		slog.Info(fmt.Sprintf("%s - COMMS_URL not set, event publishing disabled", logPrefix))
	}

	// Step 2: Connect to Postgres when configured; otherwise the static key
	// table verifies callers and intents live in memory.
	var pool *pgxpool.Pool
	var repo *db.Repository
	var verifier auth.Verifier
	var store settlement.Store = settlement.NewMemoryStore()
	if cfg.DatabaseURL != "" {
		pool, err = db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("%s - failed to connect to database: %w", logPrefix, err)
		}
		defer pool.Close()

		if cfg.RunMigrations {
			migrationSQL, err := db.LoadMigrationFiles(cfg.MigrationPath)
			if err != nil {
				return fmt.Errorf("%s - failed to load migrations: %w", logPrefix, err)
			}
			if err := db.RunMigrations(ctx, pool, migrationSQL); err != nil {
				return fmt.Errorf("%s - failed to run migrations: %w", logPrefix, err)
			}
		}

		repo = db.NewRepository(pool)
		verifier = db.NewVerifier(repo)
		store = db.NewPaymentStore(repo)
	} else {
		callers := make(map[string]auth.Caller, len(cfg.APIKeys))
		for key, username := range cfg.APIKeys {
			callers[key] = auth.Caller{ID: username, Username: username}
		}
		verifier = auth.NewStaticVerifier(callers)
		slog.Info(fmt.Sprintf("%s - DATABASE_URL not set, verifying %d static keys", logPrefix, len(callers)))
	}

	// Step 3: Settlement coordinator; payment endpoints stay disabled
	// without a Stripe key.
	var coord *settlement.Coordinator
	if cfg.StripeSecretKey != "" {
		coord = settlement.NewCoordinator(settlement.Params{
			Store:     store,
			Provider:  settlement.NewStripeProvider(cfg.StripeSecretKey),
			Publisher: publisher,
			Retention: cfg.IntentRetention,
		})
	} else {
		slog.Info(fmt.Sprintf("%s - STRIPE_SECRET_KEY not set, settlement disabled", logPrefix))
	}

	// Step 4: Capability registry and dispatch gateway.
	deps := capabilities.Deps{WeatherAPIKey: cfg.WeatherAPIKey}
	if cfg.GeminiAPIKey != "" {
		generator, err := capabilities.NewGenerator(ctx, cfg.GeminiModel)
		if err != nil {
			slog.Warn(fmt.Sprintf("%s - model-backed generation unavailable: %v", logPrefix, err))
		} else {
			deps.Generator = generator
		}
	}
	reg := registry.New()
	if err := capabilities.RegisterBuiltins(reg, deps); err != nil {
		return fmt.Errorf("%s - failed to register capabilities: %w", logPrefix, err)
	}

	s := &Server{
		cfg:      cfg,
		verifier: verifier,
		reg:      reg,
		gw:       gateway.New(reg, verifier, cfg.HandlerTimeout),
		coord:    coord,
		repo:     repo,
		verifyWebhook: func(payload []byte, sigHeader string) (stripe.Event, error) {
			return stripewebhook.ConstructEvent(payload, sigHeader, cfg.StripeWebhookSecret)
		},
	}

	// Step 5: HTTP server.
	httpAddr := cfg.HTTPAddr
	if httpAddr == "" {
		httpAddr = fmt.Sprintf(":%d", cfg.HTTPPort)
	}
	s.httpServer = &http.Server{Addr: httpAddr, Handler: s.routes()}
	go func() {
		slog.Info(fmt.Sprintf("%s - HTTP server listening on %s", logPrefix, httpAddr))
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s - HTTP server error: %v", logPrefix, err))
		}
	}()

	slog.Info(fmt.Sprintf("%s - Gateway is ready (%d capabilities)", logPrefix, len(reg.List())))

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info(fmt.Sprintf("%s - Received signal %s, shutting down", logPrefix, sig))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	s.httpServer.Shutdown(shutdownCtx)

	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return nil
}
