package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/matchqueue/internal/auth"
	"github.com/mauv0809/matchqueue/internal/config"
	"github.com/mauv0809/matchqueue/internal/database"
	server "github.com/mauv0809/matchqueue/internal/http"
	"github.com/mauv0809/matchqueue/internal/inngest"
	"github.com/mauv0809/matchqueue/internal/matcher"
	"github.com/mauv0809/matchqueue/internal/matchmaking"
	"github.com/mauv0809/matchqueue/internal/matchmaking/dynamo"
	"github.com/mauv0809/matchqueue/internal/metrics"
	"github.com/mauv0809/matchqueue/internal/notifier"
	"github.com/mauv0809/matchqueue/internal/notifier/eventbus"
	"github.com/mauv0809/matchqueue/internal/notifier/realtime"
	"github.com/mauv0809/matchqueue/internal/notifier/slack"
	"github.com/mauv0809/matchqueue/internal/orchestrator"
	"github.com/mauv0809/matchqueue/internal/pubsub"
)

func main() {
	// Start profiling timer
	startTime := time.Now()
	log.SetFormatter(log.JSONFormatter)
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration", "error", err)
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.Warn("Unknown LOG_LEVEL, keeping info", "level", cfg.LogLevel)
	}
	ctx := context.Background()

	// The SQL database always backs the persisted counters, and the
	// matchmaking stores unless DynamoDB is selected.
	db, dbTeardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken, cfg.MigrationsDir)
	dbInitDuration := time.Since(startTime)
	log.Info("Database initialization time recorded", "duration_ms", dbInitDuration.Milliseconds())
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer func() {
		log.Info("Closing database connection")
		dbTeardown()
		db.Close()
	}()

	requests, sessions, err := newStores(ctx, cfg, db)
	if err != nil {
		log.Fatalf("Failed to initialize stores: %s", err)
	}

	metricsStore := metrics.New(db)
	metricsSvc := metrics.NewService()
	metricsHandler := metrics.NewMetricsHandler()
	recorder := metrics.WithStore(metricsSvc, metricsStore)

	verifier := auth.NewVerifier(cfg.JWTSecret)
	if !verifier.Enabled() {
		log.Warn("JWT_SECRET not set, trusting the " + auth.UserHeader + " header")
	}

	pubsubClient := newPubSub(ctx, cfg)
	defer pubsubClient.Close()

	socket := realtime.New(verifier)
	go socket.Serve()
	defer socket.Close()

	targets := notifier.Multi{socket}
	if cfg.Slack.Enabled() {
		targets = append(targets, slack.NewNotifier(cfg.Slack.Token, cfg.Slack.ChannelID, cfg.NotifyDryRun))
	}
	if cfg.PubSub.ProjectID != "" {
		targets = append(targets, eventbus.New(pubsubClient, cfg.PubSub.Topic))
	}
	dispatcher := notifier.NewDispatcher(targets, recorder)
	defer dispatcher.Close()

	orch := orchestrator.New(requests, sessions, matcher.New(requests, cfg.Matchmaking), dispatcher, recorder, cfg.Matchmaking)

	var inngestClient inngest.InngestClient
	if cfg.Inngest.AppID != "" {
		provider, err := inngest.NewProvider(cfg.Inngest)
		if err != nil {
			log.Fatalf("Failed to initialize inngest: %s", err)
		}
		if inngestClient, err = inngest.New(provider, orch); err != nil {
			log.Fatalf("Failed to register inngest functions: %s", err)
		}
	}

	s := server.NewServer(orch, verifier, metricsStore, metricsHandler, pubsubClient, socket.Handler(), inngestClient, cfg.SweepToken)

	// --- Record startup time ---
	startupDuration := time.Since(startTime)
	metricsSvc.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds())

	// --- Graceful shutdown setup ---
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	// Start the server in a goroutine
	go func() {
		log.Info("Server started", "port", cfg.Port, "backend", cfg.StoreBackend)
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)

		// Create a context with a timeout for the shutdown.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Attempt to gracefully shut down the server.
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Server shutdown failed", "error", err)
		} else {
			log.Info("Server gracefully stopped")
		}
	}

	log.Info("Server process shutting down")
}

func newStores(ctx context.Context, cfg config.Config, db *sql.DB) (matchmaking.RequestStore, matchmaking.SessionStore, error) {
	if cfg.StoreBackend != config.BackendDynamo {
		return matchmaking.NewRequestStore(db), matchmaking.NewSessionStore(db), nil
	}
	client, err := dynamo.NewClient(ctx, cfg.Dynamo.Region)
	if err != nil {
		return nil, nil, err
	}
	log.Info("Using DynamoDB stores", "requests", cfg.Dynamo.RequestsTable, "sessions", cfg.Dynamo.SessionsTable)
	return dynamo.NewRequestStore(client, cfg.Dynamo.RequestsTable), dynamo.NewSessionStore(client, cfg.Dynamo.SessionsTable), nil
}

// newPubSub connects to Pub/Sub when a project is configured. Without one the
// push handler still decodes deliveries.
func newPubSub(ctx context.Context, cfg config.Config) pubsub.PubSubClient {
	if cfg.PubSub.ProjectID == "" {
		log.Info("GCP_PROJECT not set, Pub/Sub publishing disabled")
		return pubsub.NewLocal()
	}
	client, err := pubsub.New(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		log.Fatalf("Failed to initialize pubsub: %s", err)
	}
	return client
}
