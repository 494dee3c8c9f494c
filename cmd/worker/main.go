package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"nbasync/ingestion/internal/cache"
	"nbasync/ingestion/internal/config"
	"nbasync/ingestion/internal/feed"
	"nbasync/ingestion/internal/metrics"
	"nbasync/ingestion/internal/relay"
	"nbasync/ingestion/internal/scheduler"
	"nbasync/ingestion/internal/store"
	"nbasync/ingestion/internal/sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Setup logger
	setupLogger()

	log.Info().Msg("Starting scoreboard sync worker")

	// Load configuration
	cfg := config.MustLoad()
	log.Info().
		Str("env", cfg.AppEnv).
		Str("league", cfg.League).
		Str("log_level", cfg.LogLevel).
		Msg("Configuration loaded")

	lg, ok := sync.LeagueByTag(cfg.League)
	if !ok {
		log.Fatal().Str("league", cfg.League).Msg("Unknown league")
	}

	// Create context that listens for cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	// Initialize scoreboard feed client
	feedClient := feed.NewClient(cfg.FeedBaseURL, cfg.FeedTimeout)
	log.Info().Msg("Scoreboard feed client initialized")

	// Initialize tabular store client and table handles
	storeClient := store.NewClient(cfg.StoreBaseURL, cfg.StoreToken, cfg.StoreBaseID, cfg.StoreTimeout)
	games := storeClient.Table(cfg.GamesTableName)
	events := storeClient.Table(cfg.EventsTableName)
	teams := storeClient.Table(cfg.TeamsTableName)
	log.Info().Msg("Store client initialized")

	// Initialize Redis cache
	redisCache, err := cache.NewRedisCache(cache.Config{
		Host:     cfg.RedisHost,
		Port:     strconv.Itoa(cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      time.Duration(cfg.CacheTTLTeams) * time.Second,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without cache")
		redisCache = nil
	} else {
		defer redisCache.Close()
		log.Info().Msg("Redis cache connected")
	}

	// Wire the sync pipeline
	links := sync.NewLinkResolver(teams, events, games, redisCache)
	engine := sync.NewEngine(games, links, lg)
	runner := sync.NewRunner(feedClient, engine, lg)
	rank := sync.NewRankJob(teams)

	// Start metrics HTTP server
	if cfg.EnableMetrics {
		go startMetricsServer(cfg.MetricsPort)
	}

	// Update system uptime metric
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
			case <-ctx.Done():
				return
			}
		}
	}()

	// Start SMS webhook relay
	if cfg.RelayEnabled {
		sender := relay.NewSender(cfg.SMSBaseURL, cfg.SMSPublicKey, cfg.SMSPrivateKey, cfg.SMSFromNumber)
		webhook := relay.NewWebhook(
			storeClient.Table(cfg.UsersTableName),
			events,
			storeClient.Table(cfg.RepliesTableName),
			sender,
			cfg.RelayAuthToken,
			cfg.RelayPublicURL,
		)
		go startRelayServer(ctx, cfg.RelayPort, webhook)
	}

	// Create and start scheduler
	sched := scheduler.NewScheduler(cfg, runner, rank, lg)

	if cfg.EnableScheduler {
		log.Info().Msg("Starting scheduler...")
		if err := sched.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}
	}

	// Run initial sync if enabled
	if cfg.InitialSyncEnabled {
		log.Info().Msg("Running initial sync pass...")
		if err := sched.RunSyncPass(ctx); err != nil {
			log.Error().Err(err).Msg("Initial sync failed, continuing anyway...")
		} else {
			log.Info().Msg("Initial sync completed successfully")
		}
	}

	// Keep running until context is cancelled
	<-ctx.Done()

	// Graceful shutdown
	log.Info().Msg("Shutting down scheduler...")
	sched.Stop()

	log.Info().Msg("Worker shutdown complete")
}

// setupLogger configures the zerolog logger
func setupLogger() {
	// Pretty console logging in development
	if os.Getenv("APP_ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	// Set log level
	level := zerolog.InfoLevel
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		parsedLevel, err := zerolog.ParseLevel(lvl)
		if err == nil {
			level = parsedLevel
		}
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("level", level.String()).
		Msg("Logger initialized")
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(port int) {
	http.Handle("/metrics", promhttp.Handler())

	// Health check endpoint
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	addr := fmt.Sprintf(":%d", port)
	log.Info().Int("port", port).Msg("Starting metrics server")

	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}

// startRelayServer serves the inbound SMS webhook until ctx is done
func startRelayServer(ctx context.Context, port int, webhook *relay.Webhook) {
	mux := http.NewServeMux()
	mux.Handle("/webhook/sms", webhook)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Int("port", port).Msg("Starting SMS webhook server")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("SMS webhook server failed")
	}
}
