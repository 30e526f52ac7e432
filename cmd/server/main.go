package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cypherlabdev/market-signal-service/internal/aggregator"
	"github.com/cypherlabdev/market-signal-service/internal/cache"
	"github.com/cypherlabdev/market-signal-service/internal/config"
	httpHandler "github.com/cypherlabdev/market-signal-service/internal/handler/http"
	"github.com/cypherlabdev/market-signal-service/internal/messaging"
	"github.com/cypherlabdev/market-signal-service/internal/metrics"
	"github.com/cypherlabdev/market-signal-service/internal/service"
	"github.com/cypherlabdev/market-signal-service/internal/session"
	"github.com/cypherlabdev/market-signal-service/internal/source"
	"github.com/cypherlabdev/market-signal-service/internal/source/espn"
	"github.com/cypherlabdev/market-signal-service/internal/source/theoddsapi"
	"github.com/cypherlabdev/market-signal-service/pkg/arbitrage"
	"github.com/cypherlabdev/market-signal-service/pkg/linemove"
)

var (
	configPath string
	scanSports []string
	scanDays   int
)

var rootCmd = &cobra.Command{
	Use:          "market-signal-service",
	Short:        "Early odds aggregation and sharp-money market signal scoring",
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the Kafka market signal consumer",
	RunE:  runServe,
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Aggregate early odds once and print them as JSON",
	RunE:  runScan,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "Path to configuration file")

	scanCmd.Flags().StringSliceVar(&scanSports, "sports", nil, "Sports to scan (default aggregator.sports)")
	scanCmd.Flags().IntVar(&scanDays, "days", 0, "Look-ahead window in days (default aggregator.horizon_days)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scanCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	logger.Info().Msg("starting market-signal-service")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := metrics.NewRegistry()

	// Create Redis cache
	redisCache := newRedisCache(cfg.Redis, logger)
	defer redisCache.Close()

	// Test Redis connection
	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")

	// Sources and aggregation; scans feed line movements to scoring
	movements := linemove.NewTracker()
	agg := aggregator.NewAggregator(
		buildSources(cfg.Sources, redisCache, registry, logger),
		aggregator.Config{
			InterSportDelay: cfg.Aggregator.InterSportDelay,
			Movements:       movements,
		},
		registry,
		logger,
	)

	// Scoring sessions and service layer
	sessions := session.NewRegistry(session.Config{IdleTTL: cfg.Session.IdleTTL}, registry, logger)
	signalService := service.NewSignalService(sessions, redisCache, movements, registry, logger)
	earlyLinesService := service.NewEarlyLinesService(
		agg,
		arbitrage.NewDetector(logger),
		service.EarlyLinesConfig{
			Sports:      cfg.Aggregator.Sports,
			HorizonDays: cfg.Aggregator.HorizonDays,
			Thresholds:  cfg.Arbitrage.Thresholds(),
		},
		registry,
		logger,
	)
	logger.Info().Msg("services initialized")

	// Create Kafka consumer
	consumer := messaging.NewKafkaConsumer(
		messaging.KafkaConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID,
		},
		signalService,
		registry,
		logger,
	)
	defer consumer.Close()

	// Start Kafka consumer in goroutine
	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.Error().Err(err).Msg("Kafka consumer failed")
		}
	}()

	// Evict idle scoring sessions
	go evictLoop(ctx, sessions, cfg.Session.IdleTTL)

	// Periodic scans keep the movement tracker fed between client requests
	go scanLoop(ctx, earlyLinesService, cfg.Aggregator.ScanInterval, logger)

	// Setup HTTP server routes
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(30 * time.Second))

	// Health and monitoring endpoints
	router.Get("/health", healthHandler)
	router.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		readyHandler(w, r, signalService)
	})
	router.Handle("/metrics", registry.Handler())

	// Register API routes
	httpHandler.NewSignalHandler(signalService, earlyLinesService, logger).RegisterRoutes(router)
	logger.Info().Msg("API routes registered")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start HTTP server in goroutine
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("shutting down gracefully...")

	// Cancel context to stop consumer and eviction
	cancel()

	// Shutdown HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	logger.Info().Msg("shutdown complete")
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := setupLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := metrics.NewRegistry()

	// The cache only saves quota here, so scan without it when Redis is down
	var oddsCache source.OddsCache
	redisCache := newRedisCache(cfg.Redis, logger)
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable, scanning without cache")
	} else {
		oddsCache = redisCache
	}

	agg := aggregator.NewAggregator(
		buildSources(cfg.Sources, oddsCache, registry, logger),
		aggregator.Config{InterSportDelay: cfg.Aggregator.InterSportDelay},
		registry,
		logger,
	)
	earlyLines := service.NewEarlyLinesService(agg, arbitrage.NewDetector(logger), service.EarlyLinesConfig{
		Sports:      cfg.Aggregator.Sports,
		HorizonDays: cfg.Aggregator.HorizonDays,
		Thresholds:  cfg.Arbitrage.Thresholds(),
	}, registry, logger)

	odds, err := earlyLines.Scan(ctx, scanSports, scanDays)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(odds)
}

// buildSources creates the primary paid source and, when enabled, the free
// fallback, each behind its own guard. A nil cache leaves them uncached.
func buildSources(cfg config.SourcesConfig, oddsCache source.OddsCache, registry *metrics.Registry, logger zerolog.Logger) []source.Source {
	guard := func(name string) *source.Guard {
		return source.NewGuard(source.GuardConfig{
			Name:            name,
			RequestTimeout:  cfg.RequestTimeout,
			RatePerSecond:   cfg.RatePerSecond,
			Burst:           cfg.Burst,
			BreakerFailures: cfg.BreakerFailures,
			BreakerTimeout:  cfg.BreakerTimeout,
		}, nil, registry, logger)
	}

	sources := []source.Source{
		theoddsapi.NewClient(theoddsapi.Config{
			APIKey:  cfg.TheOddsAPI.APIKey,
			BaseURL: cfg.TheOddsAPI.BaseURL,
			Regions: cfg.TheOddsAPI.Regions,
		}, guard(theoddsapi.Name), logger),
	}
	if cfg.ESPN.Enabled {
		sources = append(sources, espn.NewClient(espn.Config{BaseURL: cfg.ESPN.BaseURL}, guard(espn.Name), logger))
	}

	if oddsCache == nil {
		return sources
	}
	for i, src := range sources {
		sources[i] = source.NewCached(src, oddsCache, logger)
	}
	return sources
}

func newRedisCache(cfg config.RedisConfig, logger zerolog.Logger) *cache.RedisCache {
	return cache.NewRedisCache(
		cache.RedisCacheConfig{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			TTL:      cfg.TTL,
			OddsTTL:  cfg.OddsTTL,
		},
		logger,
	)
}

// evictLoop drops idle sessions until ctx is done
func evictLoop(ctx context.Context, sessions *session.Registry, idleTTL time.Duration) {
	if idleTTL <= 0 {
		return
	}
	interval := idleTTL / 4
	if interval < time.Minute {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sessions.EvictIdle()
		}
	}
}

// scanLoop aggregates early odds every interval until ctx is done
func scanLoop(ctx context.Context, earlyLines *service.EarlyLinesService, interval time.Duration, logger zerolog.Logger) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := earlyLines.Scan(ctx, nil, 0); err != nil && ctx.Err() == nil {
				logger.Warn().Err(err).Msg("background scan failed")
			}
		}
	}
}

// setupLogger configures the logger based on config
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Set format
	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	return log.Logger.With().Str("service", "market-signal").Logger()
}

// healthHandler returns 200 if service is running
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// readyHandler returns 200 if service is ready to accept traffic
func readyHandler(w http.ResponseWriter, r *http.Request, signals *service.SignalService) {
	// Check Redis connection
	if err := signals.Ping(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("Redis unavailable"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("READY"))
}
