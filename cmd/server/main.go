// Package main is the entry point of the Regenmon Hub API server.
//
// The hub is the shared backend behind every student's deployed regenmon
// app: it keeps the authoritative creature state, runs the token economy,
// evaluates training prompts through the model gateway and serves the
// leaderboard and the admin dashboard.
//
// The architecture follows Clean Architecture and DDD:
// - Domain: pure business logic without external dependencies
// - Application: use case orchestration (Commands/Queries/Sagas)
// - Infrastructure: repositories, caches, external clients
// - Interface: the REST API
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/regen-hub/regenmon-hub/config"

	// Application layer
	"github.com/regen-hub/regenmon-hub/internal/application/command"
	"github.com/regen-hub/regenmon-hub/internal/application/eventhandler"
	"github.com/regen-hub/regenmon-hub/internal/application/query"
	"github.com/regen-hub/regenmon-hub/internal/application/saga"

	// Domain layer
	"github.com/regen-hub/regenmon-hub/internal/domain/creature"
	"github.com/regen-hub/regenmon-hub/internal/domain/leaderboard"
	"github.com/regen-hub/regenmon-hub/internal/domain/notification"
	"github.com/regen-hub/regenmon-hub/internal/domain/social"

	// Infrastructure layer
	"github.com/regen-hub/regenmon-hub/internal/infrastructure/external/ai"
	"github.com/regen-hub/regenmon-hub/internal/infrastructure/messaging"
	"github.com/regen-hub/regenmon-hub/internal/infrastructure/persistence/postgres"
	"github.com/regen-hub/regenmon-hub/internal/infrastructure/persistence/redis"
	"github.com/regen-hub/regenmon-hub/internal/infrastructure/service"

	// Interface layer
	httpserver "github.com/regen-hub/regenmon-hub/internal/interface/http"
	"github.com/regen-hub/regenmon-hub/internal/interface/http/handlers"

	// Packages
	"github.com/regen-hub/regenmon-hub/pkg/logger"

	"github.com/google/uuid"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting Regenmon Hub API server",
		"env", cfg.App.Environment,
		"debug", cfg.App.Debug,
		"version", cfg.App.Version,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE (PostgreSQL/Supabase)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. MIGRATIONS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("running database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	status, err := migrator.Status(ctx)
	if err != nil {
		log.Warn("failed to get migration status", "error", err)
	} else {
		applied := 0
		for _, m := range status {
			if m.IsApplied {
				applied++
			}
		}
		log.Info("migrations completed", "applied", applied, "total", len(status))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		redisCache       *redis.Cache
		creatureCache    *redis.CreatureCache
		leaderboardCache *redis.LeaderboardCache
		trainingLimiter  *redis.TrainingLimiter
	)

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			creatureCache = redis.NewCreatureCache(redisCache)
			leaderboardCache = redis.NewLeaderboardCache(redisCache)
			trainingLimiter = redis.NewTrainingLimiter(redisCache, cfg.Economy.DailyTrainingLimit, 24*time.Hour)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	creatureRepo := postgres.NewCreatureRepository(dbConn)
	ledgerRepo := postgres.NewLedgerRepository(dbConn)
	leaderboardRepo := postgres.NewLeaderboardRepository(dbConn)
	statsRepo := postgres.NewStatsRepository(dbConn)
	trainingRepo := postgres.NewTrainingRepository(dbConn)
	notificationRepo := postgres.NewNotificationRepository(dbConn)
	messageRepo := postgres.NewMessageRepository(dbConn)
	visitRepo := postgres.NewVisitRepository(dbConn)
	interactionRepo := postgres.NewInteractionRepository(dbConn)
	uowFactory := postgres.NewUnitOfWorkFactory(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. EVENT BUS & DISPATCHER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log
	busConfig.AsyncMode = true
	eventBus := messaging.NewInMemoryEventBus(busConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	dispatcher := messaging.NewDispatcherBuilder(eventBus).
		WithLogger(log).
		WithDeadLetterQueue(1000).
		Build()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. EXTERNAL CLIENTS (model gateway)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing model gateway client...")
	aiConfig := ai.DefaultClientConfig(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model)
	aiConfig.MaxTokens = cfg.AI.MaxTokens
	aiConfig.Timeout = cfg.AI.RequestTimeout
	aiConfig.RateLimiterConfig.RequestsPerSecond = float64(cfg.AI.RateLimit) / 60.0
	aiConfig.RateLimiterConfig.BurstSize = cfg.AI.RateLimitBurst
	aiConfig.RetryConfig.MaxRetries = cfg.AI.MaxRetries
	aiConfig.RetryConfig.InitialBackoff = cfg.AI.RetryBaseDelay
	aiConfig.RetryConfig.MaxBackoff = cfg.AI.RetryMaxDelay
	aiConfig.CircuitBreakerConfig.FailureThreshold = cfg.AI.CircuitBreakerThreshold
	aiConfig.CircuitBreakerConfig.Timeout = cfg.AI.CircuitBreakerTimeout
	aiConfig.CircuitBreakerConfig.HalfOpenMaxRetries = cfg.AI.CircuitBreakerHalfOpenMax
	aiConfig.Logger = log
	aiConfig.Debug = cfg.App.Debug

	aiClient := ai.NewClient(aiConfig)
	evaluator := ai.NewEvaluator(aiClient)
	companion := ai.NewCompanion(aiClient)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. APPLICATION LAYER (Commands, Queries, Sagas)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")

	socialLimits := social.DefaultLimits()
	socialLimits[social.InteractionFeed] = social.Limit{
		PairCooldown: cfg.Economy.FeedCooldown,
		DailyCap:     socialLimits[social.InteractionFeed].DailyCap,
	}
	socialPolicy := social.NewPolicy(socialLimits, interactionRepo)

	// Commands
	syncCmd := command.NewSyncCreatureHandler(uowFactory, eventBus, 0)
	feedCmd := command.NewFeedCreatureHandler(uowFactory, socialPolicy, eventBus)
	reviveCmd := command.NewReviveCreatureHandler(uowFactory, eventBus)
	giftCmd := command.NewGiftTokensHandler(uowFactory, socialPolicy, eventBus)
	messageCmd := command.NewSendMessageHandler(uowFactory, socialPolicy, eventBus)
	visitCmd := command.NewVisitCreatureHandler(uowFactory)
	adjustCmd := command.NewAdjustBalanceHandler(uowFactory, eventBus)
	registerCmd := command.NewRegisterCreatureHandler(creatureRepo, eventBus)
	markReadCmd := command.NewMarkNotificationsReadHandler(notificationRepo)

	trainCmd := command.NewTrainCreatureHandler(uowFactory, evaluator, limiterOrNil(trainingLimiter), eventBus, 0)
	chatCmd := command.NewChatWithCreatureHandler(uowFactory, companion, eventBus)

	// Queries. Caches may be nil: handlers fall through to postgres.
	getCreatureQry := query.NewGetCreatureHandler(uowFactory, leaderboardRepo, eventBus)
	getLeaderboardQry := query.NewGetLeaderboardHandler(leaderboardRepo, lbCacheOrNil(leaderboardCache))
	getRankQry := query.NewGetCreatureRankHandler(leaderboardRepo, lbCacheOrNil(leaderboardCache))
	getTransactionsQry := query.NewGetTransactionsHandler(ledgerRepo)
	getActivityQry := query.NewGetActivityHandler(interactionRepo, messageRepo, visitRepo)
	getProgressQry := query.NewGetDailyProgressHandler(trainingRepo)
	getHubStatsQry := query.NewGetHubStatsHandler(statsRepo)
	getNotificationsQry := query.NewGetNotificationsHandler(notificationRepo)

	// Sagas
	trigger := notification.NewTrigger(uuid.NewString)
	registrationSaga := saga.NewRegistrationSaga(registerCmd, notificationRepo, trigger, leaderboardRepo, log)

	evolutionSaga := saga.NewEvolutionFlowSaga(uowFactory, creatureCacheOrNil(creatureCache), eventBus, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 10. EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("registering event handlers...")

	featureFlags := cfg.Features

	var deliverer notification.Deliverer
	if cfg.HTTP.NotifyWebhookURL != "" && featureFlags.IsEnabledForOwner(config.FeatureExperimentalWebhooks, "") {
		deliverer = service.NewWebhookDeliverer(cfg.HTTP.NotifyWebhookURL, cfg.HTTP.NotifyWebhookTimeout, log)
	} else {
		deliverer = service.NewLogDeliverer(log)
	}

	producer := eventhandler.NewNotificationProducer(creatureRepo, notificationRepo, deliverer, trigger, featureFlags, log)
	for _, et := range producer.EventTypes() {
		if err := dispatcher.Register(et, "notification_producer", producer.Handle); err != nil {
			return fmt.Errorf("failed to register notification producer: %w", err)
		}
	}

	if creatureCache != nil && leaderboardCache != nil {
		invalidator := eventhandler.NewCacheInvalidator(creatureCache, leaderboardCache, log)
		for _, et := range invalidator.EventTypes() {
			if err := dispatcher.Register(et, "cache_invalidator", invalidator.Handle); err != nil {
				return fmt.Errorf("failed to register cache invalidator: %w", err)
			}
		}
	}

	if err := dispatcher.Start(); err != nil {
		return fmt.Errorf("failed to start dispatcher: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	healthChecker := handlers.NewHubHealth(cfg.App.Version)
	healthChecker.Require("database", handlers.PingProbe(dbConn))
	if redisCache != nil {
		healthChecker.Optional("redis", handlers.PingProbe(redisCache))
	}
	if cfg.AI.BaseURL != "" {
		healthChecker.Optional("ai_gateway", func(ctx context.Context) error {
			if !aiClient.IsHealthy(ctx) {
				return errors.New("model gateway unreachable")
			}
			return nil
		})
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 12. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server...")

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.MaxHeaderBytes = cfg.HTTP.MaxHeaderBytes
	httpConfig.EnableCORS = cfg.HTTP.EnableCORS
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpConfig.AdminJWTSecret = cfg.HTTP.AdminJWTSecret
	httpConfig.AdminUsername = cfg.HTTP.AdminUsername
	httpConfig.AdminPasswordHash = cfg.HTTP.AdminPasswordHash
	httpConfig.AdminTokenTTL = cfg.HTTP.AdminTokenTTL

	httpDeps := httpserver.Dependencies{
		SyncCreature:          syncCmd,
		FeedCreature:          feedCmd,
		TrainCreature:         trainCmd,
		ChatCreature:          chatCmd,
		ReviveCreature:        reviveCmd,
		GiftTokens:            giftCmd,
		SendMessage:           messageCmd,
		VisitCreature:         visitCmd,
		AdjustBalance:         adjustCmd,
		MarkNotificationsRead: markReadCmd,
		Registration:          registrationSaga,
		EvolutionFlow:         evolutionSaga,
		GetCreature:           getCreatureQry,
		GetLeaderboard:        getLeaderboardQry,
		GetCreatureRank:       getRankQry,
		GetTransactions:       getTransactionsQry,
		GetActivity:           getActivityQry,
		GetDailyProgress:      getProgressQry,
		GetHubStats:           getHubStatsQry,
		GetNotifications:      getNotificationsQry,
		HealthChecker:         healthChecker,
		Logger:                logger.New(logger.Options{Level: logger.ParseLevel(cfg.Observability.LogLevel)}),
	}

	httpServer := httpserver.NewServer(httpConfig, httpDeps)

	// ─────────────────────────────────────────────────────────────────────────
	// 13. START
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)

	go func() {
		log.Info("starting HTTP server", "address", httpServer.Address())
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	log.Info("Regenmon Hub API server is running", "http_address", httpServer.Address())

	// ─────────────────────────────────────────────────────────────────────────
	// 14. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		log.Error("service error", "error", err)
		return err
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	var shutdownErr error

	log.Info("stopping HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", "error", err)
		shutdownErr = err
	}

	log.Info("stopping event dispatcher...")
	if err := dispatcher.Stop(); err != nil {
		log.Error("failed to stop dispatcher gracefully", "error", err)
		shutdownErr = err
	}

	if shutdownErr != nil {
		log.Warn("shutdown completed with errors")
	} else {
		log.Info("shutdown completed successfully")
	}

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// The OrNil helpers avoid handing a typed nil pointer to an interface field:
// the handlers' nil checks only work on a true nil interface.

func lbCacheOrNil(c *redis.LeaderboardCache) leaderboard.Cache {
	if c == nil {
		return nil
	}
	return c
}

func creatureCacheOrNil(c *redis.CreatureCache) creature.Cache {
	if c == nil {
		return nil
	}
	return c
}

func limiterOrNil(l *redis.TrainingLimiter) command.TrainingLimiter {
	if l == nil {
		return nil
	}
	return l
}

// setupLogger configures structured logging.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}
