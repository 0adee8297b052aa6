// Package main is the entry point of the Regenmon Hub background worker.
//
// The worker owns everything that runs on a clock rather than on a request:
// leaderboard rebuilds, stale-creature detection, ledger audits and the
// hourly hub stats snapshot behind the admin dashboard.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/regen-hub/regenmon-hub/config"

	"github.com/regen-hub/regenmon-hub/internal/application/eventhandler"
	"github.com/regen-hub/regenmon-hub/internal/domain/leaderboard"
	"github.com/regen-hub/regenmon-hub/internal/domain/notification"
	"github.com/regen-hub/regenmon-hub/internal/infrastructure/messaging"
	"github.com/regen-hub/regenmon-hub/internal/infrastructure/persistence/postgres"
	"github.com/regen-hub/regenmon-hub/internal/infrastructure/persistence/redis"
	"github.com/regen-hub/regenmon-hub/internal/infrastructure/scheduler"
	"github.com/regen-hub/regenmon-hub/internal/infrastructure/scheduler/jobs"
	"github.com/regen-hub/regenmon-hub/internal/infrastructure/service"

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
	// 1. CONFIGURATION & LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)
	log.Info("starting Regenmon Hub worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
	)

	if !cfg.Scheduler.Enabled {
		return fmt.Errorf("scheduler is disabled, nothing to do")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. DATABASE
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// The API server owns migrations. The worker just checks they ran.
	migrator := postgres.NewMigrator(dbConn)
	if status, err := migrator.Status(ctx); err == nil {
		pending := 0
		for _, m := range status {
			if !m.IsApplied {
				pending++
			}
		}
		if pending > 0 {
			log.Warn("pending migrations detected, start the API server first", "pending", pending)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var leaderboardCache *redis.LeaderboardCache

	if !cfg.Redis.Disabled {
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB

		redisCache, err := redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, cache invalidation disabled", "error", err)
		} else {
			defer redisCache.Close()
			leaderboardCache = redis.NewLeaderboardCache(redisCache)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	creatureRepo := postgres.NewCreatureRepository(dbConn)
	ledgerRepo := postgres.NewLedgerRepository(dbConn)
	leaderboardRepo := postgres.NewLeaderboardRepository(dbConn)
	statsRepo := postgres.NewStatsRepository(dbConn)
	trainingRepo := postgres.NewTrainingRepository(dbConn)
	notificationRepo := postgres.NewNotificationRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT BUS
	// Jobs publish domain events; the producer turns the relevant ones
	// into owner notifications (inactivity reminders in particular).
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(busConfig)
	defer eventBus.Close()

	dispatcher := messaging.NewDispatcherBuilder(eventBus).
		WithLogger(log).
		Build()

	featureFlags := cfg.Features

	var deliverer notification.Deliverer
	if cfg.HTTP.NotifyWebhookURL != "" && featureFlags.IsEnabledForOwner(config.FeatureExperimentalWebhooks, "") {
		deliverer = service.NewWebhookDeliverer(cfg.HTTP.NotifyWebhookURL, cfg.HTTP.NotifyWebhookTimeout, log)
	} else {
		deliverer = service.NewLogDeliverer(log)
	}

	trigger := notification.NewTrigger(uuid.NewString)
	producer := eventhandler.NewNotificationProducer(creatureRepo, notificationRepo, deliverer, trigger, featureFlags, log)
	for _, et := range producer.EventTypes() {
		if err := dispatcher.Register(et, "notification_producer", producer.Handle); err != nil {
			return fmt.Errorf("failed to register notification producer: %w", err)
		}
	}

	if err := dispatcher.Start(); err != nil {
		return fmt.Errorf("failed to start dispatcher: %w", err)
	}
	defer dispatcher.Stop()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. JOBS
	// ─────────────────────────────────────────────────────────────────────────
	rebuildConfig := jobs.DefaultRebuildLeaderboardConfig()
	rebuildConfig.Timeout = cfg.Scheduler.JobTimeout
	rebuildJob := jobs.NewRebuildLeaderboardJob(
		creatureRepo, leaderboardRepo, lbCacheOrNil(leaderboardCache), eventBus, log, rebuildConfig)

	inactiveConfig := jobs.DefaultDetectInactiveConfig()
	inactiveConfig.StaleThreshold = cfg.Scheduler.StaleThreshold
	inactiveJob := jobs.NewDetectInactiveJob(creatureRepo, eventBus, log, inactiveConfig)

	auditConfig := jobs.DefaultAuditLedgerConfig()
	auditJob := jobs.NewAuditLedgerJob(creatureRepo, ledgerRepo, log, auditConfig)

	snapshotConfig := jobs.DefaultSnapshotHubStatsConfig()
	snapshotConfig.RetentionDays = cfg.Scheduler.StatsRetentionDays
	snapshotJob := jobs.NewSnapshotHubStatsJob(
		creatureRepo, ledgerRepo, trainingRepo, statsRepo, log, snapshotConfig)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	schedConfig := scheduler.DefaultSchedulerConfig()
	schedConfig.Logger = log
	schedConfig.Timezone = cfg.App.Location
	sched := scheduler.NewScheduler(schedConfig)

	auditSchedule, err := scheduler.ParseCronExpression(cfg.Scheduler.AuditLedgerCron)
	if err != nil {
		return fmt.Errorf("invalid audit cron %q: %w", cfg.Scheduler.AuditLedgerCron, err)
	}
	snapshotSchedule, err := scheduler.ParseCronExpression(cfg.Scheduler.SnapshotStatsCron)
	if err != nil {
		return fmt.Errorf("invalid snapshot cron %q: %w", cfg.Scheduler.SnapshotStatsCron, err)
	}

	registrations := []struct {
		job      scheduler.Job
		schedule scheduler.Schedule
		spec     string
	}{
		{rebuildJob, scheduler.NewIntervalSchedule(cfg.Scheduler.RebuildLeaderboardInterval), cfg.Scheduler.RebuildLeaderboardInterval.String()},
		{inactiveJob, scheduler.NewIntervalSchedule(cfg.Scheduler.DetectInactiveInterval), cfg.Scheduler.DetectInactiveInterval.String()},
		{auditJob, auditSchedule, auditSchedule.String()},
		{snapshotJob, snapshotSchedule, snapshotSchedule.String()},
	}
	for _, r := range registrations {
		if err := sched.Register(r.job, r.schedule); err != nil {
			return fmt.Errorf("failed to register job %s: %w", r.job.Name(), err)
		}
		log.Info("registered job", "name", r.job.Name(), "schedule", r.spec)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	log.Info("Regenmon Hub worker is running", "jobs", len(registrations))

	// ─────────────────────────────────────────────────────────────────────────
	// 8. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	log.Info("stopping scheduler...")
	if err := sched.Stop(); err != nil {
		log.Error("failed to stop scheduler gracefully", "error", err)
		return err
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// lbCacheOrNil avoids handing a typed nil pointer to an interface field.
func lbCacheOrNil(c *redis.LeaderboardCache) leaderboard.Cache {
	if c == nil {
		return nil
	}
	return c
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
