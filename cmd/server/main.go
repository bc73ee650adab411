package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/config"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/database"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/handler"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/logger"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/middleware"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/repository"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/router"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/service"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/validator"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("school_timezone", cfg.SchoolLocation.String()).
		Msg("Starting Catalyst exam and wellbeing backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	examRepo := repository.NewExamRepository(pool, rdb, log)
	sessionRepo := repository.NewExamSessionRepository(pool)
	answerRepo := repository.NewAnswerRepository(pool)
	eventRepo := repository.NewSecurityEventRepository(pool)
	classRepo := repository.NewClassRepository(pool)
	interventionRepo := repository.NewInterventionRepository(pool)
	settingRepo := repository.NewSettingRepository(pool)

	// ─── Queues ────────────────────────────────────────────────────────
	queue := worker.NewRedisQueue(rdb)
	publisher := worker.NewPublisher(queue, worker.DefaultPublisherBuffer, log)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg.JWTSecret)
	sessionService := service.NewExamSessionService(examRepo, sessionRepo, publisher, service.ExamTimings{
		BreathingPause:   cfg.BreathingPause,
		AutosaveInterval: cfg.AutosaveInterval,
		WebcamTimeout:    cfg.WebcamTimeout,
	}, log)
	monitorService := service.NewMonitorService(examRepo, eventRepo, sessionService, service.NewRedisMonitorFeed(rdb), log)
	interventionService := service.NewInterventionService(classRepo, interventionRepo, service.NewRedisSuggestionCache(rdb), cfg.SchoolLocation, cfg.AnalyticsWindowDays, log)
	settingService := service.NewSettingService(settingRepo, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		ExamStream:   handler.NewExamStreamHandler(sessionService, log, cfg.AllowedOrigins),
		Intervention: handler.NewInterventionHandler(interventionService, log),
		Setting:      handler.NewSettingHandler(settingService),
		Monitor:      handler.NewMonitorHandler(monitorService, log),
		Health:       handler.NewHealthHandler(healthChecks(pool, rdb), queue, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	publisherCtx, publisherCancel := context.WithCancel(context.Background())

	autosaveWorker := worker.NewAutosaveWorker(queue, answerRepo, log)
	submissionWorker := worker.NewSubmissionWorker(queue, sessionRepo, log)
	securityEventWorker := worker.NewSecurityEventWorker(queue, eventRepo, log)

	workersDone := make(chan struct{}, 3)
	for _, start := range []func(context.Context){
		autosaveWorker.Start,
		submissionWorker.Start,
		securityEventWorker.Start,
	} {
		go func() {
			start(workerCtx)
			workersDone <- struct{}{}
		}()
	}

	publisherDone := make(chan struct{})
	go func() {
		publisher.Start(publisherCtx)
		close(publisherDone)
	}()

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	go limiter.Run(ctx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, limiter, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Release live sessions so nothing enqueues after the publisher stops.
	sessionService.Shutdown()

	// 3. Flush queued messages to Redis.
	publisherCancel()
	<-publisherDone

	// 4. Stop the workers; each drains its queue before returning.
	workerCancel()
	if !waitFor(workersDone, 3, worker.ShutdownDeadline+2*time.Second) {
		log.Warn().Msg("Workers did not finish draining in time")
	}

	log.Info().Msg("Shutdown complete")
}

// waitFor waits for n signals on done or until the timeout elapses.
func waitFor(done <-chan struct{}, n int, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for range n {
		select {
		case <-done:
		case <-deadline:
			return false
		}
	}
	return true
}

func healthChecks(pool *pgxpool.Pool, rdb *redis.Client) map[string]handler.HealthCheck {
	return map[string]handler.HealthCheck{
		"postgres": pool.Ping,
		"redis": func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
	}
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
