package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-lms/internal/clock"
	"github.com/stemsi/exstem-lms/internal/config"
	"github.com/stemsi/exstem-lms/internal/database"
	"github.com/stemsi/exstem-lms/internal/handler"
	"github.com/stemsi/exstem-lms/internal/logger"
	"github.com/stemsi/exstem-lms/internal/middleware"
	"github.com/stemsi/exstem-lms/internal/payment"
	"github.com/stemsi/exstem-lms/internal/repository"
	"github.com/stemsi/exstem-lms/internal/router"
	"github.com/stemsi/exstem-lms/internal/service"
	"github.com/stemsi/exstem-lms/internal/validator"
	"github.com/stemsi/exstem-lms/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.Setup("info", "json")
		bootLog.Fatal().Err(err).Msg("Invalid configuration")
	}

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("exam_timezone", cfg.Location.String()).
		Dur("publication_delay", cfg.PublicationDelay).
		Msg("Starting ExStem LMS exam engine")

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
	txManager := database.NewTxManager(pool)
	examRepo := repository.NewExamRepository(pool)
	courseRepo := repository.NewCourseRepository(pool)
	enrollmentRepo := repository.NewEnrollmentRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	scheduleRepo := repository.NewScheduleRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	answerRepo := repository.NewAnswerRepository(pool)
	missedRepo := repository.NewMissedExamRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	certificateRepo := repository.NewCertificateRepository(pool)
	achievementRepo := repository.NewAchievementRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	clk := clock.Real{}
	window := service.NewWindowEvaluator(cfg.Location)
	publicationQueue := worker.NewPublicationQueue(rdb)

	authService := service.NewAuthService(cfg, rdb)
	examService := service.NewExamService(examRepo, courseRepo, questionRepo, log)
	achievementService := service.NewAchievementService(achievementRepo, clk, log)
	certificateService := service.NewCertificateService(certificateRepo, clk, log)
	scheduleService := service.NewScheduleService(
		txManager, examRepo, scheduleRepo, attemptRepo, enrollmentRepo,
		achievementService, window, clk, log,
	)
	attemptService := service.NewAttemptService(
		txManager, examRepo, questionRepo, scheduleRepo, attemptRepo, answerRepo,
		publicationQueue, window, clk, cfg.PublicationDelay, log,
	)
	publicationService := service.NewPublicationService(
		txManager, examRepo, attemptRepo, achievementService, certificateService,
		service.NewRedisResultNotifier(rdb), clk, log,
	)
	reExamService := service.NewReExamService(
		txManager, examRepo, attemptRepo, paymentRepo, payment.NewOfflineProcessor(log),
		attemptService, cfg.ReExamFee, log,
	)
	missedExamService := service.NewMissedExamService(
		txManager, examRepo, enrollmentRepo, scheduleRepo, attemptRepo, missedRepo, window, clk, log,
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth: handler.NewAuthHandler(authService, log),
		Student: handler.NewStudentHandler(
			scheduleService, attemptService, missedExamService, reExamService,
			certificateService, achievementService, log,
		),
		Exam:     handler.NewExamHandler(examService, log),
		Schedule: handler.NewScheduleHandler(scheduleService, missedExamService, log),
		Grading:  handler.NewGradingHandler(attemptService, log),
		Admin:    handler.NewAdminHandler(scheduleService, publicationService, log),
		WS:       handler.NewWSHandler(rdb, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})

	publicationWorker := worker.NewPublicationWorker(
		publicationQueue, publicationService, clk,
		cfg.PublicationPollInterval, cfg.PublicationSweepInterval, log,
	)
	go func() {
		defer close(workerDone)
		publicationWorker.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	var limiter *middleware.RateLimiter
	if cfg.RateLimitPerMinute > 0 {
		limiter = middleware.NewRateLimiter(ctx, cfg.RateLimitPerMinute, time.Minute)
	}
	r := router.SetupRouter(authService, handlers, limiter, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	// 2. Stop the publication worker. Queue entries survive in Redis.
	workerCancel()
	select {
	case <-workerDone:
	case <-time.After(5 * time.Second):
		log.Warn().Msg("Publication worker did not stop in time")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
