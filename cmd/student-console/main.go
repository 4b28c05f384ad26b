package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/student-console/api/swagger"
	"github.com/noah-isme/student-console/internal/client"
	"github.com/noah-isme/student-console/internal/handler"
	"github.com/noah-isme/student-console/internal/repository"
	"github.com/noah-isme/student-console/internal/service"
	"github.com/noah-isme/student-console/pkg/cache"
	"github.com/noah-isme/student-console/pkg/config"
	"github.com/noah-isme/student-console/pkg/database"
	"github.com/noah-isme/student-console/pkg/jobs"
	"github.com/noah-isme/student-console/pkg/logger"
	"github.com/noah-isme/student-console/pkg/observability"
)

// @title Student Console
// @version 1.0.0
// @description Server-rendered management console for the student records service
// @BasePath /
// @schemes http

const (
	sweepInterval   = 5 * time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	flush, err := observability.InitSentry(cfg.Sentry.DSN, cfg.Env, cfg.Release)
	if err != nil {
		logr.Warn("sentry disabled", zap.Error(err))
	}
	defer flush()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("console stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	metrics := service.NewMetricsService()
	checks := map[string]handler.ReadinessCheck{}

	var states service.StateRepository
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		rdb, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		redisStates := repository.NewRedisStateRepository(rdb, cache.SessionKeyPrefix, logr)
		defer redisStates.Close() //nolint:errcheck
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		states = redisStates
	default:
		memory := repository.NewMemoryStateRepository(repository.WithMaxEntries(cfg.Session.MaxEntries))
		go sweepSessions(ctx, memory, logr)
		states = memory
	}

	students := client.NewStudentClient(cfg.Backend, &http.Client{Timeout: cfg.Backend.Timeout}, metrics, logr)

	validate := validator.New()
	if err := service.RegisterStudentRules(validate, time.Now); err != nil {
		return fmt.Errorf("register validation rules: %w", err)
	}

	forms := service.NewFormService(students, validate, logr)
	table := service.NewTableService(students, logr)
	sessions := service.NewSessionService(states, metrics, cfg.Session.TTL, logr)

	exports := service.NewExportService(students, metrics, logr)
	analytics := service.NewAnalyticsService(students, exports, logr)
	handlers := handler.Handlers{
		Students:  handler.NewStudentAPIHandler(students, forms),
		Analytics: handler.NewAnalyticsHandler(analytics),
		Exports:   handler.NewExportHandler(exports, analytics),
	}

	var (
		audit      service.AuditRecorder
		auditQueue *jobs.Queue
	)
	if cfg.Audit.Enabled {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close() //nolint:errcheck

		auditRepo := repository.NewAuditRepository(db)
		if err := auditRepo.EnsureSchema(ctx); err != nil {
			return err
		}
		auditSvc := service.NewAuditService(auditRepo, metrics, logr)
		auditQueue = jobs.NewQueue("audit", auditSvc.Handle, jobs.QueueConfig{
			Workers:    cfg.Audit.Workers,
			MaxRetries: cfg.Audit.Retries,
			RetryDelay: cfg.Audit.RetryDelay,
			Logger:     logr,
		})
		auditSvc.UseQueue(auditQueue)
		auditQueue.Start(context.Background())

		audit = auditSvc
		checks["postgres"] = auditRepo.Ping
		handlers.Audit = handler.NewAuditHandler(auditRepo)
	}

	console := service.NewConsoleService(sessions, forms, table, students, audit, logr)
	console.OnRefresh(func(context.Context, *service.Console) error {
		metrics.RecordRefresh()
		return nil
	})
	handlers.Console = handler.NewConsoleHandler(console, logr)
	handlers.Metrics = handler.NewMetricsHandler(metrics, checks)

	router, err := handler.NewRouter(cfg, handlers, metrics, logr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logr.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("backend", cfg.Backend.BaseURL),
			zap.String("session_store", cfg.Session.Store),
			zap.Bool("audit", cfg.Audit.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown", zap.Error(err))
	}
	if auditQueue != nil {
		if err := auditQueue.Stop(shutdownCtx); err != nil {
			logr.Warn("audit queue did not drain", zap.Error(err))
		}
	}
	return nil
}

func sweepSessions(ctx context.Context, repo *repository.MemoryStateRepository, logr *zap.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	var evicted uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := repo.Sweep(); n > 0 {
				logr.Debug("expired sessions removed", zap.Int("count", n), zap.Int("remaining", repo.Len()))
			}
			if total := repo.Evicted(); total > evicted {
				logr.Warn("session store full, live sessions evicted", zap.Uint64("count", total-evicted))
				evicted = total
			}
		}
	}
}
