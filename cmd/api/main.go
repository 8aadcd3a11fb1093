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

	"github.com/gestionale-crm/crm-api/docs"
	"github.com/gestionale-crm/crm-api/internal/auth"
	"github.com/gestionale-crm/crm-api/internal/config"
	"github.com/gestionale-crm/crm-api/internal/database"
	"github.com/gestionale-crm/crm-api/internal/http/handler"
	"github.com/gestionale-crm/crm-api/internal/http/middleware"
	"github.com/gestionale-crm/crm-api/internal/http/router"
	"github.com/gestionale-crm/crm-api/internal/jobs"
	"github.com/gestionale-crm/crm-api/internal/logger"
	"github.com/gestionale-crm/crm-api/internal/mailer"
	"github.com/gestionale-crm/crm-api/internal/monitoring"
	"github.com/gestionale-crm/crm-api/internal/repository"
	"github.com/gestionale-crm/crm-api/internal/service"
	"github.com/gestionale-crm/crm-api/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// @title Gestionale CRM API
// @version 1.0
// @description CRM for clients, deals, activities, contract expiry reminders, projects and reports

// @contact.name API Support

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token
// @Security BearerAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.String("version", version),
		zap.Int("port", basicCfg.App.Port),
	)

	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	docs.SwaggerInfo.Version = version

	// Secrets come from the environment in development and from Key Vault elsewhere
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Amounts are plain JSON numbers on the wire
	decimal.MarshalJSONWithoutQuotes = true

	sentryEnabled, err := monitoring.InitSentry(&cfg.Monitoring, version, log)
	if err != nil {
		log.Warn("Sentry initialization failed, continuing without it", zap.Error(err))
	}
	if sentryEnabled {
		defer monitoring.Flush()
	}

	var metrics *monitoring.Metrics
	if cfg.Monitoring.MetricsEnabled {
		metrics = monitoring.NewMetrics()
	}

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		log.Info("Database schema migrated")
	}

	archive, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		log.Warn("Report archive storage unavailable, archiving disabled", zap.Error(err))
		archive = nil
	} else {
		log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))
	}

	// Redis backs the job lock when several replicas run the scheduler
	var rdb redis.UniversalClient
	var locker jobs.Locker = jobs.NewLocalLocker()
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Warn("Redis unreachable, job lock falls back to in-process", zap.Error(err))
			_ = rdb.Close()
			rdb = nil
		} else {
			locker = jobs.NewRedisLocker(rdb)
			log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr))
		}
	}

	clock := service.NewClock(cfg.App.Location())
	mail := mailer.New(&cfg.Mail, log)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	clientRepo := repository.NewClientRepository(db)
	dealRepo := repository.NewDealRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	collaboratorRepo := repository.NewCollaboratorRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)

	// Services
	userService := service.NewUserService(userRepo, clock, log)
	clientService := service.NewClientService(clientRepo, log)
	dealService := service.NewDealService(dealRepo, clientRepo, log)
	activityService := service.NewActivityService(activityRepo, log)
	notificationService := service.NewNotificationService(notificationRepo, clientRepo, userRepo, mail, clock, &cfg.Notifications, log)
	projectService := service.NewProjectService(projectRepo, clientRepo, log)
	collaboratorService := service.NewCollaboratorService(collaboratorRepo, log)
	assignmentService := service.NewAssignmentService(assignmentRepo, projectRepo, collaboratorRepo, log)
	dashboardService := service.NewDashboardService(clientRepo, dealRepo, activityRepo, notificationService, clock, log)
	reportService := service.NewReportService(clientRepo, dealRepo, activityRepo, archive, clock, cfg.Notifications.TrendMonths, cfg.App.Name, log)

	// Middleware
	authMiddleware := auth.NewMiddleware(&cfg.Auth, userService, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	rt := router.NewRouter(cfg, log, authMiddleware, rateLimiter, metrics, router.Handlers{
		Health:       handler.NewHealthHandler(db, rdb, version, log),
		Auth:         handler.NewAuthHandler(userService, log),
		Client:       handler.NewClientHandler(clientService, notificationService, log),
		Deal:         handler.NewDealHandler(dealService, log),
		Activity:     handler.NewActivityHandler(activityService, log),
		Notification: handler.NewNotificationHandler(notificationService, log),
		Project:      handler.NewProjectHandler(projectService, assignmentService, log),
		Collaborator: handler.NewCollaboratorHandler(collaboratorService, log),
		Assignment:   handler.NewAssignmentHandler(assignmentService, log),
		Dashboard:    handler.NewDashboardHandler(dashboardService, log),
		Report:       handler.NewReportHandler(reportService, log),
	})

	// Background jobs
	var scheduler *jobs.Scheduler
	if cfg.Notifications.JobsEnabled {
		scheduler = jobs.NewScheduler(log)
		job := jobs.NewNotificationJob(
			notificationService,
			locker,
			metrics,
			log,
			cfg.Notifications.JobTimeoutDuration(),
			cfg.Redis.LockTTLDuration(),
		)
		if err := job.Register(
			scheduler,
			cfg.Notifications.GenerateCron,
			cfg.Notifications.DeliveryCron,
			cfg.Notifications.PendingRefreshCron,
			mail.Enabled(),
		); err != nil {
			return fmt.Errorf("failed to register notification jobs: %w", err)
		}
		scheduler.Start()
		log.Info("Scheduler started", zap.Strings("jobs", scheduler.JobNames()))

		// Catch up on reminders that became due while the service was down
		go job.Generate()
	} else {
		log.Info("Notification jobs disabled")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           rt.Setup(),
		ReadTimeout:       cfg.Server.ReadTimeoutDuration(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			<-scheduler.Stop().Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if rdb != nil {
			if err := rdb.Close(); err != nil {
				log.Warn("Error closing redis client", zap.Error(err))
			}
		}
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
