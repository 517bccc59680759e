package main

import (
	"github.com/robfig/cron/v3"
	"github.com/routewise/routewise/internal/config"
	"github.com/routewise/routewise/internal/models"
	"github.com/routewise/routewise/internal/services"
	"github.com/routewise/routewise/internal/utils"
	"github.com/routewise/routewise/pkg/logger"
)

// appServices holds the long-lived services wired together at startup.
type appServices struct {
	routing     *config.RoutingManager
	taskQueue   services.TaskQueue
	worker      *services.Worker
	completions *services.CompletionService
	logCleanup  *cron.Cron
}

// bootstrap initializes all application dependencies: database, routing
// configuration, feedback queue, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize system logger
	services.InitSystemLogger(models.GetDB())

	// Start system log cleanup scheduler
	logCleanup := services.StartLogCleanupScheduler(models.GetDB(), cfg.Log.RetentionDays)

	// Load routing configuration (falls back to built-in defaults when the
	// file is missing)
	routing, err := config.LoadRouting(cfg.Routing.Path)
	if err != nil {
		logger.Fatalf("Failed to load routing configuration: %v", err)
	}

	// Initialize task queue (uses Redis if enabled, otherwise sync mode)
	feedbackService := services.NewFeedbackService(models.GetDB(), routing)
	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(feedbackService.Apply)
	}

	// Start async worker if Redis is enabled
	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.NewWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(feedbackService.Apply)
			worker.Start()
		}
	}

	if cfg.Admin.PasswordHash == "" {
		logger.Warnf("Admin password hash is empty; admin login is disabled until ADMIN_PASSWORD_HASH is set")
	}

	return &appServices{
		routing:     routing,
		taskQueue:   taskQueue,
		worker:      worker,
		completions: services.NewCompletionService(&cfg.Providers),
		logCleanup:  logCleanup,
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	if s.logCleanup != nil {
		s.logCleanup.Stop()
	}
	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
	logger.Info().Msg("All services stopped")
}
