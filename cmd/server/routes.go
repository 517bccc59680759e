package main

import (
	"github.com/gin-gonic/gin"
	"github.com/routewise/routewise/internal/config"
	"github.com/routewise/routewise/internal/handlers"
	"github.com/routewise/routewise/internal/middleware"
	"github.com/routewise/routewise/internal/models"
	"github.com/routewise/routewise/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, cfg *config.Config, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for the public routing endpoints
	routeLimiter := middleware.NewRateLimiter(20, 40)

	// Health check
	healthHandler := handlers.NewHealthHandler()
	r.GET("/health", healthHandler.CheckHealth)

	db := models.GetDB()
	routeHandler := handlers.NewRouteHandler(db, svc.routing, svc.taskQueue, svc.completions)
	decisionHandler := handlers.NewDecisionHandler(db, svc.taskQueue)
	patternHandler := handlers.NewPatternHandler(db, svc.routing)
	quotaHandler := handlers.NewQuotaHandler(db)
	performanceHandler := handlers.NewPerformanceHandler(db)
	authHandler := handlers.NewAuthHandler(cfg)

	// API routes
	api := r.Group("/api")
	{
		// Agent-facing routes (public, wallet-scoped, rate limited)
		public := api.Group("", routeLimiter.Middleware())
		{
			public.POST("/route", routeHandler.Route)
			public.POST("/route/complete", routeHandler.RouteAndComplete)

			public.GET("/decisions/:id", decisionHandler.GetByID)
			public.POST("/decisions/:id/outcome", decisionHandler.RecordOutcome)

			public.GET("/patterns", patternHandler.List)
			public.GET("/patterns/match", patternHandler.Match)
			public.GET("/patterns/:id", patternHandler.GetByID)
			public.POST("/patterns", patternHandler.Create)

			public.GET("/quota/:wallet", quotaHandler.Get)
			public.POST("/quota/tier", quotaHandler.UpdateTier)

			public.GET("/performance/:wallet", performanceHandler.ListByWallet)
		}

		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
		}

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired(), middleware.AuditLog())
		{
			admin.GET("/auth/me", authHandler.GetCurrentUser)
			admin.POST("/auth/logout", authHandler.Logout)

			admin.GET("/decisions", decisionHandler.List)

			dashboardHandler := handlers.NewDashboardHandler(db)
			admin.GET("/dashboard/stats", dashboardHandler.GetStats)
			admin.GET("/dashboard/trend", dashboardHandler.GetDailyTrend)
			admin.GET("/dashboard/models", dashboardHandler.GetModelBreakdown)
			admin.GET("/dashboard/task-types", dashboardHandler.GetTaskTypeBreakdown)

			routingHandler := handlers.NewRoutingHandler(svc.routing)
			admin.GET("/routing", routingHandler.Get)
			admin.POST("/routing/reload", routingHandler.Reload)

			systemLogHandler := handlers.NewSystemLogHandler(db)
			admin.GET("/system-logs", systemLogHandler.List)
			admin.GET("/system-logs/modules", systemLogHandler.GetModules)
		}
	}
}
