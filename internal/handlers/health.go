package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/routewise/routewise/internal/models"
	"github.com/routewise/routewise/internal/services"
)

// HealthHandler provides the health check endpoint.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	// Database check
	dbStatus := "ok"
	sqlDB, err := models.GetDB().DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	// Queue mode
	taskQueue := services.GetTaskQueue()
	queueMode := "sync"
	if taskQueue != nil && taskQueue.IsAsync() {
		queueMode = "async (Redis)"
	}

	// Decisions still waiting for an outcome
	var pendingCount int64
	models.GetDB().Model(&models.RoutingDecision{}).
		Where("outcome_recorded = ?", false).
		Count(&pendingCount)

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "routewise",
		"components": gin.H{
			"database":         dbStatus,
			"queue_mode":       queueMode,
			"pending_outcomes": pendingCount,
		},
	})
}
