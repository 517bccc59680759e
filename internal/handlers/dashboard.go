package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/routewise/routewise/internal/services"
	"github.com/routewise/routewise/pkg/response"
	"gorm.io/gorm"
)

type DashboardHandler struct {
	dashboard *services.DashboardService
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{
		dashboard: services.NewDashboardService(db),
	}
}

// GetStats returns headline routing statistics.
// GET /api/admin/dashboard/stats
func (h *DashboardHandler) GetStats(c *gin.Context) {
	stats, err := h.dashboard.GetStats(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, stats)
}

// GetDailyTrend returns daily decision volume for charting.
// GET /api/admin/dashboard/trend
func (h *DashboardHandler) GetDailyTrend(c *gin.Context) {
	trend, err := h.dashboard.GetDailyTrend(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, trend)
}

// GetModelBreakdown returns decisions grouped by model.
// GET /api/admin/dashboard/models
func (h *DashboardHandler) GetModelBreakdown(c *gin.Context) {
	breakdown, err := h.dashboard.GetModelBreakdown(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, breakdown)
}

// GetTaskTypeBreakdown returns decisions grouped by task type.
// GET /api/admin/dashboard/task-types
func (h *DashboardHandler) GetTaskTypeBreakdown(c *gin.Context) {
	breakdown, err := h.dashboard.GetTaskTypeBreakdown(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, breakdown)
}
