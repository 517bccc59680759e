package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/routewise/routewise/internal/services"
	"github.com/routewise/routewise/pkg/response"
	"gorm.io/gorm"
)

type PerformanceHandler struct {
	performance *services.PerformanceService
}

func NewPerformanceHandler(db *gorm.DB) *PerformanceHandler {
	return &PerformanceHandler{
		performance: services.NewPerformanceService(db),
	}
}

// ListByWallet returns per-model performance rows for a wallet.
// GET /api/performance/:wallet
func (h *PerformanceHandler) ListByWallet(c *gin.Context) {
	rows, err := h.performance.ListByWallet(c.Param("wallet"))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, rows)
}
