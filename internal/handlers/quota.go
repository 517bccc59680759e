package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/routewise/routewise/internal/services"
	"github.com/routewise/routewise/pkg/response"
	"gorm.io/gorm"
)

type QuotaHandler struct {
	quotas *services.QuotaService
}

func NewQuotaHandler(db *gorm.DB) *QuotaHandler {
	return &QuotaHandler{
		quotas: services.NewQuotaService(db),
	}
}

// Get returns the wallet's current quota status.
// GET /api/quota/:wallet
func (h *QuotaHandler) Get(c *gin.Context) {
	status, err := h.quotas.CheckAvailable(c.Param("wallet"))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, status)
}

type UpdateTierRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required"`
	Tier          string `json:"tier" binding:"required"`
	PaidUntil     string `json:"paid_until"` // RFC3339, empty means non-expiring
}

// UpdateTier transitions a wallet between free and pro. Called by the
// payment verifier once a transaction is confirmed.
// POST /api/quota/tier
func (h *QuotaHandler) UpdateTier(c *gin.Context) {
	var req UpdateTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	var paidUntil *time.Time
	if req.PaidUntil != "" {
		t, err := time.Parse(time.RFC3339, req.PaidUntil)
		if err != nil {
			response.BadRequest(c, "paid_until must be RFC3339")
			return
		}
		paidUntil = &t
	}

	quota, err := h.quotas.UpdateTier(req.WalletAddress, req.Tier, paidUntil)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	services.LogInfo("Quota", "UpdateTier", "Tier changed to "+req.Tier, req.WalletAddress, nil)
	response.Success(c, quota)
}
