package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/routewise/routewise/internal/services"
	"github.com/routewise/routewise/pkg/response"
	"gorm.io/gorm"
)

type DecisionHandler struct {
	decisions *services.DecisionService
}

func NewDecisionHandler(db *gorm.DB, queue services.TaskQueue) *DecisionHandler {
	return &DecisionHandler{
		decisions: services.NewDecisionService(db, queue),
	}
}

// GetByID returns a decision by its public id.
// GET /api/decisions/:id
func (h *DecisionHandler) GetByID(c *gin.Context) {
	decision, err := h.decisions.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "decision not found")
			return
		}
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, decision)
}

type OutcomeRequest struct {
	WasSuccessful   *bool   `json:"was_successful" binding:"required"`
	ActualTokens    int     `json:"actual_tokens" binding:"min=0"`
	ActualCost      float64 `json:"actual_cost" binding:"min=0"`
	ResponseQuality float64 `json:"response_quality" binding:"min=0,max=1"`
	ResponseTimeMs  int64   `json:"response_time_ms" binding:"min=0"`
}

// RecordOutcome stores the observed result for a decision. Repeated calls
// overwrite the previous outcome.
// POST /api/decisions/:id/outcome
func (h *DecisionHandler) RecordOutcome(c *gin.Context) {
	var req OutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	outcome := &services.Outcome{
		WasSuccessful:   *req.WasSuccessful,
		ActualTokens:    req.ActualTokens,
		ActualCost:      req.ActualCost,
		ResponseQuality: req.ResponseQuality,
		ResponseTimeMs:  req.ResponseTimeMs,
	}

	if err := h.decisions.RecordOutcome(c.Param("id"), outcome); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "decision not found")
			return
		}
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, gin.H{"recorded": true})
}

// List returns paginated decisions for the admin dashboard.
// GET /api/admin/decisions
func (h *DecisionHandler) List(c *gin.Context) {
	var req services.DecisionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.decisions.List(&req)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, resp)
}
