package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/routewise/routewise/internal/config"
	"github.com/routewise/routewise/internal/services"
	"github.com/routewise/routewise/pkg/logger"
	"github.com/routewise/routewise/pkg/response"
	"gorm.io/gorm"
)

// RouteHandler serves the routing endpoints used by agent callers.
type RouteHandler struct {
	analyzer    *services.AnalyzerService
	selector    *services.SelectorService
	decisions   *services.DecisionService
	quotas      *services.QuotaService
	completions *services.CompletionService
	routing     *config.RoutingManager
}

func NewRouteHandler(db *gorm.DB, routing *config.RoutingManager, queue services.TaskQueue, completions *services.CompletionService) *RouteHandler {
	return &RouteHandler{
		analyzer:    services.NewAnalyzerService(),
		selector:    services.NewSelectorService(db, routing),
		decisions:   services.NewDecisionService(db, queue),
		quotas:      services.NewQuotaService(db),
		completions: completions,
		routing:     routing,
	}
}

type RouteRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required"`
	Prompt        string `json:"prompt" binding:"required"`
	Context       string `json:"context"`
}

type RouteResponse struct {
	DecisionID string                 `json:"decision_id"`
	Selection  *services.Selection    `json:"selection"`
	Analysis   *services.TaskAnalysis `json:"analysis"`
	Quota      *services.QuotaStatus  `json:"quota"`
}

// Route analyzes a prompt and returns the selected model without calling
// any provider.
// POST /api/route
func (h *RouteHandler) Route(c *gin.Context) {
	var req RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.route(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}

// route runs the shared analyze-select-record-increment pipeline.
func (h *RouteHandler) route(req *RouteRequest) (*RouteResponse, error) {
	status, err := h.quotas.CheckAvailable(req.WalletAddress)
	if err != nil {
		return nil, err
	}
	if !status.Available {
		return nil, response.NewTooManyRequests("daily decision quota exhausted")
	}

	analysis := h.analyzer.Analyze(req.Prompt, req.Context)

	selection, err := h.selector.Select(analysis, req.WalletAddress)
	if err != nil {
		return nil, response.NewServerError(err.Error())
	}

	decision, err := h.decisions.RecordSelection(req.WalletAddress, analysis, selection)
	if err != nil {
		return nil, err
	}

	if err := h.quotas.Increment(req.WalletAddress); err != nil {
		logger.Warnf("[Route] Failed to increment quota for %s: %v", req.WalletAddress, err)
	}

	services.LogInfo("Route", "Select", "Routed to "+selection.Model, req.WalletAddress, map[string]interface{}{
		"decision_id": decision.DecisionID,
		"task_type":   analysis.TaskType,
		"complexity":  analysis.ComplexityScore,
	})

	return &RouteResponse{
		DecisionID: decision.DecisionID,
		Selection:  selection,
		Analysis:   analysis,
		Quota:      status,
	}, nil
}

type RouteCompleteResponse struct {
	DecisionID string                     `json:"decision_id"`
	Selection  *services.Selection        `json:"selection"`
	Analysis   *services.TaskAnalysis     `json:"analysis"`
	Completion *services.CompletionResult `json:"completion"`
	ActualCost float64                    `json:"actual_cost"`
}

// RouteAndComplete routes the prompt, relays it to the selected provider
// and records the outcome in one call.
// POST /api/route/complete
func (h *RouteHandler) RouteAndComplete(c *gin.Context) {
	var req RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	routed, err := h.route(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.completions.Complete(c.Request.Context(), &services.CompletionRequest{
		Provider: routed.Selection.Provider,
		Model:    routed.Selection.Model,
		Prompt:   req.Prompt,
		Context:  req.Context,
	})
	if err != nil {
		// The decision stands; record the failure so the feedback loop
		// learns from it.
		if recErr := h.decisions.RecordOutcome(routed.DecisionID, &services.Outcome{
			WasSuccessful: false,
		}); recErr != nil {
			logger.Warnf("[Route] Failed to record failed outcome for %s: %v", routed.DecisionID, recErr)
		}
		response.Error(c, response.NewServerError("completion failed: "+err.Error()))
		return
	}

	actualCost := h.actualCost(routed.Selection.Provider, routed.Selection.Model, result)

	// The caller never saw the response, so quality defaults to neutral
	// until an explicit outcome overwrites it.
	outcome := &services.Outcome{
		WasSuccessful:   true,
		ActualTokens:    result.PromptTokens + result.CompletionTokens,
		ActualCost:      actualCost,
		ResponseQuality: 0.5,
		ResponseTimeMs:  result.LatencyMs,
	}
	if err := h.decisions.RecordOutcome(routed.DecisionID, outcome); err != nil {
		logger.Warnf("[Route] Failed to record outcome for %s: %v", routed.DecisionID, err)
	}

	response.Success(c, &RouteCompleteResponse{
		DecisionID: routed.DecisionID,
		Selection:  routed.Selection,
		Analysis:   routed.Analysis,
		Completion: result,
		ActualCost: actualCost,
	})
}

// actualCost prices the real token usage against the routing pricing table.
func (h *RouteHandler) actualCost(provider, model string, result *services.CompletionResult) float64 {
	pricing, ok := h.routing.Current().PricingFor(provider, model)
	if !ok {
		return 0
	}
	return float64(result.PromptTokens)/1000*pricing.PromptPer1K +
		float64(result.CompletionTokens)/1000*pricing.CompletionPer1K
}
