package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/routewise/routewise/internal/models"
	"github.com/routewise/routewise/pkg/logger"
	"gorm.io/gorm"
)

// Outcome is the observed result of the downstream model call for one
// decision.
type Outcome struct {
	WasSuccessful   bool    `json:"was_successful"`
	ActualTokens    int     `json:"actual_tokens"`
	ActualCost      float64 `json:"actual_cost"`
	ResponseQuality float64 `json:"response_quality"`
	ResponseTimeMs  int64   `json:"response_time_ms"`
}

// DecisionService persists routing decisions and their eventual outcomes,
// closing the feedback loop into the pattern store and performance
// tracker through the task queue.
type DecisionService struct {
	db    *gorm.DB
	queue TaskQueue
}

func NewDecisionService(db *gorm.DB, queue TaskQueue) *DecisionService {
	return &DecisionService{db: db, queue: queue}
}

// RecordSelection persists a fresh decision for the wallet.
func (s *DecisionService) RecordSelection(wallet string, analysis *TaskAnalysis, selection *Selection) (*models.RoutingDecision, error) {
	decision := models.RoutingDecision{
		DecisionID:       uuid.NewString(),
		WalletAddress:    wallet,
		TaskType:         analysis.TaskType,
		ComplexityScore:  analysis.ComplexityScore,
		EstimatedTokens:  analysis.EstimatedTokens,
		ContextLength:    analysis.ContextLength,
		HasCode:          analysis.HasCode,
		HasErrors:        analysis.HasErrors,
		HasData:          analysis.HasData,
		SelectedModel:    selection.Model,
		SelectedProvider: selection.Provider,
		SelectionReason:  selection.Reason,
		ConfidenceScore:  selection.Confidence,
		EstimatedCost:    selection.EstimatedCost,
	}
	if err := decision.SetAlternatives(selection.Alternatives); err != nil {
		return nil, err
	}

	if err := s.db.Create(&decision).Error; err != nil {
		return nil, err
	}
	return &decision, nil
}

// Get returns a decision by its public id.
func (s *DecisionService) Get(decisionID string) (*models.RoutingDecision, error) {
	var decision models.RoutingDecision
	if err := s.db.Where("decision_id = ?", decisionID).First(&decision).Error; err != nil {
		return nil, err
	}
	return &decision, nil
}

// RecordOutcome overwrites the decision's outcome fields (last write wins)
// and enqueues the feedback task that updates patterns and performance.
// Recording a second outcome replaces the first rather than accumulating.
func (s *DecisionService) RecordOutcome(decisionID string, outcome *Outcome) error {
	result := s.db.Model(&models.RoutingDecision{}).
		Where("decision_id = ?", decisionID).
		Updates(map[string]interface{}{
			"outcome_recorded": true,
			"was_successful":   outcome.WasSuccessful,
			"actual_tokens":    outcome.ActualTokens,
			"actual_cost":      outcome.ActualCost,
			"response_quality": outcome.ResponseQuality,
			"response_time_ms": outcome.ResponseTimeMs,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("decision %s: %w", decisionID, gorm.ErrRecordNotFound)
	}

	if s.queue != nil {
		if err := s.queue.Enqueue(&OutcomeTask{DecisionID: decisionID}); err != nil {
			// The decision row already holds the outcome; feedback can be
			// replayed, so a queue failure is not fatal.
			logger.Warn().Err(err).Str("decision_id", decisionID).Msg("failed to enqueue feedback task")
		}
	}
	return nil
}

type DecisionListRequest struct {
	Page          int    `form:"page" binding:"min=0"`
	PageSize      int    `form:"page_size" binding:"min=0,max=100"`
	WalletAddress string `form:"wallet_address"`
	TaskType      string `form:"task_type"`
	Model         string `form:"model"`
	StartDate     string `form:"start_date"`
	EndDate       string `form:"end_date"`
}

type DecisionListResponse struct {
	Total    int64                    `json:"total"`
	Page     int                      `json:"page"`
	PageSize int                      `json:"page_size"`
	Items    []models.RoutingDecision `json:"items"`
}

// List returns paginated decisions, newest first.
func (s *DecisionService) List(req *DecisionListRequest) (*DecisionListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	var decisions []models.RoutingDecision
	var total int64

	query := s.db.Model(&models.RoutingDecision{})
	if req.WalletAddress != "" {
		query = query.Where("wallet_address = ?", req.WalletAddress)
	}
	if req.TaskType != "" {
		query = query.Where("task_type = ?", req.TaskType)
	}
	if req.Model != "" {
		query = query.Where("selected_model = ?", req.Model)
	}
	if req.StartDate != "" {
		query = query.Where("created_at >= ?", req.StartDate)
	}
	if req.EndDate != "" {
		query = query.Where("created_at <= ?", req.EndDate+" 23:59:59")
	}

	query.Count(&total)

	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("created_at DESC").Find(&decisions).Error; err != nil {
		return nil, err
	}

	return &DecisionListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    decisions,
	}, nil
}

// outcomeFromDecision reconstructs the Outcome embedded in a decision row.
func outcomeFromDecision(d *models.RoutingDecision) *Outcome {
	out := &Outcome{}
	if d.WasSuccessful != nil {
		out.WasSuccessful = *d.WasSuccessful
	}
	if d.ActualTokens != nil {
		out.ActualTokens = *d.ActualTokens
	}
	if d.ActualCost != nil {
		out.ActualCost = *d.ActualCost
	}
	if d.ResponseQuality != nil {
		out.ResponseQuality = *d.ResponseQuality
	}
	if d.ResponseTimeMs != nil {
		out.ResponseTimeMs = *d.ResponseTimeMs
	}
	return out
}
