package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/routewise/routewise/internal/config"
	"github.com/routewise/routewise/internal/models"
	"github.com/routewise/routewise/pkg/logger"
	"gorm.io/gorm"
)

// Complexity half-width used when inferring a pattern from accumulated
// decisions.
const inferredComplexitySpread = 0.15

// FeedbackService applies recorded outcomes back into the pattern store
// and performance tracker. It runs behind the task queue: inline when
// Redis is disabled, on the asynq worker otherwise.
type FeedbackService struct {
	db          *gorm.DB
	routing     *config.RoutingManager
	patterns    *PatternService
	performance *PerformanceService
}

func NewFeedbackService(db *gorm.DB, routing *config.RoutingManager) *FeedbackService {
	return &FeedbackService{
		db:          db,
		routing:     routing,
		patterns:    NewPatternService(db, routing),
		performance: NewPerformanceService(db),
	}
}

// Apply processes one feedback task. The decision row is the source of
// truth, so reprocessing after a retry converges on the same state except
// for pattern counters, which asynq's retry budget bounds.
func (s *FeedbackService) Apply(ctx context.Context, task *OutcomeTask) error {
	var decision models.RoutingDecision
	err := s.db.WithContext(ctx).
		Where("decision_id = ?", task.DecisionID).
		First(&decision).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Warnf("[Feedback] Decision %s vanished, dropping task", task.DecisionID)
		return nil
	}
	if err != nil {
		return err
	}
	if !decision.OutcomeRecorded {
		return nil
	}

	outcome := outcomeFromDecision(&decision)

	if err := s.performance.Update(decision.WalletAddress, decision.SelectedModel,
		decision.SelectedProvider, decision.TaskType, outcome); err != nil {
		return fmt.Errorf("update performance: %w", err)
	}

	return s.applyToPatterns(&decision, outcome)
}

// applyToPatterns updates the matching pattern's counters, or attempts to
// infer a new pattern when none matches yet.
func (s *FeedbackService) applyToPatterns(decision *models.RoutingDecision, outcome *Outcome) error {
	pattern, err := s.patterns.Match(&PatternQuery{
		WalletAddress: decision.WalletAddress,
		TaskType:      decision.TaskType,
		ComplexityMin: decision.ComplexityScore,
		ComplexityMax: decision.ComplexityScore,
		ContextLength: decision.ContextLength,
	})
	if err == nil {
		return s.patterns.UpdateStats(pattern.PatternID, outcome.WasSuccessful,
			outcome.ActualCost, outcome.ResponseQuality)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if outcome.WasSuccessful {
		return s.inferPattern(decision)
	}
	return nil
}

// inferPattern creates an "inferred" pattern once enough successful
// decisions for the same wallet, task type and model cluster around this
// decision's complexity.
func (s *FeedbackService) inferPattern(decision *models.RoutingDecision) error {
	minSamples := s.routing.Current().PatternMinSamples

	lo := clamp01(decision.ComplexityScore - inferredComplexitySpread)
	hi := clamp01(decision.ComplexityScore + inferredComplexitySpread)

	var similar int64
	err := s.db.Model(&models.RoutingDecision{}).
		Where("wallet_address = ? AND task_type = ? AND selected_model = ?",
			decision.WalletAddress, decision.TaskType, decision.SelectedModel).
		Where("outcome_recorded = ? AND was_successful = ?", true, true).
		Where("complexity_score >= ? AND complexity_score <= ?", lo, hi).
		Count(&similar).Error
	if err != nil {
		return err
	}
	if similar < int64(minSamples) {
		return nil
	}

	created, err := s.patterns.Create(&CreatePatternRequest{
		WalletAddress: decision.WalletAddress,
		TaskType:      decision.TaskType,
		PatternType:   "inferred",
		Description: fmt.Sprintf("%d similar %s tasks succeeded on %s",
			similar, decision.TaskType, decision.SelectedModel),
		ComplexityMin:       lo,
		ComplexityMax:       hi,
		RecommendedModel:    decision.SelectedModel,
		RecommendedProvider: decision.SelectedProvider,
	})
	if err != nil {
		return fmt.Errorf("infer pattern: %w", err)
	}

	// Seed the counters from the observed history in one shot.
	err = s.db.Model(&models.Pattern{}).
		Where("pattern_id = ?", created.PatternID).
		Updates(map[string]interface{}{
			"success_count": int(similar),
			"confidence":    Confidence(int(similar), 0, minSamples),
		}).Error
	if err != nil {
		return err
	}

	logger.Info().
		Str("wallet", decision.WalletAddress).
		Str("task_type", decision.TaskType).
		Str("model", decision.SelectedModel).
		Int64("samples", similar).
		Msg("inferred routing pattern")
	return nil
}
