package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/routewise/routewise/internal/config"
	"github.com/routewise/routewise/internal/models"
	"gorm.io/gorm"
)

// PatternService manages learned routing rules. Patterns are created
// explicitly or inferred by the feedback worker once enough similar
// decisions accumulate; they are updated on every relevant outcome and
// never auto-deleted.
type PatternService struct {
	db      *gorm.DB
	routing *config.RoutingManager
}

func NewPatternService(db *gorm.DB, routing *config.RoutingManager) *PatternService {
	return &PatternService{db: db, routing: routing}
}

type CreatePatternRequest struct {
	WalletAddress       string   `json:"wallet_address" binding:"required"`
	TaskType            string   `json:"task_type" binding:"required"`
	Description         string   `json:"description"`
	PatternType         string   `json:"pattern_type"`
	ComplexityMin       float64  `json:"complexity_min"`
	ComplexityMax       float64  `json:"complexity_max"`
	ContextMin          int      `json:"context_min"`
	ContextMax          int      `json:"context_max"`
	Keywords            []string `json:"keywords"`
	RecommendedModel    string   `json:"recommended_model" binding:"required"`
	RecommendedProvider string   `json:"recommended_provider"`
}

// Create inserts a new pattern rule.
func (s *PatternService) Create(req *CreatePatternRequest) (*models.Pattern, error) {
	if req.WalletAddress == "" || req.TaskType == "" {
		return nil, fmt.Errorf("wallet_address and task_type are required")
	}
	if req.ComplexityMin < 0 || req.ComplexityMax > 1 || req.ComplexityMin >= req.ComplexityMax {
		return nil, fmt.Errorf("invalid complexity range [%.2f, %.2f]", req.ComplexityMin, req.ComplexityMax)
	}
	if req.ContextMax > 0 && req.ContextMin > req.ContextMax {
		return nil, fmt.Errorf("invalid context range [%d, %d]", req.ContextMin, req.ContextMax)
	}
	if req.RecommendedModel == "" {
		return nil, fmt.Errorf("recommended_model is required")
	}

	patternType := req.PatternType
	if patternType == "" {
		patternType = "manual"
	}

	pattern := models.Pattern{
		PatternID:           uuid.NewString(),
		WalletAddress:       req.WalletAddress,
		PatternType:         patternType,
		Description:         req.Description,
		TaskType:            req.TaskType,
		ComplexityMin:       req.ComplexityMin,
		ComplexityMax:       req.ComplexityMax,
		ContextMin:          req.ContextMin,
		ContextMax:          req.ContextMax,
		RecommendedModel:    req.RecommendedModel,
		RecommendedProvider: req.RecommendedProvider,
	}
	if err := pattern.SetKeywords(req.Keywords); err != nil {
		return nil, err
	}

	if err := s.db.Create(&pattern).Error; err != nil {
		return nil, err
	}
	return &pattern, nil
}

// PatternQuery selects candidate patterns by wallet and task type; the
// midpoint of the complexity range must fall inside a pattern's stored
// range. ContextLength is matched when the pattern declares a context
// range (context_max > 0).
type PatternQuery struct {
	WalletAddress string  `form:"wallet_address" binding:"required"`
	TaskType      string  `form:"task_type" binding:"required"`
	ComplexityMin float64 `form:"complexity_min"`
	ComplexityMax float64 `form:"complexity_max"`
	ContextLength int     `form:"context_length"`
}

// Match returns the highest-confidence pattern containing the query point,
// or gorm.ErrRecordNotFound when none matches.
func (s *PatternService) Match(query *PatternQuery) (*models.Pattern, error) {
	midpoint := (query.ComplexityMin + query.ComplexityMax) / 2

	q := s.db.Where("wallet_address = ? AND task_type = ?", query.WalletAddress, query.TaskType).
		Where("complexity_min <= ? AND complexity_max >= ?", midpoint, midpoint)
	if query.ContextLength > 0 {
		q = q.Where("context_max = 0 OR (context_min <= ? AND context_max >= ?)",
			query.ContextLength, query.ContextLength)
	}

	var pattern models.Pattern
	if err := q.Order("confidence DESC").First(&pattern).Error; err != nil {
		return nil, err
	}
	return &pattern, nil
}

// GetByID returns a pattern by its public id.
func (s *PatternService) GetByID(patternID string) (*models.Pattern, error) {
	var pattern models.Pattern
	if err := s.db.Where("pattern_id = ?", patternID).First(&pattern).Error; err != nil {
		return nil, err
	}
	return &pattern, nil
}

// List returns all patterns for a wallet (or all wallets when empty).
func (s *PatternService) List(wallet string) ([]models.Pattern, error) {
	var patterns []models.Pattern
	q := s.db.Model(&models.Pattern{})
	if wallet != "" {
		q = q.Where("wallet_address = ?", wallet)
	}
	if err := q.Order("confidence DESC").Find(&patterns).Error; err != nil {
		return nil, err
	}
	return patterns, nil
}

// UpdateStats increments the success or failure counter and recomputes the
// confidence in a single atomic UPDATE. Confidence is success/n once n
// reaches the configured sample threshold; below it, the ratio is dampened
// linearly, which reduces to success/threshold. Returns
// gorm.ErrRecordNotFound for an unknown pattern_id.
func (s *PatternService) UpdateStats(patternID string, success bool, cost, quality float64) error {
	minSamples := s.routing.Current().PatternMinSamples

	successInc, failureInc := 0, 0
	if success {
		successInc = 1
	} else {
		failureInc = 1
	}

	result := s.db.Model(&models.Pattern{}).
		Where("pattern_id = ?", patternID).
		Updates(map[string]interface{}{
			"success_count": gorm.Expr("success_count + ?", successInc),
			"failure_count": gorm.Expr("failure_count + ?", failureInc),
			"confidence": gorm.Expr(
				"CASE WHEN success_count + failure_count + 1 >= ? "+
					"THEN (success_count + ?) * 1.0 / (success_count + failure_count + 1) "+
					"ELSE (success_count + ?) * 1.0 / ? END",
				minSamples, successInc, successInc, minSamples),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("pattern %s: %w", patternID, gorm.ErrRecordNotFound)
	}
	return nil
}

// Confidence computes the dampened confidence for a given sample count.
// Exposed for pattern inference, which seeds counters in bulk.
func Confidence(successCount, failureCount, minSamples int) float64 {
	n := successCount + failureCount
	if n == 0 {
		return 0
	}
	raw := float64(successCount) / float64(n)
	if n >= minSamples {
		return raw
	}
	return raw * float64(n) / float64(minSamples)
}
