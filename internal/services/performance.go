package services

import (
	"errors"

	"github.com/routewise/routewise/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PerformanceService maintains rolling per-wallet aggregates of model
// results. All mutation happens through a single atomic upsert so two
// outcomes racing on the same key cannot lose updates.
type PerformanceService struct {
	db *gorm.DB
}

func NewPerformanceService(db *gorm.DB) *PerformanceService {
	return &PerformanceService{db: db}
}

// Update upserts the (wallet, model, task_type) aggregate. Running
// averages use the incremental-mean form
// new_avg = old_avg + (value - old_avg) / new_count, expressed in SQL so
// the read and write are one statement.
func (s *PerformanceService) Update(wallet, model, provider, taskType string, outcome *Outcome) error {
	success := 0.0
	if outcome.WasSuccessful {
		success = 1.0
	}

	row := models.ModelPerformance{
		WalletAddress: wallet,
		Model:         model,
		TaskType:      taskType,
		Provider:      provider,
		TotalRequests: 1,
		SuccessRate:   success,
		AvgCost:       outcome.ActualCost,
		AvgQuality:    outcome.ResponseQuality,
		AvgLatencyMs:  float64(outcome.ResponseTimeMs),
	}

	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "wallet_address"}, {Name: "model"}, {Name: "task_type"},
		},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"success_rate":   gorm.Expr("success_rate + (? - success_rate) / (total_requests + 1)", success),
			"avg_cost":       gorm.Expr("avg_cost + (? - avg_cost) / (total_requests + 1)", outcome.ActualCost),
			"avg_quality":    gorm.Expr("avg_quality + (? - avg_quality) / (total_requests + 1)", outcome.ResponseQuality),
			"avg_latency_ms": gorm.Expr("avg_latency_ms + (? - avg_latency_ms) / (total_requests + 1)", float64(outcome.ResponseTimeMs)),
			"total_requests": gorm.Expr("total_requests + 1"),
		}),
	}).Create(&row).Error
}

// Get returns the current aggregate for the key, or a neutral default
// (success rate 0.5, zero requests) when it has never been observed. It
// only fails on storage errors.
func (s *PerformanceService) Get(wallet, model, taskType string) (*models.ModelPerformance, error) {
	var perf models.ModelPerformance
	err := s.db.Where("wallet_address = ? AND model = ? AND task_type = ?", wallet, model, taskType).
		First(&perf).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.ModelPerformance{
			WalletAddress: wallet,
			Model:         model,
			TaskType:      taskType,
			TotalRequests: 0,
			SuccessRate:   neutralPerformance,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &perf, nil
}

// ListByWallet returns all aggregates for a wallet, best success rate
// first.
func (s *PerformanceService) ListByWallet(wallet string) ([]models.ModelPerformance, error) {
	var rows []models.ModelPerformance
	err := s.db.Where("wallet_address = ?", wallet).
		Order("success_rate DESC, total_requests DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
