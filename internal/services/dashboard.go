package services

import (
	"github.com/routewise/routewise/internal/models"
	"gorm.io/gorm"
)

// DashboardService aggregates routing decisions for the admin dashboard.
type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// DashboardStats holds headline numbers over a date range.
type DashboardStats struct {
	TotalDecisions   int64   `json:"total_decisions"`
	RecordedOutcomes int64   `json:"recorded_outcomes"`
	SuccessCount     int64   `json:"success_count"`
	SuccessRate      float64 `json:"success_rate"`
	AvgConfidence    float64 `json:"avg_confidence"`
	AvgComplexity    float64 `json:"avg_complexity"`
	EstimatedCost    float64 `json:"estimated_cost"`
	ActualCost       float64 `json:"actual_cost"`
	ActiveWallets    int64   `json:"active_wallets"`
}

// GetStats returns aggregated decision statistics for the given time range.
func (s *DashboardService) GetStats(startDate, endDate string) (*DashboardStats, error) {
	query := s.db.Model(&models.RoutingDecision{})
	if startDate != "" {
		query = query.Where("created_at >= ?", startDate)
	}
	if endDate != "" {
		query = query.Where("created_at <= ?", endDate+" 23:59:59")
	}

	var stats DashboardStats
	err := query.Select(
		"COUNT(*) as total_decisions, " +
			"COALESCE(SUM(CASE WHEN outcome_recorded = 1 THEN 1 ELSE 0 END), 0) as recorded_outcomes, " +
			"COALESCE(SUM(CASE WHEN was_successful = 1 THEN 1 ELSE 0 END), 0) as success_count, " +
			"COALESCE(AVG(confidence_score), 0) as avg_confidence, " +
			"COALESCE(AVG(complexity_score), 0) as avg_complexity, " +
			"COALESCE(SUM(estimated_cost), 0) as estimated_cost, " +
			"COALESCE(SUM(actual_cost), 0) as actual_cost, " +
			"COUNT(DISTINCT wallet_address) as active_wallets",
	).Scan(&stats).Error
	if err != nil {
		return nil, err
	}

	if stats.RecordedOutcomes > 0 {
		stats.SuccessRate = float64(stats.SuccessCount) / float64(stats.RecordedOutcomes) * 100
	}
	return &stats, nil
}

// DailyDecisions holds decision volume for a single day.
type DailyDecisions struct {
	Date          string  `json:"date"`
	Decisions     int     `json:"decisions"`
	AvgConfidence float64 `json:"avg_confidence"`
	EstimatedCost float64 `json:"estimated_cost"`
}

// GetDailyTrend returns daily decision counts for charting.
func (s *DashboardService) GetDailyTrend(startDate, endDate string) ([]DailyDecisions, error) {
	query := s.db.Model(&models.RoutingDecision{})
	if startDate != "" {
		query = query.Where("created_at >= ?", startDate)
	}
	if endDate != "" {
		query = query.Where("created_at <= ?", endDate+" 23:59:59")
	}

	var results []DailyDecisions
	err := query.Select(
		"DATE(created_at) as date, " +
			"COUNT(*) as decisions, " +
			"COALESCE(AVG(confidence_score), 0) as avg_confidence, " +
			"COALESCE(SUM(estimated_cost), 0) as estimated_cost",
	).Group("DATE(created_at)").Order("date ASC").Scan(&results).Error
	if err != nil {
		return nil, err
	}

	if results == nil {
		results = []DailyDecisions{}
	}
	return results, nil
}

// ModelBreakdown holds decision data grouped by selected model.
type ModelBreakdown struct {
	Model         string  `json:"model"`
	Provider      string  `json:"provider"`
	Decisions     int     `json:"decisions"`
	AvgConfidence float64 `json:"avg_confidence"`
	AvgComplexity float64 `json:"avg_complexity"`
	SuccessRate   float64 `json:"success_rate"`
	EstimatedCost float64 `json:"estimated_cost"`
}

// GetModelBreakdown returns decisions grouped by model and provider.
func (s *DashboardService) GetModelBreakdown(startDate, endDate string) ([]ModelBreakdown, error) {
	query := s.db.Model(&models.RoutingDecision{})
	if startDate != "" {
		query = query.Where("created_at >= ?", startDate)
	}
	if endDate != "" {
		query = query.Where("created_at <= ?", endDate+" 23:59:59")
	}

	var results []ModelBreakdown
	err := query.Select(
		"selected_model as model, selected_provider as provider, " +
			"COUNT(*) as decisions, " +
			"COALESCE(AVG(confidence_score), 0) as avg_confidence, " +
			"COALESCE(AVG(complexity_score), 0) as avg_complexity, " +
			"COALESCE(AVG(CASE WHEN was_successful = 1 THEN 100.0 WHEN was_successful = 0 THEN 0.0 END), 0) as success_rate, " +
			"COALESCE(SUM(estimated_cost), 0) as estimated_cost",
	).Group("selected_model, selected_provider").Order("decisions DESC").Scan(&results).Error
	if err != nil {
		return nil, err
	}

	if results == nil {
		results = []ModelBreakdown{}
	}
	return results, nil
}

// TaskTypeBreakdown holds decision counts grouped by task type.
type TaskTypeBreakdown struct {
	TaskType      string  `json:"task_type"`
	Decisions     int     `json:"decisions"`
	AvgComplexity float64 `json:"avg_complexity"`
}

// GetTaskTypeBreakdown returns decision counts per task type.
func (s *DashboardService) GetTaskTypeBreakdown(startDate, endDate string) ([]TaskTypeBreakdown, error) {
	query := s.db.Model(&models.RoutingDecision{})
	if startDate != "" {
		query = query.Where("created_at >= ?", startDate)
	}
	if endDate != "" {
		query = query.Where("created_at <= ?", endDate+" 23:59:59")
	}

	var results []TaskTypeBreakdown
	err := query.Select(
		"task_type, COUNT(*) as decisions, " +
			"COALESCE(AVG(complexity_score), 0) as avg_complexity",
	).Group("task_type").Order("decisions DESC").Scan(&results).Error
	if err != nil {
		return nil, err
	}

	if results == nil {
		results = []TaskTypeBreakdown{}
	}
	return results, nil
}
