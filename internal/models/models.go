package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Subscription tiers.
const (
	TierFree = "free"
	TierPro  = "pro"
)

// Quota constants. UnlimitedDecisions is the sentinel stored as
// decisions_limit for pro-tier wallets.
const (
	FreeDailyDecisions = 100
	UnlimitedDecisions = -1
	QuotaDateFormat    = "2006-01-02"
)

// Task types produced by the analyzer, in priority order.
const (
	TaskTypeDebugging = "debugging"
	TaskTypeCode      = "code"
	TaskTypeReasoning = "reasoning"
	TaskTypeWriting   = "writing"
	TaskTypeQuery     = "query"
)

// RoutingDecision records one routing choice and, once known, its
// real-world outcome. Outcome fields are overwritten on each outcome
// report (last write wins); decisions are never deleted.
type RoutingDecision struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	DecisionID    string `gorm:"uniqueIndex;size:64;not null" json:"decision_id"`
	WalletAddress string `gorm:"index;size:128;not null" json:"wallet_address"`

	// Task analysis snapshot
	TaskType        string  `gorm:"size:20;index" json:"task_type"`
	ComplexityScore float64 `json:"complexity_score"`
	EstimatedTokens int     `json:"estimated_tokens"`
	ContextLength   int     `json:"context_length"`
	HasCode         bool    `json:"has_code"`
	HasErrors       bool    `json:"has_errors"`
	HasData         bool    `json:"has_data"`

	// Selection
	SelectedModel    string  `gorm:"size:100;index" json:"selected_model"`
	SelectedProvider string  `gorm:"size:50" json:"selected_provider"`
	SelectionReason  string  `gorm:"size:200" json:"selection_reason"`
	ConfidenceScore  float64 `json:"confidence_score"`
	EstimatedCost    float64 `json:"estimated_cost"`
	Alternatives     string  `gorm:"type:text" json:"-"` // JSON []Alternative

	// Outcome (nil until reported)
	OutcomeRecorded bool     `gorm:"default:false" json:"outcome_recorded"`
	WasSuccessful   *bool    `json:"was_successful"`
	ActualTokens    *int     `json:"actual_tokens"`
	ActualCost      *float64 `json:"actual_cost"`
	ResponseQuality *float64 `json:"response_quality"`
	ResponseTimeMs  *int64   `json:"response_time_ms"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Alternative is one non-selected candidate with its score.
type Alternative struct {
	Model         string  `json:"model"`
	Provider      string  `json:"provider"`
	Score         float64 `json:"score"`
	EstimatedCost float64 `json:"estimated_cost"`
	Reason        string  `json:"reason"`
}

// SetAlternatives validates and serializes the alternative list.
func (d *RoutingDecision) SetAlternatives(alts []Alternative) error {
	for i, a := range alts {
		if a.Model == "" {
			return fmt.Errorf("alternative %d is missing model", i)
		}
		if a.Score < 0 || a.Score > 1 {
			return fmt.Errorf("alternative %d has score %.3f outside [0,1]", i, a.Score)
		}
	}
	data, err := json.Marshal(alts)
	if err != nil {
		return err
	}
	d.Alternatives = string(data)
	return nil
}

// GetAlternatives deserializes the alternative list.
func (d *RoutingDecision) GetAlternatives() ([]Alternative, error) {
	if d.Alternatives == "" {
		return []Alternative{}, nil
	}
	var alts []Alternative
	if err := json.Unmarshal([]byte(d.Alternatives), &alts); err != nil {
		return nil, fmt.Errorf("corrupt alternatives for decision %s: %w", d.DecisionID, err)
	}
	return alts, nil
}

// Pattern is a learned, range-scoped routing rule for one wallet. Its
// recommendation only applies to requests whose complexity and context
// length fall inside the stored ranges.
type Pattern struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	PatternID     string  `gorm:"uniqueIndex;size:64;not null" json:"pattern_id"`
	WalletAddress string  `gorm:"index;size:128;not null" json:"wallet_address"`
	PatternType   string  `gorm:"size:50;default:manual" json:"pattern_type"` // manual, inferred
	Description   string  `gorm:"size:500" json:"description"`
	TaskType      string  `gorm:"size:20;index;not null" json:"task_type"`
	ComplexityMin float64 `json:"complexity_min"`
	ComplexityMax float64 `json:"complexity_max"`
	ContextMin    int     `json:"context_min"`
	ContextMax    int     `json:"context_max"`
	Keywords      string  `gorm:"type:text" json:"-"` // JSON []string

	RecommendedModel    string `gorm:"size:100;not null" json:"recommended_model"`
	RecommendedProvider string `gorm:"size:50" json:"recommended_provider"`

	SuccessCount int     `gorm:"default:0" json:"success_count"`
	FailureCount int     `gorm:"default:0" json:"failure_count"`
	Confidence   float64 `gorm:"default:0" json:"confidence"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetKeywords serializes the keyword set.
func (p *Pattern) SetKeywords(keywords []string) error {
	data, err := json.Marshal(keywords)
	if err != nil {
		return err
	}
	p.Keywords = string(data)
	return nil
}

// GetKeywords deserializes the keyword set.
func (p *Pattern) GetKeywords() ([]string, error) {
	if p.Keywords == "" {
		return []string{}, nil
	}
	var keywords []string
	if err := json.Unmarshal([]byte(p.Keywords), &keywords); err != nil {
		return nil, fmt.Errorf("corrupt keywords for pattern %s: %w", p.PatternID, err)
	}
	return keywords, nil
}

// ModelPerformance is the rolling aggregate for one wallet+model+task_type
// key. Averages are maintained with an incremental-mean update at the
// storage boundary; rows are never deleted.
type ModelPerformance struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	WalletAddress string `gorm:"uniqueIndex:idx_perf_key;size:128;not null" json:"wallet_address"`
	Model         string `gorm:"uniqueIndex:idx_perf_key;size:100;not null" json:"model"`
	TaskType      string `gorm:"uniqueIndex:idx_perf_key;size:20;not null" json:"task_type"`
	Provider      string `gorm:"size:50" json:"provider"`

	TotalRequests int     `gorm:"default:0" json:"total_requests"`
	SuccessRate   float64 `gorm:"default:0" json:"success_rate"`
	AvgCost       float64 `gorm:"default:0" json:"avg_cost"`
	AvgQuality    float64 `gorm:"default:0" json:"avg_quality"`
	AvgLatencyMs  float64 `gorm:"default:0" json:"avg_latency_ms"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AgentQuota is the per-wallet tier and daily decision counter. LastReset
// holds a YYYY-MM-DD date string; the counter resets lazily when the
// stored date differs from today.
type AgentQuota struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	WalletAddress  string     `gorm:"uniqueIndex;size:128;not null" json:"wallet_address"`
	Tier           string     `gorm:"size:20;default:free" json:"tier"`
	DecisionsToday int        `gorm:"default:0" json:"decisions_today"`
	DecisionsLimit int        `gorm:"default:100" json:"decisions_limit"`
	LastReset      string     `gorm:"size:10" json:"last_reset"`
	PaidUntil      *time.Time `json:"paid_until"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EffectiveTier returns the tier used for gating: a stored pro tier whose
// paid_until has passed counts as free. The stored tier field is left
// untouched until an explicit downgrade.
func (q *AgentQuota) EffectiveTier(now time.Time) string {
	if q.Tier == TierPro && q.PaidUntil != nil && q.PaidUntil.After(now) {
		return TierPro
	}
	if q.Tier == TierPro && q.PaidUntil == nil {
		// Pro with no expiry recorded: treat as non-expiring.
		return TierPro
	}
	return TierFree
}

// SystemLog is a DB-persisted operational log entry.
type SystemLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Level     string    `gorm:"size:20;index" json:"level"` // info, warning, error
	Module    string    `gorm:"size:100;index" json:"module"`
	Action    string    `gorm:"size:200;index" json:"action"`
	Message   string    `gorm:"type:text" json:"message"`
	Wallet    string    `gorm:"size:128" json:"wallet"`
	Extra     string    `gorm:"type:text" json:"extra"` // JSON extra data
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName overrides
func (RoutingDecision) TableName() string  { return "routing_decisions" }
func (Pattern) TableName() string          { return "patterns" }
func (ModelPerformance) TableName() string { return "model_performance" }
func (AgentQuota) TableName() string       { return "agent_quotas" }
func (SystemLog) TableName() string        { return "system_logs" }
