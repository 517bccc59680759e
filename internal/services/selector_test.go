package services

import (
	"strings"
	"testing"

	"github.com/routewise/routewise/internal/config"
	"github.com/routewise/routewise/internal/models"
)

func TestComplexityMatch(t *testing.T) {
	band := config.ComplexityBand{Min: 0.0, Max: 0.4}

	if got := complexityMatch(0.2, band); got != 1.0 {
		t.Errorf("score at band center = %f, expected 1.0", got)
	}
	if got := complexityMatch(0.4, band); got != 0.5 {
		t.Errorf("score at band edge = %f, expected 0.5", got)
	}
	if got := complexityMatch(0.8, band); got != 0 {
		t.Errorf("score one band width past center = %f, expected 0", got)
	}
}

func TestComplexityMatch_DegenerateBand(t *testing.T) {
	band := config.ComplexityBand{Min: 0.5, Max: 0.5}
	if got := complexityMatch(0.5, band); got != 0 {
		t.Errorf("zero-width band should score 0, got %f", got)
	}
}

func TestBudgetScore_CheaperNeverScoresLower(t *testing.T) {
	headrooms := []float64{0, 0.25, 0.5, 0.75, 1}
	costs := []float64{0.001, 0.01, 0.05, 0.2}

	for _, h := range headrooms {
		for i := 0; i < len(costs)-1; i++ {
			cheap := budgetScore(costs[i], costs[0], costs[len(costs)-1], h)
			pricey := budgetScore(costs[i+1], costs[0], costs[len(costs)-1], h)
			if cheap < pricey {
				t.Errorf("headroom %f: cost %f scored %f, below pricier cost %f at %f",
					h, costs[i], cheap, costs[i+1], pricey)
			}
		}
	}
}

func TestBudgetScore_Extremes(t *testing.T) {
	// Exhausted budget: cost efficiency fully discriminates.
	if got := budgetScore(0.2, 0.001, 0.2, 0); got != 0 {
		t.Errorf("priciest model with no headroom = %f, expected 0", got)
	}
	if got := budgetScore(0.001, 0.001, 0.2, 0); got != 1 {
		t.Errorf("cheapest model with no headroom = %f, expected 1", got)
	}

	// Full budget: scores compress toward the top.
	if got := budgetScore(0.2, 0.001, 0.2, 1); got != 0.5 {
		t.Errorf("priciest model with full headroom = %f, expected 0.5", got)
	}
	if got := budgetScore(0.001, 0.001, 0.2, 1); got != 1 {
		t.Errorf("cheapest model with full headroom = %f, expected 1", got)
	}
}

func TestBudgetScore_UniformPricing(t *testing.T) {
	if got := budgetScore(0.01, 0.01, 0.01, 0.3); got != 1 {
		t.Errorf("uniform pricing should score 1, got %f", got)
	}
}

func TestPatternScore(t *testing.T) {
	if got := patternScore(nil, "gpt-4o"); got != 0 {
		t.Errorf("no pattern = %f, expected 0", got)
	}

	pattern := &models.Pattern{RecommendedModel: "gpt-4o", Confidence: 0.5}

	if got := patternScore(pattern, "gpt-4o-mini"); got != 0.5 {
		t.Errorf("non-recommended candidate = %f, expected 0.5", got)
	}
	if got := patternScore(pattern, "gpt-4o"); got != 0.75 {
		t.Errorf("recommended candidate = %f, expected 0.75 (1.5x boost)", got)
	}

	confident := &models.Pattern{RecommendedModel: "gpt-4o", Confidence: 0.9}
	if got := patternScore(confident, "gpt-4o"); got != 1.0 {
		t.Errorf("boosted score must clamp at 1.0, got %f", got)
	}
}

func TestEstimateRequestCost(t *testing.T) {
	pricing := config.ModelPricing{PromptPer1K: 0.001, CompletionPer1K: 0.002}

	got := estimateRequestCost(pricing, 1000)
	if got != 0.003 {
		t.Errorf("estimateRequestCost = %f, expected 0.003", got)
	}

	if got := estimateRequestCost(pricing, 0); got != 0 {
		t.Errorf("zero tokens should cost 0, got %f", got)
	}
}

func TestRankCandidates_HighestScoreWins(t *testing.T) {
	scored := []scoredCandidate{
		{candidate: config.ModelCandidate{Model: "low"}, cost: 0.001, breakdown: ScoreBreakdown{Total: 0.4}},
		{candidate: config.ModelCandidate{Model: "high"}, cost: 0.01, breakdown: ScoreBreakdown{Total: 0.8}},
		{candidate: config.ModelCandidate{Model: "mid"}, cost: 0.005, breakdown: ScoreBreakdown{Total: 0.6}},
	}

	rankCandidates(scored)

	want := []string{"high", "mid", "low"}
	for i, model := range want {
		if scored[i].candidate.Model != model {
			t.Errorf("rank %d = %q, expected %q", i, scored[i].candidate.Model, model)
		}
	}
}

func TestRankCandidates_TieBreaksByCost(t *testing.T) {
	scored := []scoredCandidate{
		{candidate: config.ModelCandidate{Model: "pricey"}, cost: 0.05, breakdown: ScoreBreakdown{Total: 0.7}},
		{candidate: config.ModelCandidate{Model: "cheap"}, cost: 0.002, breakdown: ScoreBreakdown{Total: 0.7}},
	}

	rankCandidates(scored)

	if scored[0].candidate.Model != "cheap" {
		t.Errorf("tied scores should rank the cheaper model first, got %q", scored[0].candidate.Model)
	}
}

func TestDominantFactor(t *testing.T) {
	weights := config.ScoreWeights{
		ComplexityMatch:  0.4,
		BudgetConstraint: 0.3,
		PatternMatch:     0.2,
		Performance:      0.1,
	}

	tests := []struct {
		name      string
		breakdown ScoreBreakdown
		expected  string
	}{
		{
			"complexity dominates",
			ScoreBreakdown{ComplexityMatch: 1.0, BudgetConstraint: 0.5, PatternMatch: 0, Performance: 0.5},
			"complexity_match",
		},
		{
			"budget dominates",
			ScoreBreakdown{ComplexityMatch: 0.1, BudgetConstraint: 1.0, PatternMatch: 0, Performance: 0.5},
			"budget_constraint",
		},
		{
			"pattern dominates",
			ScoreBreakdown{ComplexityMatch: 0.1, BudgetConstraint: 0.1, PatternMatch: 1.0, Performance: 0.5},
			"pattern_match",
		},
		{
			"performance dominates",
			ScoreBreakdown{ComplexityMatch: 0.1, BudgetConstraint: 0.1, PatternMatch: 0, Performance: 1.0},
			"performance",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dominantFactor(weights, tt.breakdown); got != tt.expected {
				t.Errorf("dominantFactor = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestSelectionReason_NamesDominantFactor(t *testing.T) {
	weights := config.ScoreWeights{ComplexityMatch: 0.4, BudgetConstraint: 0.3, PatternMatch: 0.2, Performance: 0.1}
	breakdown := ScoreBreakdown{ComplexityMatch: 1.0, BudgetConstraint: 0.2, PatternMatch: 0, Performance: 0.2}

	reason := selectionReason(weights, breakdown, "simple")
	if !strings.HasPrefix(reason, "complexity_match") {
		t.Errorf("reason %q should start with the dominant factor name", reason)
	}
	if !strings.Contains(reason, "simple") {
		t.Errorf("reason %q should mention the band", reason)
	}
}

func TestRound3(t *testing.T) {
	if got := round3(0.123456); got != 0.123 {
		t.Errorf("round3(0.123456) = %f, expected 0.123", got)
	}
	if got := round3(2.0 / 3.0); got != 0.667 {
		t.Errorf("round3(2/3) = %f, expected 0.667", got)
	}
}
