package services

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/routewise/routewise/internal/config"
	"github.com/routewise/routewise/internal/models"
	"github.com/routewise/routewise/pkg/logger"
	"gorm.io/gorm"
)

// Configuration errors surfaced by Select. These indicate a deployment
// problem, not a runtime condition to recover from.
var (
	ErrNoCandidates = errors.New("no candidate models configured")
	ErrNoPricing    = errors.New("no pricing available for any candidate model")
)

// ScoreBreakdown reports the weighted sub-scores of one candidate.
type ScoreBreakdown struct {
	ComplexityMatch  float64 `json:"complexity_match"`
	BudgetConstraint float64 `json:"budget_constraint"`
	PatternMatch     float64 `json:"pattern_match"`
	Performance      float64 `json:"performance"`
	Total            float64 `json:"total"`
}

// Selection is the result of scoring every configured candidate.
type Selection struct {
	Model          string               `json:"model"`
	Provider       string               `json:"provider"`
	Reason         string               `json:"reason"`
	Confidence     float64              `json:"confidence"`
	EstimatedCost  float64              `json:"estimated_cost"`
	ScoreBreakdown ScoreBreakdown       `json:"score_breakdown"`
	Alternatives   []models.Alternative `json:"alternatives"`
}

// SelectorService picks the most cost-effective candidate model for an
// analyzed request by combining complexity fit, cost efficiency under the
// wallet's remaining budget, learned patterns, and observed performance.
type SelectorService struct {
	routing     *config.RoutingManager
	patterns    *PatternService
	performance *PerformanceService
	quotas      *QuotaService
}

func NewSelectorService(db *gorm.DB, routing *config.RoutingManager) *SelectorService {
	return &SelectorService{
		routing:     routing,
		patterns:    NewPatternService(db, routing),
		performance: NewPerformanceService(db),
		quotas:      NewQuotaService(db),
	}
}

type scoredCandidate struct {
	candidate config.ModelCandidate
	cost      float64
	breakdown ScoreBreakdown
}

// Select scores every configured candidate and returns the winner plus all
// alternatives sorted by descending score. Ties break by lowest estimated
// cost.
func (s *SelectorService) Select(analysis *TaskAnalysis, wallet string) (*Selection, error) {
	cfg := s.routing.Current()
	if len(cfg.Candidates) == 0 {
		return nil, ErrNoCandidates
	}

	headroom, err := s.budgetHeadroom(wallet)
	if err != nil {
		return nil, err
	}

	pattern := s.matchedPattern(analysis, wallet)

	// Pricing pass: candidates without pricing are skipped entirely.
	type priced struct {
		candidate config.ModelCandidate
		cost      float64
	}
	var candidates []priced
	minCost, maxCost := math.MaxFloat64, 0.0
	for _, cand := range cfg.Candidates {
		pricing, ok := cfg.PricingFor(cand.Provider, cand.Model)
		if !ok {
			logger.Warn().Str("model", cand.Model).Str("provider", cand.Provider).
				Msg("candidate has no pricing entry, skipping")
			continue
		}
		cost := estimateRequestCost(pricing, analysis.EstimatedTokens)
		candidates = append(candidates, priced{candidate: cand, cost: cost})
		minCost = math.Min(minCost, cost)
		maxCost = math.Max(maxCost, cost)
	}
	if len(candidates) == 0 {
		return nil, ErrNoPricing
	}

	weights := cfg.Weights
	scored := make([]scoredCandidate, 0, len(candidates))
	for _, pc := range candidates {
		band, _ := cfg.BandFor(pc.candidate)

		breakdown := ScoreBreakdown{
			ComplexityMatch:  complexityMatch(analysis.ComplexityScore, band),
			BudgetConstraint: budgetScore(pc.cost, minCost, maxCost, headroom),
			PatternMatch:     patternScore(pattern, pc.candidate.Model),
			Performance:      s.performanceScore(wallet, pc.candidate.Model, analysis.TaskType),
		}
		breakdown.Total = weights.ComplexityMatch*breakdown.ComplexityMatch +
			weights.BudgetConstraint*breakdown.BudgetConstraint +
			weights.PatternMatch*breakdown.PatternMatch +
			weights.Performance*breakdown.Performance

		scored = append(scored, scoredCandidate{
			candidate: pc.candidate,
			cost:      pc.cost,
			breakdown: breakdown,
		})
	}

	rankCandidates(scored)

	winner := scored[0]
	alternatives := make([]models.Alternative, 0, len(scored)-1)
	for _, sc := range scored[1:] {
		alternatives = append(alternatives, models.Alternative{
			Model:         sc.candidate.Model,
			Provider:      sc.candidate.Provider,
			Score:         round3(sc.breakdown.Total),
			EstimatedCost: sc.cost,
			Reason:        dominantFactor(weights, sc.breakdown),
		})
	}

	return &Selection{
		Model:          winner.candidate.Model,
		Provider:       winner.candidate.Provider,
		Reason:         selectionReason(weights, winner.breakdown, winner.candidate.Band),
		Confidence:     round3(winner.breakdown.Total),
		EstimatedCost:  winner.cost,
		ScoreBreakdown: winner.breakdown,
		Alternatives:   alternatives,
	}, nil
}

// rankCandidates orders by descending total score, breaking ties by lowest
// estimated cost.
func rankCandidates(scored []scoredCandidate) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].breakdown.Total != scored[j].breakdown.Total {
			return scored[i].breakdown.Total > scored[j].breakdown.Total
		}
		return scored[i].cost < scored[j].cost
	})
}

// budgetHeadroom maps the wallet's quota state to [0,1]: 1.0 for unlimited
// (pro) wallets, remaining/limit for free-tier wallets.
func (s *SelectorService) budgetHeadroom(wallet string) (float64, error) {
	status, err := s.quotas.CheckAvailable(wallet)
	if err != nil {
		return 0, err
	}
	if status.Remaining == models.UnlimitedDecisions {
		return 1.0, nil
	}
	limit := status.Limit
	if limit <= 0 {
		return 0, nil
	}
	return clamp01(float64(status.Remaining) / float64(limit)), nil
}

func (s *SelectorService) matchedPattern(analysis *TaskAnalysis, wallet string) *models.Pattern {
	pattern, err := s.patterns.Match(&PatternQuery{
		WalletAddress: wallet,
		TaskType:      analysis.TaskType,
		ComplexityMin: analysis.ComplexityScore,
		ComplexityMax: analysis.ComplexityScore,
		ContextLength: analysis.ContextLength,
	})
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn().Err(err).Str("wallet", wallet).Msg("pattern lookup failed")
		}
		return nil
	}
	return pattern
}

func (s *SelectorService) performanceScore(wallet, model, taskType string) float64 {
	perf, err := s.performance.Get(wallet, model, taskType)
	if err != nil {
		logger.Warn().Err(err).Str("model", model).Msg("performance lookup failed")
		return neutralPerformance
	}
	if perf.TotalRequests == 0 {
		return neutralPerformance
	}
	return clamp01(0.7*perf.SuccessRate + 0.3*clamp01(perf.AvgQuality))
}

// complexityMatch is 1.0 when the request complexity sits at the center of
// the candidate's band and decays linearly with distance, reaching zero at
// one full band width from the center.
func complexityMatch(complexity float64, band config.ComplexityBand) float64 {
	width := band.Max - band.Min
	if width <= 0 {
		return 0
	}
	center := (band.Min + band.Max) / 2
	distance := math.Abs(complexity - center)
	return clamp01(1 - distance/width)
}

// budgetScore rewards cheaper candidates. With low headroom cost efficiency
// fully discriminates; with high headroom scores compress toward the top so
// cost matters less. Cheaper candidates never score below pricier ones.
func budgetScore(cost, minCost, maxCost, headroom float64) float64 {
	costEff := 1.0
	if maxCost > minCost {
		costEff = 1 - (cost-minCost)/(maxCost-minCost)
	}
	return clamp01(costEff*(1-headroom) + (0.5+0.5*costEff)*headroom)
}

// patternScore is 0 without a matching pattern; otherwise the pattern's
// confidence, boosted when the candidate is the pattern's recommendation.
func patternScore(pattern *models.Pattern, model string) float64 {
	if pattern == nil {
		return 0
	}
	if pattern.RecommendedModel == model {
		return clamp01(pattern.Confidence * 1.5)
	}
	return clamp01(pattern.Confidence)
}

const neutralPerformance = 0.5

// estimateRequestCost prices a request assuming completion size on the
// order of the prompt size.
func estimateRequestCost(pricing config.ModelPricing, estimatedTokens int) float64 {
	tokens := float64(estimatedTokens)
	return tokens/1000*pricing.PromptPer1K + tokens/1000*pricing.CompletionPer1K
}

// selectionReason names the sub-score with the largest weighted
// contribution.
func selectionReason(w config.ScoreWeights, b ScoreBreakdown, band string) string {
	switch dominantFactor(w, b) {
	case "complexity_match":
		return fmt.Sprintf("complexity_match: task fits the %s band", band)
	case "budget_constraint":
		return "budget_constraint: best cost efficiency for remaining budget"
	case "pattern_match":
		return "pattern_match: learned pattern recommends this model"
	default:
		return "performance: strongest historical results for this task type"
	}
}

func dominantFactor(w config.ScoreWeights, b ScoreBreakdown) string {
	factors := []struct {
		name  string
		value float64
	}{
		{"complexity_match", w.ComplexityMatch * b.ComplexityMatch},
		{"budget_constraint", w.BudgetConstraint * b.BudgetConstraint},
		{"pattern_match", w.PatternMatch * b.PatternMatch},
		{"performance", w.Performance * b.Performance},
	}
	best := factors[0]
	for _, f := range factors[1:] {
		if f.value > best.value {
			best = f
		}
	}
	return best.name
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
