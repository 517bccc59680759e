package config

import (
	"fmt"
	"math"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// ScoreWeights are the weighted-sum coefficients of the model selector.
// They must sum to 1.0.
type ScoreWeights struct {
	ComplexityMatch  float64 `yaml:"complexity_match" json:"complexity_match"`
	BudgetConstraint float64 `yaml:"budget_constraint" json:"budget_constraint"`
	PatternMatch     float64 `yaml:"pattern_match" json:"pattern_match"`
	Performance      float64 `yaml:"performance" json:"performance"`
}

// ComplexityBand is a named complexity range a candidate model targets.
type ComplexityBand struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// ModelCandidate is one routable backend model.
type ModelCandidate struct {
	Model    string `yaml:"model" json:"model"`
	Provider string `yaml:"provider" json:"provider"`
	Band     string `yaml:"band" json:"band"`
}

// ModelPricing holds per-1k-token costs in USD.
type ModelPricing struct {
	PromptPer1K     float64 `yaml:"prompt_per_1k" json:"prompt_per_1k"`
	CompletionPer1K float64 `yaml:"completion_per_1k" json:"completion_per_1k"`
}

// PricingTable maps provider -> model -> pricing. A "default" model entry
// acts as the provider-wide fallback.
type PricingTable map[string]map[string]ModelPricing

// RoutingConfig is the validated, immutable routing document: candidate
// models, scoring weights, complexity bands and the pricing table. It is
// loaded once at startup and replaced wholesale on Reload.
type RoutingConfig struct {
	Weights           ScoreWeights              `yaml:"weights" json:"weights"`
	Bands             map[string]ComplexityBand `yaml:"bands" json:"bands"`
	Candidates        []ModelCandidate          `yaml:"candidates" json:"candidates"`
	Pricing           PricingTable              `yaml:"pricing" json:"pricing"`
	PatternMinSamples int                       `yaml:"pattern_min_samples" json:"pattern_min_samples"`
}

// PricingFor looks up pricing for a provider+model pair, falling back to
// the provider's "default" entry.
func (c *RoutingConfig) PricingFor(provider, model string) (ModelPricing, bool) {
	if c.Pricing == nil {
		return ModelPricing{}, false
	}
	providerPricing, ok := c.Pricing[provider]
	if !ok {
		return ModelPricing{}, false
	}
	if entry, ok := providerPricing[model]; ok {
		return entry, true
	}
	if entry, ok := providerPricing["default"]; ok {
		return entry, true
	}
	return ModelPricing{}, false
}

// BandFor returns the complexity band a candidate targets.
func (c *RoutingConfig) BandFor(cand ModelCandidate) (ComplexityBand, bool) {
	band, ok := c.Bands[cand.Band]
	return band, ok
}

// Validate checks structural invariants of the routing document.
func (c *RoutingConfig) Validate() error {
	sum := c.Weights.ComplexityMatch + c.Weights.BudgetConstraint +
		c.Weights.PatternMatch + c.Weights.Performance
	if math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("score weights must sum to 1.0, got %.4f", sum)
	}
	for name, band := range c.Bands {
		if band.Min < 0 || band.Max > 1 || band.Min >= band.Max {
			return fmt.Errorf("band %q has invalid range [%.2f, %.2f]", name, band.Min, band.Max)
		}
	}
	for i, cand := range c.Candidates {
		if cand.Model == "" || cand.Provider == "" {
			return fmt.Errorf("candidate %d is missing model or provider", i)
		}
		if _, ok := c.Bands[cand.Band]; !ok {
			return fmt.Errorf("candidate %s references unknown band %q", cand.Model, cand.Band)
		}
	}
	if c.PatternMinSamples <= 0 {
		return fmt.Errorf("pattern_min_samples must be positive, got %d", c.PatternMinSamples)
	}
	return nil
}

// DefaultRoutingConfig returns the built-in routing document used when no
// routing file exists.
func DefaultRoutingConfig() *RoutingConfig {
	return &RoutingConfig{
		Weights: ScoreWeights{
			ComplexityMatch:  0.4,
			BudgetConstraint: 0.3,
			PatternMatch:     0.2,
			Performance:      0.1,
		},
		Bands: map[string]ComplexityBand{
			"simple":   {Min: 0.0, Max: 0.35},
			"moderate": {Min: 0.25, Max: 0.65},
			"complex":  {Min: 0.55, Max: 1.0},
		},
		Candidates: []ModelCandidate{
			{Model: "gpt-4o-mini", Provider: "openai", Band: "simple"},
			{Model: "claude-3-5-haiku-20241022", Provider: "anthropic", Band: "simple"},
			{Model: "gpt-4o", Provider: "openai", Band: "moderate"},
			{Model: "gemini-2.5-flash", Provider: "gemini", Band: "moderate"},
			{Model: "claude-sonnet-4-20250514", Provider: "anthropic", Band: "complex"},
		},
		Pricing: PricingTable{
			"openai": {
				"gpt-4o-mini": {PromptPer1K: 0.00015, CompletionPer1K: 0.0006},
				"gpt-4o":      {PromptPer1K: 0.0025, CompletionPer1K: 0.01},
			},
			"anthropic": {
				"claude-3-5-haiku-20241022": {PromptPer1K: 0.0008, CompletionPer1K: 0.004},
				"claude-sonnet-4-20250514":  {PromptPer1K: 0.003, CompletionPer1K: 0.015},
			},
			"gemini": {
				"gemini-2.5-flash": {PromptPer1K: 0.0003, CompletionPer1K: 0.0025},
			},
		},
		PatternMinSamples: 5,
	}
}

// RoutingManager owns the current routing config and supports an explicit,
// controlled reload. Reads go through Current(); the returned config must
// be treated as immutable.
type RoutingManager struct {
	mu   sync.RWMutex
	cfg  *RoutingConfig
	path string
}

// LoadRouting reads and validates the routing document at path. A missing
// file yields the built-in defaults.
func LoadRouting(path string) (*RoutingManager, error) {
	m := &RoutingManager{path: path}
	cfg, err := m.read()
	if err != nil {
		return nil, err
	}
	m.cfg = cfg
	return m, nil
}

// Current returns the active routing config.
func (m *RoutingManager) Current() *RoutingConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Reload re-reads the routing document. The active config is only replaced
// when the new document validates.
func (m *RoutingManager) Reload() error {
	cfg, err := m.read()
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()
	return nil
}

func (m *RoutingManager) read() (*RoutingConfig, error) {
	if m.path == "" {
		return DefaultRoutingConfig(), nil
	}
	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return DefaultRoutingConfig(), nil
	}
	if err != nil {
		return nil, err
	}

	cfg := DefaultRoutingConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse routing config: %w", err)
	}
	if cfg.PatternMinSamples == 0 {
		cfg.PatternMinSamples = 5
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid routing config: %w", err)
	}
	return cfg, nil
}
