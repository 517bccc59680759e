package models

import (
	"testing"
	"time"
)

func TestSetAlternatives_Roundtrip(t *testing.T) {
	d := &RoutingDecision{DecisionID: "dec-1"}

	alts := []Alternative{
		{Model: "gpt-4o", Provider: "openai", Score: 0.72, EstimatedCost: 0.01, Reason: "performance"},
		{Model: "gemini-2.5-flash", Provider: "gemini", Score: 0.55, EstimatedCost: 0.002, Reason: "budget_constraint"},
	}

	if err := d.SetAlternatives(alts); err != nil {
		t.Fatalf("SetAlternatives() error = %v", err)
	}

	got, err := d.GetAlternatives()
	if err != nil {
		t.Fatalf("GetAlternatives() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d alternatives, expected 2", len(got))
	}
	if got[0].Model != "gpt-4o" || got[0].Score != 0.72 {
		t.Errorf("first alternative = %+v", got[0])
	}
}

func TestSetAlternatives_Validation(t *testing.T) {
	d := &RoutingDecision{}

	if err := d.SetAlternatives([]Alternative{{Model: "", Score: 0.5}}); err == nil {
		t.Error("missing model should be rejected")
	}
	if err := d.SetAlternatives([]Alternative{{Model: "gpt-4o", Score: 1.2}}); err == nil {
		t.Error("score above 1 should be rejected")
	}
	if err := d.SetAlternatives([]Alternative{{Model: "gpt-4o", Score: -0.1}}); err == nil {
		t.Error("negative score should be rejected")
	}
}

func TestGetAlternatives_Empty(t *testing.T) {
	d := &RoutingDecision{}
	alts, err := d.GetAlternatives()
	if err != nil {
		t.Fatalf("GetAlternatives() error = %v", err)
	}
	if len(alts) != 0 {
		t.Errorf("expected empty list, got %d entries", len(alts))
	}
}

func TestGetAlternatives_Corrupt(t *testing.T) {
	d := &RoutingDecision{DecisionID: "dec-2", Alternatives: "{not json"}
	if _, err := d.GetAlternatives(); err == nil {
		t.Error("corrupt JSON should return an error")
	}
}

func TestKeywords_Roundtrip(t *testing.T) {
	p := &Pattern{PatternID: "pat-1"}

	if err := p.SetKeywords([]string{"sql", "migration"}); err != nil {
		t.Fatalf("SetKeywords() error = %v", err)
	}

	got, err := p.GetKeywords()
	if err != nil {
		t.Fatalf("GetKeywords() error = %v", err)
	}
	if len(got) != 2 || got[0] != "sql" || got[1] != "migration" {
		t.Errorf("keywords = %v", got)
	}
}

func TestGetKeywords_Empty(t *testing.T) {
	p := &Pattern{}
	got, err := p.GetKeywords()
	if err != nil {
		t.Fatalf("GetKeywords() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty list, got %v", got)
	}
}

func TestEffectiveTier(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	tests := []struct {
		name     string
		quota    AgentQuota
		expected string
	}{
		{"free wallet", AgentQuota{Tier: TierFree}, TierFree},
		{"active pro", AgentQuota{Tier: TierPro, PaidUntil: &future}, TierPro},
		{"expired pro gates as free", AgentQuota{Tier: TierPro, PaidUntil: &past}, TierFree},
		{"pro without expiry", AgentQuota{Tier: TierPro, PaidUntil: nil}, TierPro},
		{"free with stale paid_until", AgentQuota{Tier: TierFree, PaidUntil: &future}, TierFree},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.quota.EffectiveTier(now); got != tt.expected {
				t.Errorf("EffectiveTier() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestTableNames(t *testing.T) {
	tests := []struct {
		model    interface{ TableName() string }
		expected string
	}{
		{RoutingDecision{}, "routing_decisions"},
		{Pattern{}, "patterns"},
		{ModelPerformance{}, "model_performance"},
		{AgentQuota{}, "agent_quotas"},
		{SystemLog{}, "system_logs"},
	}
	for _, tt := range tests {
		if got := tt.model.TableName(); got != tt.expected {
			t.Errorf("TableName() = %q, expected %q", got, tt.expected)
		}
	}
}
