package services

import (
	"testing"
)

func TestConfidence(t *testing.T) {
	tests := []struct {
		name       string
		success    int
		failure    int
		minSamples int
		expected   float64
	}{
		{"no samples", 0, 0, 5, 0},
		{"below threshold dampened", 2, 0, 5, 0.4},
		{"at threshold raw ratio", 3, 2, 5, 0.6},
		{"above threshold raw ratio", 8, 2, 5, 0.8},
		{"single failure dampened", 1, 3, 5, 0.2},
		{"all failures", 0, 5, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Confidence(tt.success, tt.failure, tt.minSamples)
			if got != tt.expected {
				t.Errorf("Confidence(%d, %d, %d) = %f, expected %f",
					tt.success, tt.failure, tt.minSamples, got, tt.expected)
			}
		})
	}
}

func TestConfidence_DampenedBelowRaw(t *testing.T) {
	// With few samples the confidence must stay below the raw success
	// ratio, so a 1/1 pattern cannot outrank a proven 8/10 one.
	got := Confidence(1, 0, 5)
	if got >= 1.0 {
		t.Errorf("Confidence(1, 0, 5) = %f, must be dampened below 1.0", got)
	}
	if got != 0.2 {
		t.Errorf("Confidence(1, 0, 5) = %f, expected 0.2", got)
	}
}

func TestCreatePattern_Validation(t *testing.T) {
	svc := NewPatternService(nil, nil)

	valid := func() *CreatePatternRequest {
		return &CreatePatternRequest{
			WalletAddress:    "0xabc",
			TaskType:         "code",
			ComplexityMin:    0.2,
			ComplexityMax:    0.8,
			RecommendedModel: "gpt-4o",
		}
	}

	tests := []struct {
		name   string
		mutate func(*CreatePatternRequest)
	}{
		{"missing wallet", func(r *CreatePatternRequest) { r.WalletAddress = "" }},
		{"missing task type", func(r *CreatePatternRequest) { r.TaskType = "" }},
		{"missing model", func(r *CreatePatternRequest) { r.RecommendedModel = "" }},
		{"inverted complexity range", func(r *CreatePatternRequest) { r.ComplexityMin = 0.8; r.ComplexityMax = 0.2 }},
		{"complexity below zero", func(r *CreatePatternRequest) { r.ComplexityMin = -0.1 }},
		{"complexity above one", func(r *CreatePatternRequest) { r.ComplexityMax = 1.1 }},
		{"inverted context range", func(r *CreatePatternRequest) { r.ContextMin = 500; r.ContextMax = 100 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)
			if _, err := svc.Create(req); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}
