package services

import (
	"testing"

	"github.com/routewise/routewise/internal/models"
)

func TestUpdateTier_RejectsUnknownTier(t *testing.T) {
	svc := NewQuotaService(nil)

	if _, err := svc.UpdateTier("0xabc", "platinum", nil); err == nil {
		t.Error("unknown tier should be rejected")
	}
}

func TestQuotaConstants(t *testing.T) {
	if models.FreeDailyDecisions != 100 {
		t.Errorf("FreeDailyDecisions = %d", models.FreeDailyDecisions)
	}
	if models.UnlimitedDecisions != -1 {
		t.Errorf("UnlimitedDecisions = %d", models.UnlimitedDecisions)
	}
	if models.QuotaDateFormat != "2006-01-02" {
		t.Errorf("QuotaDateFormat = %q", models.QuotaDateFormat)
	}
}
