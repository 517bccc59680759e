package services

import (
	"fmt"
	"time"

	"github.com/routewise/routewise/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// timeNow is stubbed in tests that exercise date rollover and pro expiry.
var timeNow = time.Now

// QuotaService gates decisions per wallet and day. Rows are created
// lazily with free-tier defaults, the daily counter resets lazily on date
// change, and a pro tier whose paid_until has passed gates as free without
// a background job.
type QuotaService struct {
	db *gorm.DB
}

func NewQuotaService(db *gorm.DB) *QuotaService {
	return &QuotaService{db: db}
}

// Get returns the wallet's quota record, creating it with free-tier
// defaults on first access and applying the date rollover.
func (s *QuotaService) Get(wallet string) (*models.AgentQuota, error) {
	today := timeNow().Format(models.QuotaDateFormat)

	// Upsert-with-defaults keeps first access race-free under concurrent
	// callers.
	defaults := models.AgentQuota{
		WalletAddress:  wallet,
		Tier:           models.TierFree,
		DecisionsToday: 0,
		DecisionsLimit: models.FreeDailyDecisions,
		LastReset:      today,
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wallet_address"}},
		DoNothing: true,
	}).Create(&defaults).Error; err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.AgentQuota{}).
		Where("wallet_address = ? AND last_reset <> ?", wallet, today).
		Updates(map[string]interface{}{
			"decisions_today": 0,
			"last_reset":      today,
		}).Error; err != nil {
		return nil, err
	}

	var quota models.AgentQuota
	if err := s.db.Where("wallet_address = ?", wallet).First(&quota).Error; err != nil {
		return nil, err
	}
	return &quota, nil
}

// QuotaStatus reports availability for the gating caller. Remaining is
// models.UnlimitedDecisions for non-expired pro wallets.
type QuotaStatus struct {
	WalletAddress string `json:"wallet_address"`
	Tier          string `json:"tier"`
	Available     bool   `json:"available"`
	Remaining     int    `json:"remaining"`
	Limit         int    `json:"limit"`
	Used          int    `json:"used"`
}

// CheckAvailable reports whether the wallet may record another decision
// today. Quota exhaustion is data, not an error; the calling layer decides
// whether to deny service.
func (s *QuotaService) CheckAvailable(wallet string) (*QuotaStatus, error) {
	quota, err := s.Get(wallet)
	if err != nil {
		return nil, err
	}

	tier := quota.EffectiveTier(timeNow())
	if tier == models.TierPro {
		return &QuotaStatus{
			WalletAddress: wallet,
			Tier:          tier,
			Available:     true,
			Remaining:     models.UnlimitedDecisions,
			Limit:         models.UnlimitedDecisions,
			Used:          quota.DecisionsToday,
		}, nil
	}

	// An expired pro wallet may still carry the unlimited sentinel; the
	// free cap applies until an explicit downgrade.
	limit := quota.DecisionsLimit
	if limit == models.UnlimitedDecisions {
		limit = models.FreeDailyDecisions
	}
	remaining := limit - quota.DecisionsToday
	if remaining < 0 {
		remaining = 0
	}
	return &QuotaStatus{
		WalletAddress: wallet,
		Tier:          tier,
		Available:     quota.DecisionsToday < limit,
		Remaining:     remaining,
		Limit:         limit,
		Used:          quota.DecisionsToday,
	}, nil
}

// Increment atomically bumps today's decision counter. The UPDATE is
// guarded by last_reset so a date rollover between read and write cannot
// leak an increment into the new day.
func (s *QuotaService) Increment(wallet string) error {
	for attempt := 0; attempt < 2; attempt++ {
		quota, err := s.Get(wallet)
		if err != nil {
			return err
		}

		result := s.db.Model(&models.AgentQuota{}).
			Where("wallet_address = ? AND last_reset = ?", wallet, quota.LastReset).
			UpdateColumn("decisions_today", gorm.Expr("decisions_today + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}
		// Date rolled over mid-flight; retry once against the new day.
	}
	return fmt.Errorf("failed to increment decision count for wallet %s", wallet)
}

// UpdateTier transitions the wallet between free and pro, overwriting
// paid_until. Invoked by the payment-verification collaborator once a
// transaction is confirmed.
func (s *QuotaService) UpdateTier(wallet, tier string, paidUntil *time.Time) (*models.AgentQuota, error) {
	if tier != models.TierFree && tier != models.TierPro {
		return nil, fmt.Errorf("unknown tier %q", tier)
	}

	if _, err := s.Get(wallet); err != nil {
		return nil, err
	}

	limit := models.FreeDailyDecisions
	if tier == models.TierPro {
		limit = models.UnlimitedDecisions
	}

	err := s.db.Model(&models.AgentQuota{}).
		Where("wallet_address = ?", wallet).
		Updates(map[string]interface{}{
			"tier":            tier,
			"decisions_limit": limit,
			"paid_until":      paidUntil,
		}).Error
	if err != nil {
		return nil, err
	}

	var quota models.AgentQuota
	if err := s.db.Where("wallet_address = ?", wallet).First(&quota).Error; err != nil {
		return nil, err
	}
	return &quota, nil
}
