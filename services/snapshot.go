// services/snapshot.go - Composed economy snapshot and daily bonus
package services

import (
	"fmt"
	"time"

	"wishwell/models"
	"wishwell/progression"

	"gorm.io/gorm"
)

// Snapshot is the composed economy view for one account.
type Snapshot struct {
	AccountID  uint                               `json:"account_id"`
	Username   string                             `json:"username"`
	Balances   map[models.CurrencyKind]int64      `json:"balances"`
	Quotas     map[models.QuotaWindow]QuotaStatus `json:"quotas"`
	Experience int                                `json:"experience"`
	Rank       progression.Rank                   `json:"rank"`
	Progress   progression.Progress               `json:"progress"`
	Activity   map[string]int                     `json:"activity"`
}

// Snapshot composes balances per currency kind, quota windows, activity
// counters and rank progress for one account.
func (l *Ledger) Snapshot(accountID uint) (*Snapshot, error) {
	var account models.Account
	if err := l.db.First(&account, accountID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: account %d", ErrNotFound, accountID)
		}
		return nil, err
	}

	quotas, err := l.GetQuotas(accountID)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		AccountID: account.ID,
		Username:  account.Username,
		Balances: map[models.CurrencyKind]int64{
			models.CurrencyCoins: account.CoinsBalance,
			models.CurrencyStars: account.StarsBalance,
		},
		Quotas:     quotas,
		Experience: account.Experience,
		Rank:       l.ranks.CurrentRank(account.Experience),
		Progress:   l.ranks.RankProgress(account.Experience),
		Activity: map[string]int{
			"wishes_granted":   account.WishesGranted,
			"quests_completed": account.QuestsCompleted,
			"events_completed": account.EventsCompleted,
		},
	}, nil
}

// AwardDailyBonus grants the daily-login experience at most once per UTC
// day. Returns the transaction result, or nil when the bonus was already
// claimed today.
func (l *Ledger) AwardDailyBonus(accountID uint) (*TransactionResult, error) {
	var account models.Account
	if err := l.db.First(&account, accountID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: account %d", ErrNotFound, accountID)
		}
		return nil, err
	}

	now := time.Now().UTC()
	today := now.Truncate(24 * time.Hour)
	if account.LastDailyBonus != nil && !account.LastDailyBonus.UTC().Before(today) {
		return nil, nil
	}

	// Claim the day and record the bonus in one unit of work; a concurrent
	// login loses the guarded update and does not double-award, and a
	// failed transaction releases the claim.
	var result *TransactionResult
	err := l.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Account{}).
			Where("id = ? AND (last_daily_bonus IS NULL OR last_daily_bonus < ?)", accountID, today).
			Update("last_daily_bonus", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		r, err := NewLedger(tx, l.ranks).RecordTransaction(TransactionInput{
			AccountID:       accountID,
			Direction:       models.DirectionCredit,
			ExperienceDelta: progression.ExperienceFor(progression.ActionDailyLogin, 1),
			Reason:          "Daily login bonus",
			Category:        models.CategoryBonus,
			Source:          "login",
		})
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
