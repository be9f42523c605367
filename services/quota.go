// services/quota.go - Rolling quota windows
package services

import (
	"fmt"
	"time"

	"wishwell/models"

	"gorm.io/gorm"
)

// QuotaStatus reports one window of an account's rolling usage.
type QuotaStatus struct {
	Window    models.QuotaWindow `json:"window"`
	Used      int                `json:"used"`
	Limit     int                `json:"limit"`
	Remaining int                `json:"remaining"`
	ResetTime time.Time          `json:"reset_time"`
}

// windowStart returns the UTC boundary of the period containing now.
// Weeks start on Monday.
func windowStart(window models.QuotaWindow, now time.Time) time.Time {
	now = now.UTC()
	switch window {
	case models.WindowWeekly:
		day := now.Truncate(24 * time.Hour)
		offset := (int(now.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case models.WindowMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return now.Truncate(24 * time.Hour)
	}
}

// nextReset returns when the window containing now rolls over.
func nextReset(window models.QuotaWindow, now time.Time) time.Time {
	start := windowStart(window, now)
	switch window {
	case models.WindowWeekly:
		return start.AddDate(0, 0, 7)
	case models.WindowMonthly:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// effectiveUsed applies the logical reset: a counter whose window boundary
// passed since the last reset reads as zero.
func effectiveUsed(account *models.Account, window models.QuotaWindow, now time.Time) int {
	if account.LastQuotaReset.Before(windowStart(window, now)) {
		return 0
	}
	return account.QuotaUsed(window)
}

func (l *Ledger) quotaLimit(account *models.Account, window models.QuotaWindow) int {
	switch window {
	case models.WindowWeekly:
		return BaseWeeklyQuota
	case models.WindowMonthly:
		return BaseMonthlyQuota
	default:
		rank := l.ranks.CurrentRank(account.Experience)
		return BaseDailyQuota + rank.DailyQuotaBonus
	}
}

// GetQuotas reports usage, limit, remaining and reset time per window.
// Remaining never goes negative.
func (l *Ledger) GetQuotas(accountID uint) (map[models.QuotaWindow]QuotaStatus, error) {
	var account models.Account
	if err := l.db.First(&account, accountID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: account %d", ErrNotFound, accountID)
		}
		return nil, err
	}

	now := time.Now().UTC()
	quotas := make(map[models.QuotaWindow]QuotaStatus, 3)
	for _, w := range []models.QuotaWindow{models.WindowDaily, models.WindowWeekly, models.WindowMonthly} {
		used := effectiveUsed(&account, w, now)
		limit := l.quotaLimit(&account, w)
		remaining := limit - used
		if remaining < 0 {
			remaining = 0
		}
		quotas[w] = QuotaStatus{
			Window:    w,
			Used:      used,
			Limit:     limit,
			Remaining: remaining,
			ResetTime: nextReset(w, now),
		}
	}
	return quotas, nil
}

// ConsumeQuota rolls any window whose boundary has passed, then increments
// usage atomically. Exceeding the limit fails with ErrQuotaExceeded and
// leaves the counter unchanged.
func (l *Ledger) ConsumeQuota(accountID uint, window models.QuotaWindow, amount int) error {
	if !window.Valid() {
		return fmt.Errorf("%w: unknown quota window %q", ErrValidation, window)
	}
	if amount <= 0 {
		return fmt.Errorf("%w: quota amount must be positive", ErrValidation)
	}

	return l.db.Transaction(func(tx *gorm.DB) error {
		var account models.Account
		if err := tx.First(&account, accountID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: account %d", ErrNotFound, accountID)
			}
			return err
		}

		now := time.Now().UTC()
		resets := map[string]interface{}{}
		for _, w := range []models.QuotaWindow{models.WindowDaily, models.WindowWeekly, models.WindowMonthly} {
			if account.LastQuotaReset.Before(windowStart(w, now)) {
				resets[w.UsedColumn()] = 0
			}
		}
		if len(resets) > 0 {
			resets["last_quota_reset"] = now
			if err := tx.Model(&models.Account{}).Where("id = ?", accountID).
				Updates(resets).Error; err != nil {
				return err
			}
		}

		limit := l.quotaLimit(&account, window)
		col := window.UsedColumn()
		res := tx.Model(&models.Account{}).
			Where("id = ? AND "+col+" + ? <= ?", accountID, amount, limit).
			Update(col, gorm.Expr(col+" + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s window at limit %d", ErrQuotaExceeded, window, limit)
		}
		return nil
	})
}
