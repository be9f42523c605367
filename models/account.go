// models/account.go
package models

import (
	"time"
)

type Account struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Username    string  `gorm:"uniqueIndex;not null" json:"username"`
	Email       *string `gorm:"uniqueIndex" json:"email,omitempty"`
	Password    string  `gorm:"not null" json:"-"`
	DisplayName string  `json:"display_name"`
	PartnerID   *uint   `gorm:"index" json:"partner_id,omitempty"`
	Partner     *Account `gorm:"foreignKey:PartnerID" json:"-"`
	IsAdmin     bool    `gorm:"default:false" json:"is_admin"`

	// Progression. Experience only grows; Rank is a cached projection of it.
	Experience int `gorm:"default:0" json:"experience"`
	Rank       int `gorm:"default:1" json:"rank"`

	// Balances, one column per currency kind.
	CoinsBalance int64 `gorm:"default:0" json:"coins_balance"`
	StarsBalance int64 `gorm:"default:0" json:"stars_balance"`

	// Rolling quota counters. A single reset timestamp covers all three
	// windows: a counter whose window boundary has passed since the last
	// reset reads as zero until the next consuming write rolls it.
	DailyQuotaUsed   int       `gorm:"default:0" json:"daily_quota_used"`
	WeeklyQuotaUsed  int       `gorm:"default:0" json:"weekly_quota_used"`
	MonthlyQuotaUsed int       `gorm:"default:0" json:"monthly_quota_used"`
	LastQuotaReset   time.Time `json:"last_quota_reset"`

	// Activity counters
	WishesGranted   int `gorm:"default:0" json:"wishes_granted"`
	QuestsCompleted int `gorm:"default:0" json:"quests_completed"`
	EventsCompleted int `gorm:"default:0" json:"events_completed"`

	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	LastLogin      time.Time  `json:"last_login"`
	LastDailyBonus *time.Time `json:"last_daily_bonus,omitempty"`

	Transactions []Transaction `gorm:"foreignKey:AccountID" json:"transactions,omitempty"`
}

func (Account) TableName() string {
	return "accounts"
}

// Balance returns the balance for the given currency kind.
func (a *Account) Balance(kind CurrencyKind) int64 {
	switch kind {
	case CurrencyCoins:
		return a.CoinsBalance
	case CurrencyStars:
		return a.StarsBalance
	default:
		return 0
	}
}

// QuotaUsed returns the raw persisted counter for a window, before any
// logical reset is applied.
func (a *Account) QuotaUsed(window QuotaWindow) int {
	switch window {
	case WindowDaily:
		return a.DailyQuotaUsed
	case WindowWeekly:
		return a.WeeklyQuotaUsed
	case WindowMonthly:
		return a.MonthlyQuotaUsed
	default:
		return 0
	}
}
