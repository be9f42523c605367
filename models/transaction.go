// models/transaction.go - Ledger records and the closed currency enumeration
package models

import (
	"time"
)

// CurrencyKind is the closed set of exchangeable units tracked per account.
type CurrencyKind string

const (
	// CurrencyCoins is the primary wish currency.
	CurrencyCoins CurrencyKind = "coins"
	// CurrencyStars is the universal bonus currency (10 coins = 1 star).
	CurrencyStars CurrencyKind = "stars"
)

func (k CurrencyKind) Valid() bool {
	switch k {
	case CurrencyCoins, CurrencyStars:
		return true
	}
	return false
}

// BalanceColumn maps a currency kind to its accounts column.
func (k CurrencyKind) BalanceColumn() string {
	switch k {
	case CurrencyStars:
		return "stars_balance"
	default:
		return "coins_balance"
	}
}

// QuotaWindow is a rolling cap period for rate-limited actions.
type QuotaWindow string

const (
	WindowDaily   QuotaWindow = "daily"
	WindowWeekly  QuotaWindow = "weekly"
	WindowMonthly QuotaWindow = "monthly"
)

func (w QuotaWindow) Valid() bool {
	switch w {
	case WindowDaily, WindowWeekly, WindowMonthly:
		return true
	}
	return false
}

// UsedColumn maps a quota window to its accounts counter column.
func (w QuotaWindow) UsedColumn() string {
	switch w {
	case WindowWeekly:
		return "weekly_quota_used"
	case WindowMonthly:
		return "monthly_quota_used"
	default:
		return "daily_quota_used"
	}
}

// Transaction direction.
const (
	DirectionCredit = "credit"
	DirectionDebit  = "debit"
)

// Transaction is an immutable, append-only ledger record. CurrencyKind is
// optional: a nil kind means no currency moved and the row carries only an
// experience delta. Amount and ExperienceDelta are independent fields.
type Transaction struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	AccountID       uint          `gorm:"not null;index" json:"account_id"`
	Account         *Account      `gorm:"foreignKey:AccountID" json:"-"`
	Direction       string        `gorm:"not null;size:10" json:"direction"`
	CurrencyKind    *CurrencyKind `gorm:"size:20" json:"currency_kind,omitempty"`
	Amount          int64         `gorm:"not null;default:0" json:"amount"`
	ExperienceDelta int           `gorm:"not null;default:0" json:"experience_delta"`
	Reason          string        `gorm:"size:200" json:"reason"`
	Category        string        `gorm:"size:50;index" json:"category"`
	Source          string        `gorm:"size:50" json:"source"`
	ReferenceID     *string       `gorm:"size:64;index" json:"reference_id,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}

// Transaction categories.
const (
	CategoryWish     = "wish"
	CategoryQuest    = "quest"
	CategoryEvent    = "event"
	CategoryExchange = "exchange"
	CategoryBonus    = "bonus"
	CategoryRefund   = "refund"
)
