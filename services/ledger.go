// services/ledger.go - Ledger & Quota Manager
//
// All mutations to account balances, experience and quota counters happen
// here, always through creation of a Transaction row. Balance and counter
// updates use guarded UPDATE ... WHERE expressions so concurrent calls
// against the same account are serialized by the store.
package services

import (
	"fmt"

	"wishwell/models"
	"wishwell/progression"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base quota limits before rank bonuses.
const (
	BaseDailyQuota   = 5
	BaseWeeklyQuota  = 20
	BaseMonthlyQuota = 60
)

// CoinsPerStar is the fixed exchange rate between the two currency kinds.
const CoinsPerStar = 10

type Ledger struct {
	db    *gorm.DB
	ranks *progression.Table
}

func NewLedger(db *gorm.DB, ranks *progression.Table) *Ledger {
	return &Ledger{db: db, ranks: ranks}
}

// TransactionInput describes one ledger mutation. CurrencyKind may be nil
// for a pure-experience transaction.
type TransactionInput struct {
	AccountID       uint
	Direction       string
	CurrencyKind    *models.CurrencyKind
	Amount          int64
	ExperienceDelta int
	Reason          string
	Category        string
	Source          string
	ReferenceID     *string
}

// TransactionResult reports the created row plus any rank promotion the
// experience delta caused.
type TransactionResult struct {
	Transaction models.Transaction
	NewBalance  int64
	Promotion   progression.PromotionResult
}

func (in TransactionInput) validate() error {
	if in.AccountID == 0 {
		return fmt.Errorf("%w: account id required", ErrValidation)
	}
	if in.Direction != models.DirectionCredit && in.Direction != models.DirectionDebit {
		return fmt.Errorf("%w: direction must be credit or debit", ErrValidation)
	}
	if in.Amount < 0 {
		return fmt.Errorf("%w: amount must be non-negative", ErrValidation)
	}
	if in.ExperienceDelta < 0 {
		return fmt.Errorf("%w: experience never decreases", ErrValidation)
	}
	if in.CurrencyKind != nil && !in.CurrencyKind.Valid() {
		return fmt.Errorf("%w: unknown currency kind %q", ErrValidation, *in.CurrencyKind)
	}
	if in.CurrencyKind == nil && in.Amount > 0 {
		return fmt.Errorf("%w: amount without a currency kind", ErrValidation)
	}
	if (in.CurrencyKind == nil || in.Amount == 0) && in.ExperienceDelta == 0 {
		return fmt.Errorf("%w: transaction moves neither currency nor experience", ErrValidation)
	}
	return nil
}

// RecordTransaction validates the input, then inside one unit of work
// creates the Transaction row and adjusts the account's balance and
// experience. All-or-nothing: a failed balance guard aborts the enclosing
// transaction leaving prior state unchanged.
func (l *Ledger) RecordTransaction(in TransactionInput) (*TransactionResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var result TransactionResult
	err := l.db.Transaction(func(tx *gorm.DB) error {
		var account models.Account
		if err := tx.First(&account, in.AccountID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: account %d", ErrNotFound, in.AccountID)
			}
			return err
		}

		if in.CurrencyKind != nil && in.Amount > 0 {
			col := in.CurrencyKind.BalanceColumn()
			var res *gorm.DB
			if in.Direction == models.DirectionDebit {
				res = tx.Model(&models.Account{}).
					Where("id = ? AND "+col+" >= ?", in.AccountID, in.Amount).
					Update(col, gorm.Expr(col+" - ?", in.Amount))
			} else {
				res = tx.Model(&models.Account{}).
					Where("id = ?", in.AccountID).
					Update(col, gorm.Expr(col+" + ?", in.Amount))
			}
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: %s balance %d, need %d",
					ErrInsufficientFunds, *in.CurrencyKind, account.Balance(*in.CurrencyKind), in.Amount)
			}
			// Re-read after the guarded update: deriving from the earlier
			// read would report a stale figure under a concurrent credit.
			if err := tx.Model(&models.Account{}).Where("id = ?", in.AccountID).
				Select(col).Scan(&result.NewBalance).Error; err != nil {
				return err
			}
		}

		if in.ExperienceDelta > 0 {
			newExperience := account.Experience + in.ExperienceDelta
			newRank := l.ranks.CurrentRank(newExperience)
			if err := tx.Model(&models.Account{}).Where("id = ?", in.AccountID).
				Updates(map[string]interface{}{
					"experience": gorm.Expr("experience + ?", in.ExperienceDelta),
					"rank":       newRank.Level,
				}).Error; err != nil {
				return err
			}
			result.Promotion = l.ranks.CheckPromotion(account.Experience, newExperience)
		}

		record := models.Transaction{
			AccountID:       in.AccountID,
			Direction:       in.Direction,
			CurrencyKind:    in.CurrencyKind,
			Amount:          in.Amount,
			ExperienceDelta: in.ExperienceDelta,
			Reason:          in.Reason,
			Category:        in.Category,
			Source:          in.Source,
			ReferenceID:     in.ReferenceID,
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrIntegrity, err)
		}
		result.Transaction = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Exchange converts between currency kinds at the fixed rate, modeled as a
// paired debit+credit executed atomically. Partial application is not a
// valid end state.
func (l *Ledger) Exchange(accountID uint, from, to models.CurrencyKind, fromAmount int64) (*TransactionResult, error) {
	if !from.Valid() || !to.Valid() || from == to {
		return nil, fmt.Errorf("%w: invalid exchange pair %s -> %s", ErrValidation, from, to)
	}
	if fromAmount <= 0 {
		return nil, fmt.Errorf("%w: exchange amount must be positive", ErrValidation)
	}

	var toAmount int64
	if from == models.CurrencyCoins {
		if fromAmount%CoinsPerStar != 0 {
			return nil, fmt.Errorf("%w: coins must exchange in multiples of %d", ErrValidation, CoinsPerStar)
		}
		toAmount = fromAmount / CoinsPerStar
	} else {
		toAmount = fromAmount * CoinsPerStar
	}

	ref := uuid.New().String()
	var result *TransactionResult
	err := l.db.Transaction(func(tx *gorm.DB) error {
		inner := NewLedger(tx, l.ranks)
		if _, err := inner.RecordTransaction(TransactionInput{
			AccountID:    accountID,
			Direction:    models.DirectionDebit,
			CurrencyKind: &from,
			Amount:       fromAmount,
			Reason:       fmt.Sprintf("Exchanged %d %s for %d %s", fromAmount, from, toAmount, to),
			Category:     models.CategoryExchange,
			Source:       "exchange",
			ReferenceID:  &ref,
		}); err != nil {
			return err
		}
		res, err := inner.RecordTransaction(TransactionInput{
			AccountID:    accountID,
			Direction:    models.DirectionCredit,
			CurrencyKind: &to,
			Amount:       toAmount,
			Reason:       fmt.Sprintf("Received %d %s for %d %s", toAmount, to, fromAmount, from),
			Category:     models.CategoryExchange,
			Source:       "exchange",
			ReferenceID:  &ref,
		})
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Transactions returns the most recent ledger rows for an account.
func (l *Ledger) Transactions(accountID uint, limit int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []models.Transaction
	err := l.db.Where("account_id = ?", accountID).
		Order("created_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}
