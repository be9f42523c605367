package services

import (
	"errors"
	"testing"
	"time"

	"wishwell/models"
)

func TestWindowStart(t *testing.T) {
	// Wednesday 2026-08-26 15:04 UTC.
	now := time.Date(2026, 8, 26, 15, 4, 0, 0, time.UTC)

	tests := []struct {
		window models.QuotaWindow
		want   time.Time
	}{
		{models.WindowDaily, time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)},
		{models.WindowWeekly, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)}, // Monday
		{models.WindowMonthly, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(string(tt.window), func(t *testing.T) {
			if got := windowStart(tt.window, now); !got.Equal(tt.want) {
				t.Errorf("windowStart = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWindowStartOnMonday(t *testing.T) {
	monday := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	if got := windowStart(models.WindowWeekly, monday); !got.Equal(time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("week containing Monday should start that Monday, got %v", got)
	}

	sunday := time.Date(2026, 8, 23, 23, 59, 0, 0, time.UTC)
	if got := windowStart(models.WindowWeekly, sunday); !got.Equal(time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("week containing Sunday should start the prior Monday, got %v", got)
	}
}

func TestNextReset(t *testing.T) {
	now := time.Date(2026, 8, 26, 15, 4, 0, 0, time.UTC)

	tests := []struct {
		window models.QuotaWindow
		want   time.Time
	}{
		{models.WindowDaily, time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)},
		{models.WindowWeekly, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)},
		{models.WindowMonthly, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(string(tt.window), func(t *testing.T) {
			if got := nextReset(tt.window, now); !got.Equal(tt.want) {
				t.Errorf("nextReset = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEffectiveUsedLogicalReset(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	account := &models.Account{
		DailyQuotaUsed:   4,
		WeeklyQuotaUsed:  12,
		MonthlyQuotaUsed: 30,
	}

	// Reset stamped yesterday: the daily window rolled, the others did not.
	account.LastQuotaReset = time.Date(2026, 8, 25, 18, 0, 0, 0, time.UTC)
	if got := effectiveUsed(account, models.WindowDaily, now); got != 0 {
		t.Errorf("daily after boundary = %d, want 0", got)
	}
	if got := effectiveUsed(account, models.WindowWeekly, now); got != 12 {
		t.Errorf("weekly within window = %d, want 12", got)
	}
	if got := effectiveUsed(account, models.WindowMonthly, now); got != 30 {
		t.Errorf("monthly within window = %d, want 30", got)
	}

	// Reset stamped last month: everything reads zero.
	account.LastQuotaReset = time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC)
	for _, w := range []models.QuotaWindow{models.WindowDaily, models.WindowWeekly, models.WindowMonthly} {
		if got := effectiveUsed(account, w, now); got != 0 {
			t.Errorf("%s after month boundary = %d, want 0", w, got)
		}
	}
}

func TestConsumeQuotaAtLimit(t *testing.T) {
	db := newTestDB(t)
	ledger := newTestLedger(db)
	account := createTestAccount(t, db, 0)
	db.Model(account).Update("daily_quota_used", BaseDailyQuota)

	err := ledger.ConsumeQuota(account.ID, models.WindowDaily, 1)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("got %v, want ErrQuotaExceeded", err)
	}

	var reloaded models.Account
	db.First(&reloaded, account.ID)
	if reloaded.DailyQuotaUsed != BaseDailyQuota {
		t.Errorf("counter = %d, want %d unchanged", reloaded.DailyQuotaUsed, BaseDailyQuota)
	}
}

func TestConsumeQuotaIncrements(t *testing.T) {
	db := newTestDB(t)
	ledger := newTestLedger(db)
	account := createTestAccount(t, db, 0)

	for i := 0; i < BaseDailyQuota; i++ {
		if err := ledger.ConsumeQuota(account.ID, models.WindowDaily, 1); err != nil {
			t.Fatalf("consume %d: %v", i+1, err)
		}
	}
	if err := ledger.ConsumeQuota(account.ID, models.WindowDaily, 1); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("got %v, want ErrQuotaExceeded", err)
	}

	var reloaded models.Account
	db.First(&reloaded, account.ID)
	if reloaded.DailyQuotaUsed != BaseDailyQuota {
		t.Errorf("counter = %d, want %d", reloaded.DailyQuotaUsed, BaseDailyQuota)
	}
	if reloaded.WeeklyQuotaUsed != 0 {
		t.Errorf("weekly counter = %d, want 0", reloaded.WeeklyQuotaUsed)
	}
}

func TestConsumeQuotaRollsStaleWindows(t *testing.T) {
	db := newTestDB(t)
	ledger := newTestLedger(db)
	account := createTestAccount(t, db, 0)

	stale := time.Now().UTC().AddDate(0, -2, 0)
	db.Model(account).Updates(map[string]interface{}{
		"daily_quota_used":   BaseDailyQuota,
		"weekly_quota_used":  BaseWeeklyQuota,
		"monthly_quota_used": BaseMonthlyQuota,
		"last_quota_reset":   stale,
	})

	if err := ledger.ConsumeQuota(account.ID, models.WindowDaily, 1); err != nil {
		t.Fatalf("consume after stale reset: %v", err)
	}

	var reloaded models.Account
	db.First(&reloaded, account.ID)
	if reloaded.DailyQuotaUsed != 1 {
		t.Errorf("daily counter = %d, want 1", reloaded.DailyQuotaUsed)
	}
	if reloaded.WeeklyQuotaUsed != 0 || reloaded.MonthlyQuotaUsed != 0 {
		t.Errorf("stale counters survived the roll: weekly %d monthly %d",
			reloaded.WeeklyQuotaUsed, reloaded.MonthlyQuotaUsed)
	}
	if !reloaded.LastQuotaReset.After(stale) {
		t.Error("last_quota_reset was not advanced")
	}
}

func TestGetQuotasRemainingNeverNegative(t *testing.T) {
	db := newTestDB(t)
	ledger := newTestLedger(db)
	account := createTestAccount(t, db, 0)
	db.Model(account).Update("daily_quota_used", BaseDailyQuota+3)

	quotas, err := ledger.GetQuotas(account.ID)
	if err != nil {
		t.Fatalf("GetQuotas: %v", err)
	}
	daily := quotas[models.WindowDaily]
	if daily.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", daily.Remaining)
	}
	if daily.Limit != BaseDailyQuota {
		t.Errorf("limit = %d, want %d", daily.Limit, BaseDailyQuota)
	}
}
