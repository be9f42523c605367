package services

import (
	"testing"

	"wishwell/models"
	"wishwell/progression"
)

func TestSnapshotComposition(t *testing.T) {
	db := newTestDB(t)
	ledger := newTestLedger(db)
	account := createTestAccount(t, db, 40)
	db.Model(account).Updates(map[string]interface{}{
		"stars_balance":  2,
		"experience":     257,
		"wishes_granted": 3,
	})

	snapshot, err := ledger.Snapshot(account.ID)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if snapshot.Balances[models.CurrencyCoins] != 40 {
		t.Errorf("coins = %d, want 40", snapshot.Balances[models.CurrencyCoins])
	}
	if snapshot.Balances[models.CurrencyStars] != 2 {
		t.Errorf("stars = %d, want 2", snapshot.Balances[models.CurrencyStars])
	}
	if snapshot.Rank.Name != "Wisher" {
		t.Errorf("rank = %s, want Wisher", snapshot.Rank.Name)
	}
	if snapshot.Progress.ExperienceToNext != 43 {
		t.Errorf("experience to next = %d, want 43", snapshot.Progress.ExperienceToNext)
	}
	if snapshot.Activity["wishes_granted"] != 3 {
		t.Errorf("wishes granted = %d, want 3", snapshot.Activity["wishes_granted"])
	}
	if len(snapshot.Quotas) != 3 {
		t.Errorf("quota windows = %d, want 3", len(snapshot.Quotas))
	}
}

func TestAwardDailyBonusOncePerDay(t *testing.T) {
	db := newTestDB(t)
	ledger := newTestLedger(db)
	account := createTestAccount(t, db, 0)

	first, err := ledger.AwardDailyBonus(account.ID)
	if err != nil {
		t.Fatalf("first award: %v", err)
	}
	if first == nil {
		t.Fatal("first award returned nil")
	}
	want := progression.ExperienceFor(progression.ActionDailyLogin, 1)
	if first.Transaction.ExperienceDelta != want {
		t.Errorf("bonus experience = %d, want %d", first.Transaction.ExperienceDelta, want)
	}

	second, err := ledger.AwardDailyBonus(account.ID)
	if err != nil {
		t.Fatalf("second award: %v", err)
	}
	if second != nil {
		t.Error("bonus awarded twice in one day")
	}

	var reloaded models.Account
	db.First(&reloaded, account.ID)
	if reloaded.Experience != want {
		t.Errorf("experience = %d, want %d", reloaded.Experience, want)
	}
}

func TestAwardDailyBonusFailureReleasesClaim(t *testing.T) {
	db := newTestDB(t)
	ledger := newTestLedger(db)
	account := createTestAccount(t, db, 0)

	// Break the ledger write so the award fails after the day is claimed.
	if err := db.Exec("DROP TABLE transactions").Error; err != nil {
		t.Fatal(err)
	}

	if _, err := ledger.AwardDailyBonus(account.ID); err == nil {
		t.Fatal("award succeeded without a transactions table")
	}

	// The claim must roll back with the failed transaction, not burn the day.
	var reloaded models.Account
	db.First(&reloaded, account.ID)
	if reloaded.LastDailyBonus != nil {
		t.Error("failed award left the day claimed")
	}
	if reloaded.Experience != 0 {
		t.Errorf("experience = %d, want 0", reloaded.Experience)
	}
}
