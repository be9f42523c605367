package services

import (
	"context"
	"testing"
	"time"

	"wishwell/models"
)

func TestGenerateDueCreatesForEligible(t *testing.T) {
	db := newTestDB(t)
	generator := NewEventGenerator(db)
	generator.Chance = 1 // deterministic

	account := createTestAccount(t, db, 0)

	created, err := generator.GenerateDue(context.Background())
	if err != nil {
		t.Fatalf("GenerateDue: %v", err)
	}
	if created != 1 {
		t.Fatalf("created = %d, want 1", created)
	}

	event, err := generator.PendingFor(account.ID)
	if err != nil {
		t.Fatalf("PendingFor: %v", err)
	}
	if event == nil {
		t.Fatal("no pending event found")
	}
	if event.Kind == "" || event.RewardExperience == 0 {
		t.Errorf("event not filled from catalog: %+v", event)
	}
	if !event.ExpiresAt.After(time.Now().UTC()) {
		t.Error("event expiry not in the future")
	}
}

func TestGenerateDueSinglePending(t *testing.T) {
	db := newTestDB(t)
	generator := NewEventGenerator(db)
	generator.Chance = 1

	account := createTestAccount(t, db, 0)

	if _, err := generator.GenerateDue(context.Background()); err != nil {
		t.Fatal(err)
	}
	created, err := generator.GenerateDue(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if created != 0 {
		t.Errorf("second sweep created %d events, want 0", created)
	}

	var count int64
	db.Model(&models.RandomEvent{}).
		Where("account_id = ? AND status = ?", account.ID, models.EventPending).Count(&count)
	if count != 1 {
		t.Errorf("pending events = %d, want 1", count)
	}
}

func TestGenerateDueSkipsInactiveAccounts(t *testing.T) {
	db := newTestDB(t)
	generator := NewEventGenerator(db)
	generator.Chance = 1

	account := createTestAccount(t, db, 0)
	db.Model(account).Update("last_login", time.Now().UTC().AddDate(0, 0, -30))

	created, err := generator.GenerateDue(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if created != 0 {
		t.Errorf("created = %d for an inactive account, want 0", created)
	}
}

func TestGenerateDueExpiresStalePending(t *testing.T) {
	db := newTestDB(t)
	generator := NewEventGenerator(db)
	generator.Chance = 0 // only the expiry pass should act

	account := createTestAccount(t, db, 0)
	stale := models.RandomEvent{
		PublicID:    "stale-event",
		AccountID:   account.ID,
		Kind:        "surprise_gift",
		Status:      models.EventPending,
		GeneratedAt: time.Now().UTC().Add(-48 * time.Hour),
		ExpiresAt:   time.Now().UTC().Add(-24 * time.Hour),
	}
	if err := db.Create(&stale).Error; err != nil {
		t.Fatal(err)
	}

	if _, err := generator.GenerateDue(context.Background()); err != nil {
		t.Fatal(err)
	}

	var reloaded models.RandomEvent
	db.First(&reloaded, stale.ID)
	if reloaded.Status != models.EventExpired {
		t.Errorf("status = %s, want expired", reloaded.Status)
	}

	event, err := generator.PendingFor(account.ID)
	if err != nil {
		t.Fatal(err)
	}
	if event != nil {
		t.Error("expired event still reported pending")
	}
}
