package services

import (
	"context"
	"testing"
	"time"

	"wishwell/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func createTestQuest(t *testing.T, db *gorm.DB, creator, assignee uint, stake int64, expiresAt time.Time) *models.Quest {
	t.Helper()
	quest := models.Quest{
		PublicID:   uuid.New().String(),
		CreatorID:  creator,
		AssigneeID: assignee,
		Title:      "Water the garden",
		StakeCoins: stake,
		Status:     models.QuestActive,
		ExpiresAt:  expiresAt,
	}
	if err := db.Create(&quest).Error; err != nil {
		t.Fatalf("create test quest: %v", err)
	}
	return &quest
}

func TestExpireDueRefundsHalfStake(t *testing.T) {
	db := newTestDB(t)
	ledger := newTestLedger(db)
	queue := NewNotificationQueue(db, &fakeDeliverer{})
	expirer := NewQuestExpirer(db, ledger, queue)

	creator := createTestAccount(t, db, 0)
	assignee := createTestAccount(t, db, 0)
	quest := createTestQuest(t, db, creator.ID, assignee.ID, 10, time.Now().UTC().Add(-time.Hour))

	expired, err := expirer.ExpireDue(context.Background())
	if err != nil {
		t.Fatalf("ExpireDue: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expired = %d, want 1", expired)
	}

	var reloadedQuest models.Quest
	db.First(&reloadedQuest, quest.ID)
	if reloadedQuest.Status != models.QuestExpired {
		t.Errorf("status = %s, want expired", reloadedQuest.Status)
	}

	var reloadedCreator models.Account
	db.First(&reloadedCreator, creator.ID)
	if reloadedCreator.CoinsBalance != 5 {
		t.Errorf("creator refund = %d coins, want 5", reloadedCreator.CoinsBalance)
	}

	var refund models.Transaction
	if err := db.Where("account_id = ? AND category = ?", creator.ID, models.CategoryRefund).
		First(&refund).Error; err != nil {
		t.Fatalf("refund transaction missing: %v", err)
	}
	if refund.ReferenceID == nil || *refund.ReferenceID != quest.PublicID {
		t.Error("refund not referenced to the quest")
	}

	var pending int64
	db.Model(&models.NotificationEntry{}).
		Where("account_id = ?", assignee.ID).Count(&pending)
	if pending != 1 {
		t.Errorf("assignee notifications = %d, want 1", pending)
	}
}

func TestExpireDueIdempotent(t *testing.T) {
	db := newTestDB(t)
	ledger := newTestLedger(db)
	queue := NewNotificationQueue(db, &fakeDeliverer{})
	expirer := NewQuestExpirer(db, ledger, queue)

	creator := createTestAccount(t, db, 0)
	assignee := createTestAccount(t, db, 0)
	createTestQuest(t, db, creator.ID, assignee.ID, 10, time.Now().UTC().Add(-time.Hour))

	if _, err := expirer.ExpireDue(context.Background()); err != nil {
		t.Fatal(err)
	}
	expired, err := expirer.ExpireDue(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if expired != 0 {
		t.Errorf("second sweep expired %d quests, want 0", expired)
	}

	// No double refund.
	var reloadedCreator models.Account
	db.First(&reloadedCreator, creator.ID)
	if reloadedCreator.CoinsBalance != 5 {
		t.Errorf("creator balance = %d, want 5", reloadedCreator.CoinsBalance)
	}
}

func TestExpireDueSkipsFutureDeadlines(t *testing.T) {
	db := newTestDB(t)
	ledger := newTestLedger(db)
	queue := NewNotificationQueue(db, &fakeDeliverer{})
	expirer := NewQuestExpirer(db, ledger, queue)

	creator := createTestAccount(t, db, 0)
	assignee := createTestAccount(t, db, 0)
	quest := createTestQuest(t, db, creator.ID, assignee.ID, 10, time.Now().UTC().Add(time.Hour))

	expired, err := expirer.ExpireDue(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if expired != 0 {
		t.Errorf("expired = %d, want 0", expired)
	}

	var reloaded models.Quest
	db.First(&reloaded, quest.ID)
	if reloaded.Status != models.QuestActive {
		t.Errorf("status = %s, want active", reloaded.Status)
	}
}
