package services

import (
	"fmt"
	"testing"
	"time"

	"wishwell/models"
	"wishwell/progression"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	// A second pooled connection would see its own empty in-memory database.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.Account{},
		&models.Transaction{},
		&models.Wish{},
		&models.Quest{},
		&models.RandomEvent{},
		&models.NotificationEntry{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_random_events_one_pending
		ON random_events(account_id) WHERE status = 'pending'`).Error; err != nil {
		t.Fatalf("create partial index: %v", err)
	}
	return db
}

var testAccountSeq int

func createTestAccount(t *testing.T, db *gorm.DB, coins int64) *models.Account {
	t.Helper()

	testAccountSeq++
	account := models.Account{
		Username:       fmt.Sprintf("account-%d-%d", time.Now().UnixNano(), testAccountSeq),
		Password:       "irrelevant",
		Rank:           1,
		CoinsBalance:   coins,
		LastQuotaReset: time.Now().UTC(),
		LastLogin:      time.Now().UTC(),
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("create test account: %v", err)
	}
	return &account
}

func newTestLedger(db *gorm.DB) *Ledger {
	return NewLedger(db, progression.Default)
}
