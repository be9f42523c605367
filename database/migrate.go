// database/migrate.go - Database Migration Runner
package database

import (
	"log"
	"wishwell/models"
)

// RunMigrations runs all database migrations
func RunMigrations() {
	db := GetDB()
	log.Println("🔄 Running database migrations...")

	if err := db.AutoMigrate(
		&models.Account{},
		&models.Transaction{},
		&models.Wish{},
		&models.Quest{},
		&models.RandomEvent{},
		&models.NotificationEntry{},
	); err != nil {
		log.Fatalf("❌ Failed to run migrations: %v", err)
	}

	createIndexes()

	log.Println("✅ All migrations completed successfully")
}

// createIndexes creates indexes AutoMigrate does not cover.
func createIndexes() {
	db := GetDB()

	// At most one pending random event per account.
	db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_random_events_one_pending ON random_events(account_id) WHERE status = 'pending'")

	// Ledger history reads
	db.Exec("CREATE INDEX IF NOT EXISTS idx_transactions_account_created ON transactions(account_id, created_at DESC)")

	// Scheduler sweeps
	db.Exec("CREATE INDEX IF NOT EXISTS idx_quests_status_expires ON quests(status, expires_at)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_random_events_status_expires ON random_events(status, expires_at)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_notification_entries_dispatch ON notification_entries(status, scheduled_at)")

	log.Println("✅ Indexes created successfully")
}
