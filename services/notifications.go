// services/notifications.go - Notification Dispatch Queue
//
// Scheduled, retryable outbound messages. Delivery is at-least-once: every
// state transition is a guarded UPDATE keyed on the current status, so the
// three sweeps are safe to invoke concurrently with themselves and each
// other. A duplicate delivery from an overlapping run is acceptable but
// minimized.
package services

import (
	"fmt"
	"log"
	"time"

	"wishwell/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Deliverer is the outbound delivery channel contract.
type Deliverer interface {
	Send(accountID uint, message string) error
}

// How long an entry without an explicit expiry stays deliverable, and how
// long after delivery an unacknowledged entry gets a reminder.
const (
	defaultNotificationTTL = 48 * time.Hour
	dispatchBatchSize      = 100
)

type NotificationQueue struct {
	db        *gorm.DB
	deliverer Deliverer
}

func NewNotificationQueue(db *gorm.DB, deliverer Deliverer) *NotificationQueue {
	return &NotificationQueue{db: db, deliverer: deliverer}
}

// EnqueueInput describes a delivery request from any collaborator.
type EnqueueInput struct {
	AccountID   uint
	Title       string
	Message     string
	Category    string
	ScheduledAt time.Time  // zero means now
	ExpiresAt   time.Time  // zero means ScheduledAt + defaultNotificationTTL
	ReminderAt  *time.Time // optional separate reminder sweep
	MaxRetries  int        // zero means models.DefaultMaxRetries
}

// Enqueue creates a pending entry for delayed delivery.
func (q *NotificationQueue) Enqueue(in EnqueueInput) (*models.NotificationEntry, error) {
	if in.AccountID == 0 {
		return nil, fmt.Errorf("%w: account id required", ErrValidation)
	}
	if in.Message == "" {
		return nil, fmt.Errorf("%w: message required", ErrValidation)
	}

	now := time.Now().UTC()
	if in.ScheduledAt.IsZero() {
		in.ScheduledAt = now
	}
	if in.ExpiresAt.IsZero() {
		in.ExpiresAt = in.ScheduledAt.Add(defaultNotificationTTL)
	}
	if in.MaxRetries <= 0 {
		in.MaxRetries = models.DefaultMaxRetries
	}

	entry := models.NotificationEntry{
		PublicID:    uuid.New().String(),
		AccountID:   in.AccountID,
		Title:       in.Title,
		Message:     in.Message,
		Category:    in.Category,
		Status:      models.NotificationPending,
		ScheduledAt: in.ScheduledAt,
		ExpiresAt:   in.ExpiresAt,
		ReminderAt:  in.ReminderAt,
		MaxRetries:  in.MaxRetries,
	}
	if err := q.db.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
	return &entry, nil
}

// ProcessDelayed attempts delivery for pending entries whose scheduled time
// has passed. Success marks the entry sent (idempotently); failure bumps
// the retry count and marks the entry failed once the bound is reached.
// Returns how many entries were sent.
func (q *NotificationQueue) ProcessDelayed() (int, error) {
	now := time.Now().UTC()
	var due []models.NotificationEntry
	err := q.db.Where("status = ? AND scheduled_at <= ? AND expires_at > ?",
		models.NotificationPending, now, now).
		Order("scheduled_at ASC").Limit(dispatchBatchSize).Find(&due).Error
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, entry := range due {
		if err := q.deliverer.Send(entry.AccountID, entry.Message); err != nil {
			q.recordFailure(entry, err)
			continue
		}
		marked, err := q.MarkSent(entry.ID)
		if err != nil {
			log.Printf("notification %s: mark sent failed: %v", entry.PublicID, err)
			continue
		}
		if marked {
			sent++
		}
	}
	return sent, nil
}

// MarkSent transitions a pending entry to sent. A second call for an
// already-sent entry is a harmless no-op and reports false.
func (q *NotificationQueue) MarkSent(id uint) (bool, error) {
	res := q.db.Model(&models.NotificationEntry{}).
		Where("id = ? AND status = ?", id, models.NotificationPending).
		Updates(map[string]interface{}{
			"status":  models.NotificationSent,
			"sent_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (q *NotificationQueue) recordFailure(entry models.NotificationEntry, cause error) {
	log.Printf("notification %s: delivery attempt %d failed: %v",
		entry.PublicID, entry.RetryCount+1, cause)

	res := q.db.Model(&models.NotificationEntry{}).
		Where("id = ? AND status = ?", entry.ID, models.NotificationPending).
		Update("retry_count", gorm.Expr("retry_count + 1"))
	if res.Error != nil {
		log.Printf("notification %s: retry bump failed: %v", entry.PublicID, res.Error)
		return
	}
	q.db.Model(&models.NotificationEntry{}).
		Where("id = ? AND status = ? AND retry_count >= max_retries",
			entry.ID, models.NotificationPending).
		Update("status", models.NotificationFailed)
}

// CheckReminders is a separate sweep for entries whose reminder threshold
// elapsed and whose reminder has not gone out yet.
func (q *NotificationQueue) CheckReminders() (int, error) {
	now := time.Now().UTC()
	var due []models.NotificationEntry
	err := q.db.Where(
		"reminder_at IS NOT NULL AND reminder_at <= ? AND reminder_sent_at IS NULL AND status NOT IN ?",
		now, []string{models.NotificationExpired, models.NotificationFailed}).
		Limit(dispatchBatchSize).Find(&due).Error
	if err != nil {
		return 0, err
	}

	reminded := 0
	for _, entry := range due {
		if err := q.deliverer.Send(entry.AccountID, "Reminder: "+entry.Message); err != nil {
			log.Printf("notification %s: reminder delivery failed: %v", entry.PublicID, err)
			continue
		}
		res := q.db.Model(&models.NotificationEntry{}).
			Where("id = ? AND reminder_sent_at IS NULL", entry.ID).
			Update("reminder_sent_at", now)
		if res.Error != nil {
			log.Printf("notification %s: reminder stamp failed: %v", entry.PublicID, res.Error)
			continue
		}
		if res.RowsAffected > 0 {
			reminded++
		}
	}
	return reminded, nil
}

// CleanupExpired marks pending entries past their expiry and prunes rows
// past retention. Returns how many entries expired, for observability.
func (q *NotificationQueue) CleanupExpired() (int, error) {
	now := time.Now().UTC()
	res := q.db.Model(&models.NotificationEntry{}).
		Where("status = ? AND expires_at <= ?", models.NotificationPending, now).
		Update("status", models.NotificationExpired)
	if res.Error != nil {
		return 0, res.Error
	}

	cutoff := now.Add(-30 * 24 * time.Hour)
	if err := q.db.Where("status IN ? AND created_at < ?",
		[]string{models.NotificationSent, models.NotificationExpired, models.NotificationFailed}, cutoff).
		Delete(&models.NotificationEntry{}).Error; err != nil {
		log.Printf("notification prune failed: %v", err)
	}

	return int(res.RowsAffected), nil
}

// List returns an account's most recent entries.
func (q *NotificationQueue) List(accountID uint, limit int) ([]models.NotificationEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var entries []models.NotificationEntry
	err := q.db.Where("account_id = ?", accountID).
		Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
