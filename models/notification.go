// models/notification.go
package models

import (
	"time"
)

// NotificationEntry statuses.
const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
	NotificationExpired = "expired"
)

// DefaultMaxRetries bounds delivery attempts before an entry is marked failed.
const DefaultMaxRetries = 3

// NotificationEntry is a scheduled, retryable outbound message. Delivery is
// at-least-once: marking an entry sent is idempotent, a duplicate delivery
// attempt from an overlapping sweep is acceptable but minimized.
type NotificationEntry struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	PublicID  string   `gorm:"uniqueIndex;size:36;not null" json:"public_id"`
	AccountID uint     `gorm:"not null;index" json:"account_id"`
	Account   *Account `gorm:"foreignKey:AccountID" json:"-"`
	Title     string   `gorm:"size:200" json:"title"`
	Message   string   `gorm:"not null;type:text" json:"message"`
	Category  string   `gorm:"size:50" json:"category"`

	Status      string    `gorm:"default:'pending';size:20;index" json:"status"`
	ScheduledAt time.Time `gorm:"not null;index" json:"scheduled_at"`
	ExpiresAt   time.Time `gorm:"not null;index" json:"expires_at"`
	RetryCount  int       `gorm:"default:0" json:"retry_count"`
	MaxRetries  int       `gorm:"default:3" json:"max_retries"`

	// Reminder sweep state, independent of the primary delayed queue.
	ReminderAt     *time.Time `json:"reminder_at,omitempty"`
	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`

	SentAt    *time.Time `json:"sent_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (NotificationEntry) TableName() string {
	return "notification_entries"
}
