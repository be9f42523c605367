// models/quest.go
package models

import (
	"time"
)

// Quest statuses. A quest moves to expired only via the scheduler sweep,
// never directly from a user action after the deadline passes.
const (
	QuestActive    = "active"
	QuestCompleted = "completed"
	QuestExpired   = "expired"
)

type Quest struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	PublicID    string   `gorm:"uniqueIndex;size:36;not null" json:"public_id"`
	CreatorID   uint     `gorm:"not null;index" json:"creator_id"`
	Creator     *Account `gorm:"foreignKey:CreatorID" json:"-"`
	AssigneeID  uint     `gorm:"not null;index" json:"assignee_id"`
	Assignee    *Account `gorm:"foreignKey:AssigneeID" json:"-"`
	Title       string   `gorm:"not null;size:200" json:"title"`
	Description string   `gorm:"type:text" json:"description"`

	// StakeCoins is escrowed from the creator on creation. On completion it
	// pays out to the assignee on top of RewardCoins; on expiry half refunds.
	StakeCoins       int64 `gorm:"default:0" json:"stake_coins"`
	RewardCoins      int64 `gorm:"default:0" json:"reward_coins"`
	RewardExperience int   `gorm:"default:0" json:"reward_experience"`

	Status      string     `gorm:"default:'active';size:20;index" json:"status"`
	ExpiresAt   time.Time  `gorm:"not null;index" json:"expires_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Quest) TableName() string {
	return "quests"
}

// RandomEvent statuses.
const (
	EventPending   = "pending"
	EventCompleted = "completed"
	EventExpired   = "expired"
)

// RandomEvent is a spontaneously generated, time-limited bonus task. At most
// one pending event exists per account, enforced by a partial unique index.
type RandomEvent struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	PublicID    string   `gorm:"uniqueIndex;size:36;not null" json:"public_id"`
	AccountID   uint     `gorm:"not null;index" json:"account_id"`
	Account     *Account `gorm:"foreignKey:AccountID" json:"-"`
	Kind        string   `gorm:"not null;size:50" json:"kind"`
	Description string   `gorm:"type:text" json:"description"`

	RewardCoins      int64 `gorm:"default:0" json:"reward_coins"`
	RewardExperience int   `gorm:"default:0" json:"reward_experience"`

	Status      string     `gorm:"default:'pending';size:20;index" json:"status"`
	GeneratedAt time.Time  `json:"generated_at"`
	ExpiresAt   time.Time  `gorm:"not null;index" json:"expires_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (RandomEvent) TableName() string {
	return "random_events"
}
