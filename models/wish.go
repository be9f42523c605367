// models/wish.go
package models

import (
	"time"
)

// Wish statuses.
const (
	WishOpen      = "open"
	WishFulfilled = "fulfilled"
	WishApproved  = "approved" // shared wish waiting on co-approval -> approved
	WishCancelled = "cancelled"
)

// Wish is a request one partner makes of the other. Creating a wish escrows
// the offered coins; fulfilling pays them out to the fulfiller.
type Wish struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	PublicID    string   `gorm:"uniqueIndex;size:36;not null" json:"public_id"`
	CreatorID   uint     `gorm:"not null;index" json:"creator_id"`
	Creator     *Account `gorm:"foreignKey:CreatorID" json:"-"`
	Title       string   `gorm:"not null;size:200" json:"title"`
	Description string   `gorm:"type:text" json:"description"`
	OfferCoins  int64    `gorm:"default:0" json:"offer_coins"`
	IsShared    bool     `gorm:"default:false" json:"is_shared"`
	Status      string   `gorm:"default:'open';size:20;index" json:"status"`

	FulfilledBy *uint      `json:"fulfilled_by,omitempty"`
	FulfilledAt *time.Time `json:"fulfilled_at,omitempty"`
	ApprovedBy  *uint      `json:"approved_by,omitempty"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Wish) TableName() string {
	return "wishes"
}
