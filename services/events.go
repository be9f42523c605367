// services/events.go - Random event generation task
package services

import (
	"context"
	"log"
	"math/rand"
	"time"

	"wishwell/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// eventTemplate is one entry of the generation catalog.
type eventTemplate struct {
	Kind             string
	Description      string
	RewardCoins      int64
	RewardExperience int
}

var eventCatalog = []eventTemplate{
	{"surprise_gift", "Leave a small surprise for your partner today.", 5, 15},
	{"kindness_chain", "Do three small kindnesses before the day ends.", 8, 15},
	{"star_shower", "Complete any wish today for bonus stars.", 10, 15},
	{"memory_lane", "Share a favorite memory with your partner.", 4, 15},
	{"treasure_hunt", "Hide a note where your partner will find it.", 6, 15},
}

// EventGenerator spontaneously creates time-limited bonus tasks for
// eligible accounts. At most one pending event exists per account.
type EventGenerator struct {
	db *gorm.DB

	// Chance per sweep that an eligible account receives an event.
	Chance float64
	// TTL is how long a generated event stays pending.
	TTL time.Duration

	rand *rand.Rand
}

func NewEventGenerator(db *gorm.DB) *EventGenerator {
	return &EventGenerator{
		db:     db,
		Chance: 0.25,
		TTL:    24 * time.Hour,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GenerateDue first expires stale pending events, then rolls the dice for
// each eligible account without a pending event. Returns how many events
// were created.
func (g *EventGenerator) GenerateDue(ctx context.Context) (int, error) {
	now := time.Now().UTC()

	// Stale pending events expire before new ones are considered.
	if err := g.db.WithContext(ctx).Model(&models.RandomEvent{}).
		Where("status = ? AND expires_at < ?", models.EventPending, now).
		Update("status", models.EventExpired).Error; err != nil {
		return 0, err
	}

	// Eligible: active within the last two weeks and holding no pending
	// event.
	var accounts []models.Account
	err := g.db.WithContext(ctx).
		Where("last_login > ?", now.Add(-14*24*time.Hour)).
		Where("id NOT IN (?)", g.db.Model(&models.RandomEvent{}).
			Select("account_id").Where("status = ?", models.EventPending)).
		Find(&accounts).Error
	if err != nil {
		return 0, err
	}

	created := 0
	for _, account := range accounts {
		if g.rand.Float64() >= g.Chance {
			continue
		}
		tpl := eventCatalog[g.rand.Intn(len(eventCatalog))]
		event := models.RandomEvent{
			PublicID:         uuid.New().String(),
			AccountID:        account.ID,
			Kind:             tpl.Kind,
			Description:      tpl.Description,
			RewardCoins:      tpl.RewardCoins,
			RewardExperience: tpl.RewardExperience,
			Status:           models.EventPending,
			GeneratedAt:      now,
			ExpiresAt:        now.Add(g.TTL),
		}
		if err := g.db.WithContext(ctx).Create(&event).Error; err != nil {
			// The partial unique index rejects a concurrent second pending
			// event for the same account; skip and move on.
			log.Printf("event generation for account %d skipped: %v", account.ID, err)
			continue
		}
		created++
	}
	return created, nil
}

// PendingFor returns the account's pending event, or nil.
func (g *EventGenerator) PendingFor(accountID uint) (*models.RandomEvent, error) {
	var event models.RandomEvent
	err := g.db.Where("account_id = ? AND status = ?", accountID, models.EventPending).
		First(&event).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}
