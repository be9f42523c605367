// services/quests.go - Quest expiration task
package services

import (
	"context"
	"log"
	"time"

	"wishwell/models"

	"gorm.io/gorm"
)

// QuestExpirer transitions overdue quests to expired and applies the
// configured refund through the ledger.
type QuestExpirer struct {
	db     *gorm.DB
	ledger *Ledger
	queue  *NotificationQueue
}

func NewQuestExpirer(db *gorm.DB, ledger *Ledger, queue *NotificationQueue) *QuestExpirer {
	return &QuestExpirer{db: db, ledger: ledger, queue: queue}
}

// ExpireDue scans active quests past their deadline and expires them.
// The per-quest status guard makes a re-scan of an already-expired quest a
// no-op, so the sweep is idempotent. Returns how many quests expired.
func (e *QuestExpirer) ExpireDue(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	var due []models.Quest
	err := e.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", models.QuestActive, now).
		Find(&due).Error
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, quest := range due {
		res := e.db.WithContext(ctx).Model(&models.Quest{}).
			Where("id = ? AND status = ?", quest.ID, models.QuestActive).
			Update("status", models.QuestExpired)
		if res.Error != nil {
			log.Printf("quest %s: expire failed: %v", quest.PublicID, res.Error)
			continue
		}
		if res.RowsAffected == 0 {
			// Lost the race to another sweep; nothing left to do.
			continue
		}
		expired++

		if quest.StakeCoins > 0 {
			refund := quest.StakeCoins / 2
			if refund > 0 {
				kind := models.CurrencyCoins
				ref := quest.PublicID
				if _, err := e.ledger.RecordTransaction(TransactionInput{
					AccountID:    quest.CreatorID,
					Direction:    models.DirectionCredit,
					CurrencyKind: &kind,
					Amount:       refund,
					Reason:       "Refund for expired quest: " + quest.Title,
					Category:     models.CategoryRefund,
					Source:       "scheduler",
					ReferenceID:  &ref,
				}); err != nil {
					log.Printf("quest %s: refund failed: %v", quest.PublicID, err)
				}
			}
		}

		if _, err := e.queue.Enqueue(EnqueueInput{
			AccountID: quest.AssigneeID,
			Title:     "Quest expired",
			Message:   "The quest \"" + quest.Title + "\" expired before it was completed.",
			Category:  models.CategoryQuest,
		}); err != nil {
			log.Printf("quest %s: expiry notification failed: %v", quest.PublicID, err)
		}
	}
	return expired, nil
}
