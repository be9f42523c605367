// handlers/events.go
package handlers

import (
	"time"
	"wishwell/database"
	"wishwell/middleware"
	"wishwell/models"
	"wishwell/progression"
	"wishwell/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GetPendingEvent returns the account's current random event, if any
func GetPendingEvent(c *fiber.Ctx) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	event, err := generator.PendingFor(accountID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch event"})
	}
	if event == nil {
		return c.JSON(fiber.Map{"success": true, "event": nil})
	}

	return c.JSON(fiber.Map{"success": true, "event": event})
}

// CompleteEvent claims the reward for a pending random event. Completing
// after the deadline is rejected; the sweep will mark it expired.
func CompleteEvent(c *fiber.Ctx) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	db := database.GetDB()
	var event models.RandomEvent
	if err := db.Where("public_id = ? AND account_id = ?", c.Params("id"), accountID).
		First(&event).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Event not found"})
	}

	if event.Status != models.EventPending {
		return c.Status(400).JSON(fiber.Map{"error": "Event is not pending"})
	}
	now := time.Now().UTC()
	if !event.ExpiresAt.After(now) {
		return c.Status(400).JSON(fiber.Map{"error": "Event has expired"})
	}

	var result *services.TransactionResult
	err = db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.RandomEvent{}).
			Where("id = ? AND status = ? AND expires_at > ?", event.ID, models.EventPending, now).
			Updates(map[string]interface{}{
				"status":       models.EventCompleted,
				"completed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return services.ErrNotFound
		}

		lx := services.NewLedger(tx, progression.Default)
		input := services.TransactionInput{
			AccountID:       accountID,
			Direction:       models.DirectionCredit,
			ExperienceDelta: event.RewardExperience,
			Reason:          "Completed event: " + event.Kind,
			Category:        models.CategoryEvent,
			Source:          "api",
			ReferenceID:     &event.PublicID,
		}
		if event.RewardCoins > 0 {
			kind := models.CurrencyCoins
			input.CurrencyKind = &kind
			input.Amount = event.RewardCoins
		}
		r, err := lx.RecordTransaction(input)
		if err != nil {
			return err
		}
		result = r

		return tx.Model(&models.Account{}).Where("id = ?", accountID).
			Update("events_completed", gorm.Expr("events_completed + 1")).Error
	})
	if err != nil {
		return serviceError(c, err)
	}

	response := fiber.Map{
		"success":           true,
		"coins_earned":      event.RewardCoins,
		"experience_earned": event.RewardExperience,
	}
	if result.Promotion.Promoted {
		response["promotion"] = result.Promotion
	}
	return c.JSON(response)
}
