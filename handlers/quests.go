// handlers/quests.go
package handlers

import (
	"log"
	"time"
	"wishwell/database"
	"wishwell/middleware"
	"wishwell/models"
	"wishwell/progression"
	"wishwell/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CreateQuestRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	StakeCoins     int64  `json:"stake_coins"`
	RewardCoins    int64  `json:"reward_coins"`
	ExpiresInHours int    `json:"expires_in_hours"`
}

// CreateQuest stakes coins on a time-bounded task for the partner.
// Creation is gated by the creator's rank privileges.
func CreateQuest(c *fiber.Ctx) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	var req CreateQuestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Title == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Title is required"})
	}
	if req.StakeCoins < 0 || req.RewardCoins < 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Amounts cannot be negative"})
	}
	if req.ExpiresInHours <= 0 {
		req.ExpiresInHours = 72
	}

	db := database.GetDB()
	var creator models.Account
	if err := db.First(&creator, accountID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Account not found"})
	}
	if creator.PartnerID == nil {
		return c.Status(400).JSON(fiber.Map{"error": "Link a partner before creating quests"})
	}

	rank := progression.Default.CurrentRank(creator.Experience)
	if !rank.CanCreateQuests {
		return c.Status(403).JSON(fiber.Map{
			"error": "Your rank cannot create quests yet",
			"rank":  rank.Name,
		})
	}

	var active int64
	db.Model(&models.Quest{}).
		Where("creator_id = ? AND status = ?", accountID, models.QuestActive).
		Count(&active)
	if active >= int64(rank.MaxActiveQuests) {
		return c.Status(400).JSON(fiber.Map{
			"error": "Active quest limit reached for your rank",
			"limit": rank.MaxActiveQuests,
		})
	}

	quest := models.Quest{
		PublicID:         uuid.New().String(),
		CreatorID:        accountID,
		AssigneeID:       *creator.PartnerID,
		Title:            req.Title,
		Description:      req.Description,
		StakeCoins:       req.StakeCoins,
		RewardCoins:      req.RewardCoins,
		RewardExperience: progression.ExperienceFor(progression.ActionQuestComplete, rank.EconomyMultiplier),
		Status:           models.QuestActive,
		ExpiresAt:        time.Now().UTC().Add(time.Duration(req.ExpiresInHours) * time.Hour),
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		lx := services.NewLedger(tx, progression.Default)
		if req.StakeCoins > 0 {
			kind := models.CurrencyCoins
			if _, err := lx.RecordTransaction(services.TransactionInput{
				AccountID:    accountID,
				Direction:    models.DirectionDebit,
				CurrencyKind: &kind,
				Amount:       req.StakeCoins,
				Reason:       "Stake for quest: " + req.Title,
				Category:     models.CategoryQuest,
				Source:       "api",
				ReferenceID:  &quest.PublicID,
			}); err != nil {
				return err
			}
		}
		if _, err := lx.RecordTransaction(services.TransactionInput{
			AccountID:       accountID,
			Direction:       models.DirectionCredit,
			ExperienceDelta: progression.ExperienceFor(progression.ActionQuestCreate, 1),
			Reason:          "Created quest: " + req.Title,
			Category:        models.CategoryQuest,
			Source:          "api",
			ReferenceID:     &quest.PublicID,
		}); err != nil {
			return err
		}
		return tx.Create(&quest).Error
	})
	if err != nil {
		return serviceError(c, err)
	}

	if _, err := queue.Enqueue(services.EnqueueInput{
		AccountID: quest.AssigneeID,
		Title:     "New quest",
		Message:   creator.Username + " gave you a quest: \"" + quest.Title + "\"",
		Category:  models.CategoryQuest,
	}); err != nil {
		log.Printf("quest %s: creation notification failed: %v", quest.PublicID, err)
	}

	return c.JSON(fiber.Map{"success": true, "quest": quest})
}

// GetQuests lists quests the account created or was assigned
func GetQuests(c *fiber.Ctx) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	db := database.GetDB()
	var quests []models.Quest
	if err := db.Where("creator_id = ? OR assignee_id = ?", accountID, accountID).
		Order("created_at DESC").Limit(100).Find(&quests).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch quests"})
	}

	return c.JSON(fiber.Map{"success": true, "quests": quests})
}

// CompleteQuest pays out the reward and stake to the assignee. A quest
// whose deadline passed cannot be completed; only the scheduler moves it
// to expired.
func CompleteQuest(c *fiber.Ctx) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	db := database.GetDB()
	var quest models.Quest
	if err := db.Where("public_id = ?", c.Params("id")).First(&quest).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Quest not found"})
	}

	if quest.AssigneeID != accountID {
		return c.Status(403).JSON(fiber.Map{"error": "Only the assignee can complete a quest"})
	}
	if quest.Status != models.QuestActive {
		return c.Status(400).JSON(fiber.Map{"error": "Quest is not active"})
	}

	now := time.Now().UTC()
	if !quest.ExpiresAt.After(now) {
		return c.Status(400).JSON(fiber.Map{"error": "Quest deadline has passed"})
	}

	payout := quest.RewardCoins + quest.StakeCoins
	var result *services.TransactionResult
	err = db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Quest{}).
			Where("id = ? AND status = ? AND expires_at > ?", quest.ID, models.QuestActive, now).
			Updates(map[string]interface{}{
				"status":       models.QuestCompleted,
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
			ExperienceDelta: quest.RewardExperience,
			Reason:          "Completed quest: " + quest.Title,
			Category:        models.CategoryQuest,
			Source:          "api",
			ReferenceID:     &quest.PublicID,
		}
		if payout > 0 {
			kind := models.CurrencyCoins
			input.CurrencyKind = &kind
			input.Amount = payout
		}
		r, err := lx.RecordTransaction(input)
		if err != nil {
			return err
		}
		result = r

		return tx.Model(&models.Account{}).Where("id = ?", accountID).
			Update("quests_completed", gorm.Expr("quests_completed + 1")).Error
	})
	if err != nil {
		return serviceError(c, err)
	}

	if _, err := queue.Enqueue(services.EnqueueInput{
		AccountID: quest.CreatorID,
		Title:     "Quest completed",
		Message:   "Your quest \"" + quest.Title + "\" was completed!",
		Category:  models.CategoryQuest,
	}); err != nil {
		log.Printf("quest %s: completion notification failed: %v", quest.PublicID, err)
	}

	response := fiber.Map{
		"success":           true,
		"coins_earned":      payout,
		"experience_earned": quest.RewardExperience,
	}
	if result.Promotion.Promoted {
		response["promotion"] = result.Promotion
	}
	return c.JSON(response)
}
