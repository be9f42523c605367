// handlers/wishes.go
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

type CreateWishRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	OfferCoins  int64  `json:"offer_coins"`
	IsShared    bool   `json:"is_shared"`
}

// CreateWish escrows the offered coins and consumes one daily quota slot
func CreateWish(c *fiber.Ctx) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	var req CreateWishRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Title == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Title is required"})
	}
	if req.OfferCoins < 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Offer cannot be negative"})
	}

	db := database.GetDB()
	wish := models.Wish{
		PublicID:    uuid.New().String(),
		CreatorID:   accountID,
		Title:       req.Title,
		Description: req.Description,
		OfferCoins:  req.OfferCoins,
		IsShared:    req.IsShared,
		Status:      models.WishOpen,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		lx := services.NewLedger(tx, progression.Default)
		if err := lx.ConsumeQuota(accountID, models.WindowDaily, 1); err != nil {
			return err
		}
		if req.OfferCoins > 0 {
			kind := models.CurrencyCoins
			if _, err := lx.RecordTransaction(services.TransactionInput{
				AccountID:    accountID,
				Direction:    models.DirectionDebit,
				CurrencyKind: &kind,
				Amount:       req.OfferCoins,
				Reason:       "Escrow for wish: " + req.Title,
				Category:     models.CategoryWish,
				Source:       "api",
				ReferenceID:  &wish.PublicID,
			}); err != nil {
				return err
			}
		}
		return tx.Create(&wish).Error
	})
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "wish": wish})
}

// GetWishes lists wishes visible to the account: its own and its partner's
func GetWishes(c *fiber.Ctx) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	db := database.GetDB()
	var account models.Account
	if err := db.First(&account, accountID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Account not found"})
	}

	creators := []uint{accountID}
	if account.PartnerID != nil {
		creators = append(creators, *account.PartnerID)
	}

	var wishes []models.Wish
	if err := db.Where("creator_id IN ?", creators).
		Order("created_at DESC").Limit(100).Find(&wishes).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch wishes"})
	}

	return c.JSON(fiber.Map{"success": true, "wishes": wishes})
}

// FulfillWish pays the escrowed coins to the fulfiller and awards
// experience scaled by their rank's economy multiplier plus any mentor
// bonus
func FulfillWish(c *fiber.Ctx) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	db := database.GetDB()
	var wish models.Wish
	if err := db.Where("public_id = ?", c.Params("id")).First(&wish).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Wish not found"})
	}

	if wish.CreatorID == accountID {
		return c.Status(400).JSON(fiber.Map{"error": "Cannot fulfill your own wish"})
	}

	var fulfiller models.Account
	if err := db.First(&fulfiller, accountID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Account not found"})
	}

	rank := progression.Default.CurrentRank(fulfiller.Experience)
	base := progression.ExperienceFor(progression.ActionWishFulfill, rank.EconomyMultiplier)
	experience := base + progression.MentorBonus(base, rank)

	var result *services.TransactionResult
	now := time.Now().UTC()
	err = db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Wish{}).
			Where("id = ? AND status = ?", wish.ID, models.WishOpen).
			Updates(map[string]interface{}{
				"status":       models.WishFulfilled,
				"fulfilled_by": accountID,
				"fulfilled_at": now,
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
			ExperienceDelta: experience,
			Reason:          "Fulfilled wish: " + wish.Title,
			Category:        models.CategoryWish,
			Source:          "api",
			ReferenceID:     &wish.PublicID,
		}
		if wish.OfferCoins > 0 {
			kind := models.CurrencyCoins
			input.CurrencyKind = &kind
			input.Amount = wish.OfferCoins
		}
		r, err := lx.RecordTransaction(input)
		if err != nil {
			return err
		}
		result = r

		return tx.Model(&models.Account{}).Where("id = ?", accountID).
			Update("wishes_granted", gorm.Expr("wishes_granted + 1")).Error
	})
	if err != nil {
		return serviceError(c, err)
	}

	if _, err := queue.Enqueue(services.EnqueueInput{
		AccountID: wish.CreatorID,
		Title:     "Wish fulfilled",
		Message:   fulfiller.Username + " fulfilled your wish \"" + wish.Title + "\"!",
		Category:  models.CategoryWish,
	}); err != nil {
		log.Printf("wish %s: fulfillment notification failed: %v", wish.PublicID, err)
	}

	response := fiber.Map{
		"success":           true,
		"coins_earned":      wish.OfferCoins,
		"experience_earned": experience,
	}
	if result.Promotion.Promoted {
		response["promotion"] = result.Promotion
	}
	return c.JSON(response)
}

// ApproveWish records the partner's co-approval of a shared wish; both
// sides earn approval experience
func ApproveWish(c *fiber.Ctx) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	db := database.GetDB()
	var wish models.Wish
	if err := db.Where("public_id = ?", c.Params("id")).First(&wish).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Wish not found"})
	}

	if !wish.IsShared {
		return c.Status(400).JSON(fiber.Map{"error": "Only shared wishes need approval"})
	}
	if wish.CreatorID == accountID {
		return c.Status(400).JSON(fiber.Map{"error": "Cannot approve your own wish"})
	}

	experience := progression.ExperienceFor(progression.ActionSharedWishApprove, 1)
	now := time.Now().UTC()
	err = db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Wish{}).
			Where("id = ? AND status = ?", wish.ID, models.WishOpen).
			Updates(map[string]interface{}{
				"status":      models.WishApproved,
				"approved_by": accountID,
				"approved_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return services.ErrNotFound
		}

		lx := services.NewLedger(tx, progression.Default)
		for _, id := range []uint{accountID, wish.CreatorID} {
			if _, err := lx.RecordTransaction(services.TransactionInput{
				AccountID:       id,
				Direction:       models.DirectionCredit,
				ExperienceDelta: experience,
				Reason:          "Shared wish approved: " + wish.Title,
				Category:        models.CategoryWish,
				Source:          "api",
				ReferenceID:     &wish.PublicID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":           true,
		"experience_earned": experience,
	})
}
