package admin

import (
	"wishwell/database"
	"wishwell/models"

	"github.com/gofiber/fiber/v2"
)

// GetAccounts returns all accounts with pagination
func GetAccounts(c *fiber.Ctx) error {
	db := database.GetDB()

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	search := c.Query("search", "")

	offset := (page - 1) * limit

	var accounts []models.Account
	var total int64

	query := db.Model(&models.Account{})
	if search != "" {
		query = query.Where("username LIKE ?", "%"+search+"%")
	}

	query.Count(&total)

	if err := query.Order("id").Offset(offset).Limit(limit).Find(&accounts).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": "Failed to fetch accounts",
		})
	}

	return c.JSON(fiber.Map{
		"accounts": accounts,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

// GetAccount returns a single account by ID
func GetAccount(c *fiber.Ctx) error {
	db := database.GetDB()

	var account models.Account
	if err := db.First(&account, c.Params("id")).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "Account not found",
		})
	}

	return c.JSON(account)
}
