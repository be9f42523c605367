// handlers/economy.go
package handlers

import (
	"strconv"
	"wishwell/middleware"
	"wishwell/models"

	"github.com/gofiber/fiber/v2"
)

// GetSnapshot returns the account's full economy view: balances, quota
// usage, rank and progress toward the next one
func GetSnapshot(c *fiber.Ctx) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	snapshot, err := ledger.Snapshot(accountID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "snapshot": snapshot})
}

// GetTransactions lists recent ledger entries, newest first
func GetTransactions(c *fiber.Ctx) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	transactions, err := ledger.Transactions(accountID, limit)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "transactions": transactions})
}

// GetQuotas reports daily/weekly/monthly wish quota usage
func GetQuotas(c *fiber.Ctx) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	quotas, err := ledger.GetQuotas(accountID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "quotas": quotas})
}

type ExchangeRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

// Exchange converts coins into stars at the fixed rate
func Exchange(c *fiber.Ctx) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	var req ExchangeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	from := models.CurrencyKind(req.From)
	to := models.CurrencyKind(req.To)
	if !from.Valid() || !to.Valid() {
		return c.Status(400).JSON(fiber.Map{"error": "Unknown currency"})
	}

	result, err := ledger.Exchange(accountID, from, to, req.Amount)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"transaction": result.Transaction,
		"new_balance": result.NewBalance,
	})
}
