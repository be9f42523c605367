// handlers/handlers.go - Shared handler wiring
package handlers

import (
	"errors"

	"wishwell/database"
	"wishwell/models"
	"wishwell/services"

	"github.com/gofiber/fiber/v2"
)

var (
	ledger    *services.Ledger
	queue     *services.NotificationQueue
	generator *services.EventGenerator
	hub       *services.Hub
)

// Init wires the handlers to the core services. Must run before routes
// are registered.
func Init(l *services.Ledger, q *services.NotificationQueue, g *services.EventGenerator, h *services.Hub) {
	ledger = l
	queue = q
	generator = g
	hub = h
}

func loadAccount(accountID uint) (*models.Account, error) {
	var account models.Account
	if err := database.GetDB().First(&account, accountID).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// serviceError maps the core error taxonomy onto JSON responses.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"success": false, "error": err.Error()})
	case errors.Is(err, services.ErrQuotaExceeded):
		return c.Status(429).JSON(fiber.Map{"success": false, "error": err.Error()})
	case errors.Is(err, services.ErrInsufficientFunds):
		return c.Status(400).JSON(fiber.Map{"success": false, "error": err.Error()})
	default:
		return c.Status(500).JSON(fiber.Map{"success": false, "error": "Internal error"})
	}
}
