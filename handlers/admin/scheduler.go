package admin

import (
	"wishwell/services"

	"github.com/gofiber/fiber/v2"
)

var scheduler *services.Scheduler

// Init hands the admin surface its scheduler. Must run before routes are
// registered.
func Init(s *services.Scheduler) {
	scheduler = s
}

// GetSchedulerStatus reports per-task run state
func GetSchedulerStatus(c *fiber.Ctx) error {
	if scheduler == nil {
		return c.Status(503).JSON(fiber.Map{
			"error": "Scheduler not configured",
		})
	}

	return c.JSON(fiber.Map{
		"running": scheduler.Running(),
		"tasks":   scheduler.Status(),
	})
}

// RunSchedulerTask triggers one background task immediately
func RunSchedulerTask(c *fiber.Ctx) error {
	if scheduler == nil {
		return c.Status(503).JSON(fiber.Map{
			"error": "Scheduler not configured",
		})
	}

	name := c.Params("task")
	if err := scheduler.Trigger(c.Context(), name); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"task":    name,
	})
}
