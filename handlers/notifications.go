// handlers/notifications.go
package handlers

import (
	"log"
	"strconv"
	"time"
	"wishwell/middleware"
	"wishwell/models"
	"wishwell/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// GetNotifications lists the account's notification history, newest first
func GetNotifications(c *fiber.Ctx) error {
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

	entries, err := queue.List(accountID, limit)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "notifications": entries})
}

type ScheduleNotificationRequest struct {
	Title          string `json:"title"`
	Message        string `json:"message"`
	DelayMinutes   int    `json:"delay_minutes"`
	ReminderAfterH int    `json:"reminder_after_hours"`
}

// ScheduleNotification enqueues a message to the partner, optionally
// delayed and with a follow-up reminder
func ScheduleNotification(c *fiber.Ctx) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	var req ScheduleNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Message == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Message is required"})
	}
	if req.DelayMinutes < 0 || req.ReminderAfterH < 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Delays cannot be negative"})
	}

	account, err := loadAccount(accountID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Account not found"})
	}
	if account.PartnerID == nil {
		return c.Status(400).JSON(fiber.Map{"error": "Link a partner first"})
	}

	in := services.EnqueueInput{
		AccountID: *account.PartnerID,
		Title:     req.Title,
		Message:   req.Message,
		Category:  models.CategoryBonus,
	}
	if req.DelayMinutes > 0 {
		in.ScheduledAt = time.Now().UTC().Add(time.Duration(req.DelayMinutes) * time.Minute)
	}
	if req.ReminderAfterH > 0 {
		at := time.Now().UTC().Add(time.Duration(req.ReminderAfterH) * time.Hour)
		in.ReminderAt = &at
	}

	entry, err := queue.Enqueue(in)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "notification": entry})
}

// WebSocketHandler attaches the connection to the delivery hub so pending
// notifications reach the account in real time. The read loop only exists
// to detect the peer closing.
func WebSocketHandler(conn *websocket.Conn) {
	accountID, ok := wsAccountID(conn)
	if !ok {
		conn.Close()
		return
	}

	hub.Attach(accountID, conn)
	defer hub.Detach(accountID, conn)
	log.Printf("🔌 Account %d connected (%d online)", accountID, hub.Connected())

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func wsAccountID(conn *websocket.Conn) (uint, bool) {
	switch id := conn.Locals("accountId").(type) {
	case float64:
		return uint(id), true
	case uint:
		return id, true
	default:
		return 0, false
	}
}
