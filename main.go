// main.go
package main

import (
	"log"
	"os"
	"time"
	"wishwell/database"
	"wishwell/handlers"
	"wishwell/handlers/admin"
	"wishwell/middleware"
	"wishwell/progression"
	"wishwell/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	validateEnvironment()

	// Initialize database
	database.InitDB()
	defer database.CloseDB()
	db := database.GetDB()

	// Core services
	hub := services.NewHub()
	ledger := services.NewLedger(db, progression.Default)
	queue := services.NewNotificationQueue(db, hub)
	quests := services.NewQuestExpirer(db, ledger, queue)
	generator := services.NewEventGenerator(db)

	handlers.Init(ledger, queue, generator, hub)

	// Background scheduler
	scheduler := services.NewScheduler(queue, quests, generator, services.SchedulerConfig{})
	scheduler.Start()
	defer scheduler.Stop()
	admin.Init(scheduler)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    1 * 1024 * 1024, // 1MB
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))

	// CORS configuration
	corsOrigins := os.Getenv("CORS_ORIGINS")
	if corsOrigins == "" {
		corsOrigins = "http://localhost:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))

	// Apply rate limiting to all routes
	app.Use(middleware.FiberRateLimitMiddleware())

	// API Routes
	api := app.Group("/api")

	// Auth routes with stricter rate limiting
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.FiberAuthRateLimitMiddleware())
	authGroup.Post("/register", handlers.Register)
	authGroup.Post("/login", handlers.Login)
	authGroup.Post("/link-partner", middleware.AuthMiddleware, handlers.LinkPartner)

	// Economy routes
	economyGroup := api.Group("/economy")
	economyGroup.Use(middleware.AuthMiddleware)
	economyGroup.Get("/snapshot", handlers.GetSnapshot)
	economyGroup.Get("/transactions", handlers.GetTransactions)
	economyGroup.Get("/quotas", handlers.GetQuotas)
	economyGroup.Post("/exchange", handlers.Exchange)

	// Wish routes
	wishGroup := api.Group("/wishes")
	wishGroup.Use(middleware.AuthMiddleware)
	wishGroup.Post("/", handlers.CreateWish)
	wishGroup.Get("/", handlers.GetWishes)
	wishGroup.Post("/:id/fulfill", handlers.FulfillWish)
	wishGroup.Post("/:id/approve", handlers.ApproveWish)

	// Quest routes
	questGroup := api.Group("/quests")
	questGroup.Use(middleware.AuthMiddleware)
	questGroup.Post("/", handlers.CreateQuest)
	questGroup.Get("/", handlers.GetQuests)
	questGroup.Post("/:id/complete", handlers.CompleteQuest)

	// Random event routes
	eventGroup := api.Group("/events")
	eventGroup.Use(middleware.AuthMiddleware)
	eventGroup.Get("/pending", handlers.GetPendingEvent)
	eventGroup.Post("/:id/complete", handlers.CompleteEvent)

	// Notification routes
	notificationGroup := api.Group("/notifications")
	notificationGroup.Use(middleware.AuthMiddleware)
	notificationGroup.Get("/", handlers.GetNotifications)
	notificationGroup.Post("/", handlers.ScheduleNotification)

	// Admin routes
	adminGroup := api.Group("/admin")
	adminGroup.Post("/login", admin.Login)
	adminGroup.Post("/logout", admin.Logout)

	adminProtected := adminGroup.Group("")
	adminProtected.Use(middleware.AdminAuthMiddleware)
	adminProtected.Get("/verify", admin.VerifyToken)
	adminProtected.Get("/users", admin.GetAccounts)
	adminProtected.Get("/users/:id", admin.GetAccount)
	adminProtected.Get("/scheduler/status", admin.GetSchedulerStatus)
	adminProtected.Post("/scheduler/run/:task", admin.RunSchedulerTask)

	// WebSocket notification delivery
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", middleware.WebSocketAuthMiddleware, websocket.New(handlers.WebSocketHandler))

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
			"version":   "1.0.0",
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Printf("🚀 HTTP server starting on port %s", port)
	log.Printf("📊 Environment: %s", getEnv("APP_ENV", "development"))
	log.Printf("🔐 JWT Secret configured: %v", os.Getenv("JWT_SECRET") != "")
	log.Printf("🌐 WebSocket available at ws://localhost:%s/ws", port)

	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Failed to start HTTP server:", err)
	}
}

// validateEnvironment checks for required environment variables
func validateEnvironment() {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("FATAL: JWT_SECRET environment variable must be set. Generate one with: openssl rand -base64 64")
	}
	if len(jwtSecret) < 32 {
		log.Fatal("FATAL: JWT_SECRET must be at least 32 characters long")
	}

	appEnv := os.Getenv("APP_ENV")
	if appEnv == "production" {
		corsOrigins := os.Getenv("CORS_ORIGINS")
		if corsOrigins == "" || corsOrigins == "http://localhost:3000" {
			log.Println("WARNING: CORS_ORIGINS not properly configured for production")
		}
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Don't expose internal errors in production
	if os.Getenv("APP_ENV") == "production" && code == 500 {
		message = "An error occurred. Please try again later."
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
