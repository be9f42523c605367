// handlers/auth.go
package handlers

import (
	"os"
	"time"
	"wishwell/database"
	"wishwell/middleware"
	"wishwell/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type LinkPartnerRequest struct {
	Username string `json:"username"`
}

type AuthResponse struct {
	Success bool        `json:"success"`
	Token   string      `json:"token,omitempty"`
	Account AccountInfo `json:"account,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type AccountInfo struct {
	ID         uint      `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Experience int       `json:"experience"`
	Rank       int       `json:"rank"`
	CreatedAt  time.Time `json:"created_at"`
}

func accountInfo(account models.Account) AccountInfo {
	email := ""
	if account.Email != nil {
		email = *account.Email
	}
	return AccountInfo{
		ID:         account.ID,
		Username:   account.Username,
		Email:      email,
		Experience: account.Experience,
		Rank:       account.Rank,
		CreatedAt:  account.CreatedAt,
	}
}

// Register creates a new account
func Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(AuthResponse{
			Success: false,
			Error:   "Invalid request body",
		})
	}

	if req.Username == "" || req.Password == "" {
		return c.Status(400).JSON(AuthResponse{
			Success: false,
			Error:   "Username and password required",
		})
	}

	if len(req.Password) < 6 {
		return c.Status(400).JSON(AuthResponse{
			Success: false,
			Error:   "Password must be at least 6 characters",
		})
	}

	db := database.GetDB()

	var existing models.Account
	if err := db.Where("username = ?", req.Username).First(&existing).Error; err == nil {
		return c.Status(400).JSON(AuthResponse{
			Success: false,
			Error:   "Username already taken",
		})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(500).JSON(AuthResponse{
			Success: false,
			Error:   "Failed to hash password",
		})
	}

	account := models.Account{
		Username:       req.Username,
		Email:          &req.Email,
		Password:       string(hashedPassword),
		DisplayName:    req.DisplayName,
		Rank:           1,
		LastQuotaReset: time.Now().UTC(),
		LastLogin:      time.Now(),
	}

	if err := db.Create(&account).Error; err != nil {
		return c.Status(500).JSON(AuthResponse{
			Success: false,
			Error:   "Failed to create account",
		})
	}

	token, err := generateToken(account)
	if err != nil {
		return c.Status(500).JSON(AuthResponse{
			Success: false,
			Error:   "Failed to generate token",
		})
	}

	return c.JSON(AuthResponse{
		Success: true,
		Token:   token,
		Account: accountInfo(account),
	})
}

// Login authenticates an account and awards the once-per-day login bonus
func Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(AuthResponse{
			Success: false,
			Error:   "Invalid request body",
		})
	}

	if req.Username == "" || req.Password == "" {
		return c.Status(400).JSON(AuthResponse{
			Success: false,
			Error:   "Username and password required",
		})
	}

	db := database.GetDB()

	var account models.Account
	if err := db.Where("username = ?", req.Username).First(&account).Error; err != nil {
		return c.Status(401).JSON(AuthResponse{
			Success: false,
			Error:   "Invalid credentials",
		})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(req.Password)); err != nil {
		return c.Status(401).JSON(AuthResponse{
			Success: false,
			Error:   "Invalid credentials",
		})
	}

	db.Model(&account).Update("last_login", time.Now())

	bonus, err := ledger.AwardDailyBonus(account.ID)
	if err != nil {
		// The bonus is best-effort; login still succeeds.
		bonus = nil
	}

	token, err := generateToken(account)
	if err != nil {
		return c.Status(500).JSON(AuthResponse{
			Success: false,
			Error:   "Failed to generate token",
		})
	}

	db.First(&account, account.ID)
	response := fiber.Map{
		"success": true,
		"token":   token,
		"account": accountInfo(account),
	}
	if bonus != nil {
		response["daily_bonus_experience"] = bonus.Transaction.ExperienceDelta
		if bonus.Promotion.Promoted {
			response["promotion"] = bonus.Promotion
		}
	}
	return c.JSON(response)
}

// LinkPartner pairs two accounts so they can grant each other's wishes
func LinkPartner(c *fiber.Ctx) error {
	accountID, err := middleware.GetAccountID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": err.Error()})
	}

	var req LinkPartnerRequest
	if err := c.BodyParser(&req); err != nil || req.Username == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Partner username required"})
	}

	db := database.GetDB()

	var account models.Account
	if err := db.First(&account, accountID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Account not found"})
	}

	var partner models.Account
	if err := db.Where("username = ?", req.Username).First(&partner).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Partner not found"})
	}

	if partner.ID == account.ID {
		return c.Status(400).JSON(fiber.Map{"error": "Cannot link to yourself"})
	}
	if account.PartnerID != nil || partner.PartnerID != nil {
		return c.Status(400).JSON(fiber.Map{"error": "One of the accounts is already linked"})
	}

	if err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&account).Update("partner_id", partner.ID).Error; err != nil {
			return err
		}
		return tx.Model(&partner).Update("partner_id", account.ID).Error
	}); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to link partners"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"partner": partner.Username,
	})
}

// Helper functions

func generateToken(account models.Account) (string, error) {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "wishwell-secret-change-in-production"
	}

	claims := jwt.MapClaims{
		"account_id": account.ID,
		"username":   account.Username,
		"is_admin":   account.IsAdmin,
		"exp":        time.Now().Add(time.Hour * 720).Unix(), // 30 days
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}
