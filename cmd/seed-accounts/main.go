// Seeds a linked pair of demo accounts plus an admin. Run once against a
// fresh database:
//
//	go run ./cmd/seed-accounts
package main

import (
	"fmt"
	"log"
	"time"

	"wishwell/database"
	"wishwell/models"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type seed struct {
	username string
	password string
	isAdmin  bool
	coins    int64
}

var seeds = []seed{
	{username: "aurora", password: "aurora-demo", coins: 50},
	{username: "orion", password: "orion-demo", coins: 50},
	{username: "admin", password: "admin-demo", isAdmin: true},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	database.InitDB()
	defer database.CloseDB()
	db := database.GetDB()

	created := make([]*models.Account, 0, len(seeds))
	for _, s := range seeds {
		var existing models.Account
		if err := db.Where("username = ?", s.username).First(&existing).Error; err == nil {
			fmt.Printf("Skipping %s: already exists\n", s.username)
			created = append(created, &existing)
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(s.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal("Failed to hash password:", err)
		}

		account := models.Account{
			Username:       s.username,
			Password:       string(hash),
			Rank:           1,
			CoinsBalance:   s.coins,
			IsAdmin:        s.isAdmin,
			LastQuotaReset: time.Now().UTC(),
		}
		if err := db.Create(&account).Error; err != nil {
			log.Fatal("Failed to create account:", err)
		}
		fmt.Printf("Created %s (id %d)\n", account.Username, account.ID)
		created = append(created, &account)
	}

	// Link the two demo accounts as partners
	a, b := created[0], created[1]
	if a.PartnerID == nil && b.PartnerID == nil {
		if err := db.Model(&models.Account{}).Where("id = ?", a.ID).
			Update("partner_id", b.ID).Error; err != nil {
			log.Fatal("Failed to link partners:", err)
		}
		if err := db.Model(&models.Account{}).Where("id = ?", b.ID).
			Update("partner_id", a.ID).Error; err != nil {
			log.Fatal("Failed to link partners:", err)
		}
		fmt.Printf("Linked %s and %s as partners\n", a.Username, b.Username)
	}

	fmt.Println("Done")
}
