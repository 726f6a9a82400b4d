// migrate_gorm.go - Run this file to apply GORM migrations
// Usage: go run migrate_gorm.go

//go:build ignore

package main

import (
	"log"

	"github.com/acadfolio/portfolio-api/config"
	"github.com/acadfolio/portfolio-api/database"
	"gorm.io/gorm"
)

func main() {
	log.Println("=== GORM Migration ===")

	if err := config.LoadENV(); err != nil {
		log.Println("Warning: could not load .env:", err)
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer store.Close()

	db := store.GetDB().(*gorm.DB)
	if err := database.Migrate(db); err != nil {
		log.Fatal("Migration failed:", err)
	}

	log.Println("Migrations applied")
}
