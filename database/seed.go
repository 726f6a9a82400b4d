package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/acadfolio/portfolio-api/model"
	"github.com/acadfolio/portfolio-api/utils/auth"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// RunSeeds runs all seed functions
func RunSeeds(db *gorm.DB) error {
	return NewSeeder(db).SeedAll()
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("Starting database seeding...")

	if err := s.SeedSuperAdmin(); err != nil {
		return fmt.Errorf("failed to seed super admin: %w", err)
	}

	if err := s.SeedSampleContent(); err != nil {
		return fmt.Errorf("failed to seed sample content: %w", err)
	}

	log.Println("Database seeding completed")
	return nil
}

// SeedSuperAdmin creates the initial super admin account from ADMIN_EMAIL and
// ADMIN_PASSWORD. Skipped when one already exists or the variables are unset.
func (s *Seeder) SeedSuperAdmin() error {
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", model.RoleSuperAdmin).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("Super admin already exists, skipping...")
		return nil
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		log.Println("ADMIN_EMAIL and ADMIN_PASSWORD environment variables not set, skipping super admin creation")
		return nil
	}

	hashed, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &model.User{
		Email:          adminEmail,
		HashedPassword: hashed,
		Role:           model.RoleSuperAdmin,
		Status:         model.StatusActive,
		Profile: &model.Profile{
			FirstName: "System",
			LastName:  "Administrator",
		},
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("Created super admin user: %s\n", admin.Email)
	return nil
}

// SeedSampleContent creates a demo researcher with a few portfolio entries so
// a fresh environment has something to render.
func (s *Seeder) SeedSampleContent() error {
	if os.Getenv("SEED_SAMPLE_DATA") != "true" {
		return nil
	}

	var count int64
	if err := s.db.Model(&model.Publication{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Sample content already exists, skipping...")
		return nil
	}

	hashed, err := auth.HashPassword("changeme-demo")
	if err != nil {
		return err
	}

	researcher := &model.User{
		Email:          "demo.researcher@example.org",
		HashedPassword: hashed,
		Role:           model.RoleResearcher,
		Status:         model.StatusActive,
		Profile: &model.Profile{
			FirstName:  "Demo",
			LastName:   "Researcher",
			Grade:      "Senior Researcher",
			Speciality: "Distributed Systems",
		},
	}
	if err := s.db.Create(researcher).Error; err != nil {
		return err
	}

	started := time.Date(2023, 1, 9, 0, 0, 0, 0, time.UTC)
	seeds := []interface{}{
		&model.Publication{
			UserID:  researcher.ID,
			Year:    2024,
			Title:   "Consistency Tradeoffs in Geo-Replicated Stores",
			Journal: "Journal of Systems Research",
		},
		&model.Project{
			UserID:      researcher.ID,
			Title:       "Replica Placement Simulator",
			Description: "Discrete event simulator for replica placement strategies.",
			StartedAt:   &started,
		},
	}
	for _, row := range seeds {
		if err := s.db.Create(row).Error; err != nil {
			return err
		}
	}

	log.Println("Created sample portfolio content")
	return nil
}
