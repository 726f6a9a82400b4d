package app

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/acadfolio/portfolio-api/api"
	"github.com/acadfolio/portfolio-api/config"
	"github.com/acadfolio/portfolio-api/database"
	"github.com/acadfolio/portfolio-api/router"
	"github.com/acadfolio/portfolio-api/services/cron"
	"github.com/acadfolio/portfolio-api/utils/auth"
)

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	env, err := config.Get()
	if err != nil {
		return err
	}

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		print("Check whether the Postgres is running or not\n")
		return err
	}

	if err := store.Init(); err != nil {
		print("Failed to initialize database tables\n")
		return err
	}

	// Cron jobs run in-process unless disabled
	var cronManager *cron.CronManager
	if env.CRON_ENABLED {
		db, ok := store.GetDB().(*gorm.DB)
		if !ok {
			print("Warning: Failed to get database connection for cron jobs\n")
		} else {
			jwtManager := auth.NewJWTManager(auth.JWTConfig{
				Secret:        env.JWT_SECRET,
				Expiry:        time.Duration(env.ACCESS_TOKEN_TTL_MINUTES) * time.Minute,
				RefreshExpiry: time.Duration(env.REFRESH_TOKEN_TTL_DAYS) * 24 * time.Hour,
				Issuer:        env.JWT_ISSUER,
			})
			cronManager = cron.NewCronManager(db, auth.NewLedgerService(db, jwtManager))
			if err := cronManager.Start(); err != nil {
				print("Warning: Failed to start cron jobs\n")
				print("Error: ", err.Error(), "\n")
			}
		}
	}

	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		store.Close()
	}()

	server := api.NewAPIServer(fmt.Sprintf(":%d", env.PORT))
	app := server.GetEngine()

	// Setup Routes (security middleware installed inside)
	router.SetupRoutes(app, store, env)

	return server.Run()
}
