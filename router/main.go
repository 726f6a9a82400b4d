package router

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/acadfolio/portfolio-api/config"
	"github.com/acadfolio/portfolio-api/database"
	"github.com/acadfolio/portfolio-api/handlers"
	admin_handlers "github.com/acadfolio/portfolio-api/handlers/admin"
	auth_handlers "github.com/acadfolio/portfolio-api/handlers/auth"
	message_handlers "github.com/acadfolio/portfolio-api/handlers/message"
	project_handlers "github.com/acadfolio/portfolio-api/handlers/project"
	publication_handlers "github.com/acadfolio/portfolio-api/handlers/publication"
	"github.com/acadfolio/portfolio-api/model"
	"github.com/acadfolio/portfolio-api/services"
	"github.com/acadfolio/portfolio-api/utils"
	"github.com/acadfolio/portfolio-api/utils/auth"
	"github.com/acadfolio/portfolio-api/utils/cache"
	"github.com/acadfolio/portfolio-api/utils/middleware"
)

func SetupRoutes(app *fiber.App, store database.Storage, env *config.EnviornmentVariable) {
	if env.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := env.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "portfolio-api"
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        env.JWT_SECRET,
		Expiry:        time.Duration(env.ACCESS_TOKEN_TTL_MINUTES) * time.Minute,
		RefreshExpiry: time.Duration(env.REFRESH_TOKEN_TTL_DAYS) * 24 * time.Hour,
		Issuer:        jwtIssuer,
	})

	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Redis backs the rate limiter and login lockouts. Both fail open, so a
	// missing Redis degrades protection rather than taking the API down.
	redisURL := env.REDIS_URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Rate limiting and brute force protection will be disabled.", err)
		redisCache = nil
	}

	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)

		rateLimiter := middleware.NewRateLimiter(
			redisCache,
			env.RATE_LIMIT_REQUESTS,
			time.Duration(env.RATE_LIMIT_WINDOW_SECONDS)*time.Second,
			[]string{"/ping"},
		)
		app.Use(rateLimiter.Handler())
	}

	authService := services.NewAuthService(db, jwtManager)
	ledger := authService.Ledger()

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)
	authHandler := auth_handlers.NewAuthHandler(db, authService, bruteForceProtection)

	allowedOrigins := env.ALLOWED_ORIGINS
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins: allowedOrigins,
	})

	// Health check endpoint (public)
	app.Get("/ping", func(c *fiber.Ctx) error {
		return handlers.HealthCheck(c, store, redisCache)
	})

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)

	// Login behind the lockout check
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckLockout(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}

	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Post("/logout", authMiddleware.Optional(), authHandler.Logout)

	// Profile routes (protected)
	profileGroup := api.Group("/profile", authMiddleware.Required())
	profileGroup.Get("/", authHandler.Me)
	profileGroup.Put("/", authHandler.UpdateProfile)

	canEdit := authMiddleware.RequireRole(model.RoleResearcher, model.RoleAdmin, model.RoleSuperAdmin)

	// Publications: public reads, authenticated researcher writes
	publications := api.Group("/publications")
	publications.Get("/", utils.MakeHTTPHandleFunc(publication_handlers.List, store))
	publications.Get("/:id", utils.MakeHTTPHandleFunc(publication_handlers.Get, store))
	publications.Post("/", authMiddleware.Required(), canEdit, utils.MakeHTTPHandleFunc(publication_handlers.Create, store))
	publications.Put("/:id", authMiddleware.Required(), canEdit, utils.MakeHTTPHandleFunc(publication_handlers.Update, store))
	publications.Delete("/:id", authMiddleware.Required(), canEdit, utils.MakeHTTPHandleFunc(publication_handlers.Delete, store))

	// Projects: same gating as publications
	projects := api.Group("/projects")
	projects.Get("/", utils.MakeHTTPHandleFunc(project_handlers.List, store))
	projects.Get("/:id", utils.MakeHTTPHandleFunc(project_handlers.Get, store))
	projects.Post("/", authMiddleware.Required(), canEdit, utils.MakeHTTPHandleFunc(project_handlers.Create, store))
	projects.Put("/:id", authMiddleware.Required(), canEdit, utils.MakeHTTPHandleFunc(project_handlers.Update, store))
	projects.Delete("/:id", authMiddleware.Required(), canEdit, utils.MakeHTTPHandleFunc(project_handlers.Delete, store))

	// Public contact form
	api.Post("/messages", utils.MakeHTTPHandleFunc(message_handlers.Create, store))

	// Admin area
	adminOnly := authMiddleware.RequireRole(model.RoleAdmin, model.RoleSuperAdmin)
	superAdminOnly := authMiddleware.RequireRole(model.RoleSuperAdmin)

	adminGroup := api.Group("/admin", authMiddleware.Required(), adminOnly)

	adminGroup.Get("/dashboard", utils.MakeHTTPHandleFunc(admin_handlers.Dashboard, store))

	adminGroup.Get("/users", utils.MakeHTTPHandleFunc(admin_handlers.ListUsers, store))
	adminGroup.Get("/users/export", superAdminOnly, utils.MakeHTTPHandleFunc(admin_handlers.ExportUsersCSV, store))
	adminGroup.Get("/users/:id", utils.MakeHTTPHandleFunc(admin_handlers.GetUser, store))
	adminGroup.Put("/users/:id", utils.MakeHTTPHandleFunc(admin_handlers.UpdateUser, store))
	adminGroup.Delete("/users/:id", superAdminOnly, utils.MakeHTTPHandleFunc(admin_handlers.DeleteUser, store))

	adminGroup.Get("/users/:id/sessions", func(c *fiber.Ctx) error {
		return admin_handlers.ListUserSessions(c, store, ledger)
	})
	adminGroup.Delete("/users/:id/sessions", func(c *fiber.Ctx) error {
		return admin_handlers.RevokeAllUserSessions(c, store, ledger)
	})
	adminGroup.Delete("/sessions/:id", func(c *fiber.Ctx) error {
		return admin_handlers.RevokeSession(c, store, ledger)
	})

	adminGroup.Get("/audits", utils.MakeHTTPHandleFunc(admin_handlers.ListAudits, store))
	adminGroup.Get("/audits/export", superAdminOnly, utils.MakeHTTPHandleFunc(admin_handlers.ExportAuditsCSV, store))

	adminGroup.Get("/messages", utils.MakeHTTPHandleFunc(message_handlers.List, store))
	adminGroup.Put("/messages/:id", utils.MakeHTTPHandleFunc(message_handlers.UpdateStatus, store))
	adminGroup.Delete("/messages/:id", utils.MakeHTTPHandleFunc(message_handlers.Delete, store))
}
