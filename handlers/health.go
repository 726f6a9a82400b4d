package handlers

import (
	"github.com/acadfolio/portfolio-api/database"
	"github.com/acadfolio/portfolio-api/utils/cache"
	"github.com/acadfolio/portfolio-api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// HealthCheck reports liveness of the API and its backing services.
// GET /health
func HealthCheck(c *fiber.Ctx, store database.Storage, redisCache *cache.RedisCache) error {
	checks := fiber.Map{
		"database": "ok",
		"redis":    "ok",
	}
	healthy := true

	if err := store.HealthCheck(); err != nil {
		checks["database"] = "unreachable"
		healthy = false
	}

	if redisCache == nil {
		checks["redis"] = "disabled"
	} else if err := redisCache.Ping(c.Context()); err != nil {
		checks["redis"] = "unreachable"
		healthy = false
	}

	if !healthy {
		return response.ServiceUnavailable(c, "Service degraded")
	}
	return response.Success(c, fiber.Map{
		"status": "healthy",
		"checks": checks,
	})
}
