package utils

import (
	"github.com/acadfolio/portfolio-api/database"
	"github.com/gofiber/fiber/v2"
)

// MakeHTTPHandleFunc adapts a storage-aware handler into a fiber handler.
func MakeHTTPHandleFunc(handler func(c *fiber.Ctx, store database.Storage) error, store database.Storage) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		return handler(c, store)
	}
}
