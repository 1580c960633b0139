package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// WelcomeMessage is returned by GET /.
const WelcomeMessage = "Welcome to the student management API"

// RegisterRootRoutes registers the welcome and health endpoints.
func RegisterRootRoutes(app fiber.Router) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": WelcomeMessage})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
}
