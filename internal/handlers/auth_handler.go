package handlers

import (
	"log/slog"

	"students/internal/apperr"
	"students/internal/models"
	"students/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for operator authentication.
type AuthHandler struct {
	authService *services.AuthService
	log         *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, log *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         log,
	}
}

// RegisterRoutes registers the authentication routes.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
}

// HandleRegister handles new operator registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, "Invalid request body", apperr.Validation(map[string]string{"body": err.Error()}))
	}

	user, err := h.authService.RegisterUser(c.UserContext(), req)
	if err != nil {
		h.log.Info("registration rejected", "username", req.Username, "err", err)
		return writeError(c, "Registration failed", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    user,
	})
}

// HandleLogin checks credentials and issues a JWT.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, "Invalid request body", apperr.Validation(map[string]string{"body": err.Error()}))
	}

	token, err := h.authService.LoginUser(c.UserContext(), req)
	if err != nil {
		h.log.Info("login rejected", "username", req.Username, "err", err)
		return writeError(c, "Authentication failed", err)
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
	})
}
