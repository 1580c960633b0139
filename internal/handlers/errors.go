package handlers

import (
	"students/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps an error kind to its HTTP status. Conflicts are reported
// as 400 like any other rejected payload.
func StatusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindConflict:
		return fiber.StatusBadRequest
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindUnauthorized:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError renders err with the given message. Persistence failures do
// not leak their cause to the client.
func writeError(c *fiber.Ctx, message string, err error) error {
	status := StatusFor(err)
	body := fiber.Map{"message": message}
	if status == fiber.StatusInternalServerError {
		body["error"] = "internal server error"
	} else {
		body["error"] = err.Error()
	}
	if fields := apperr.FieldsOf(err); len(fields) > 0 {
		body["errors"] = fields
	}
	return c.Status(status).JSON(body)
}
