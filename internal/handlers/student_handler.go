package handlers

import (
	"fmt"
	"log/slog"
	"strconv"

	"students/internal/apperr"
	"students/internal/models"
	"students/internal/services"

	"github.com/gofiber/fiber/v2"
)

// StudentHandler handles HTTP requests for students.
type StudentHandler struct {
	service *services.StudentService
	log     *slog.Logger
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(service *services.StudentService, log *slog.Logger) *StudentHandler {
	return &StudentHandler{
		service: service,
		log:     log,
	}
}

// RegisterRoutes registers the student routes. Mutating routes run behind
// guard; pass nil to leave them public.
func (h *StudentHandler) RegisterRoutes(router fiber.Router, guard fiber.Handler) {
	students := router.Group("/students")
	students.Get("/", h.HandleListStudents)
	students.Get("/:id", h.HandleGetStudent)

	mutations := []fiber.Handler{}
	if guard != nil {
		mutations = append(mutations, guard)
	}
	students.Post("/", append(mutations, h.HandleCreateStudent)...)
	students.Put("/:id", append(mutations, h.HandleUpdateStudent)...)
	students.Delete("/:id", append(mutations, h.HandleDeleteStudent)...)
}

// HandleListStudents returns every student.
func (h *StudentHandler) HandleListStudents(c *fiber.Ctx) error {
	students, err := h.service.ListStudents(c.UserContext())
	if err != nil {
		return writeError(c, "Could not retrieve students", err)
	}
	return c.JSON(students)
}

// HandleGetStudent returns one student.
func (h *StudentHandler) HandleGetStudent(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, "Invalid student ID", err)
	}
	student, err := h.service.GetStudent(c.UserContext(), id)
	if err != nil {
		return writeError(c, "Could not retrieve student", err)
	}
	return c.JSON(student)
}

// HandleCreateStudent creates a student from the request body.
func (h *StudentHandler) HandleCreateStudent(c *fiber.Ctx) error {
	var in models.StudentInput
	if err := c.BodyParser(&in); err != nil {
		h.log.Debug("invalid create body", "err", err)
		return writeError(c, "Invalid request body", apperr.Validation(map[string]string{"body": err.Error()}))
	}
	student, err := h.service.CreateStudent(c.UserContext(), in)
	if err != nil {
		return writeError(c, "Could not create student", err)
	}
	return c.Status(fiber.StatusCreated).JSON(student)
}

// HandleUpdateStudent replaces a student with the request body.
func (h *StudentHandler) HandleUpdateStudent(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, "Invalid student ID", err)
	}
	var in models.StudentInput
	if err := c.BodyParser(&in); err != nil {
		h.log.Debug("invalid update body", "id", id, "err", err)
		return writeError(c, "Invalid request body", apperr.Validation(map[string]string{"body": err.Error()}))
	}
	student, err := h.service.UpdateStudent(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, "Could not update student", err)
	}
	return c.JSON(student)
}

// HandleDeleteStudent removes a student.
func (h *StudentHandler) HandleDeleteStudent(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, "Invalid student ID", err)
	}
	if err := h.service.DeleteStudent(c.UserContext(), id); err != nil {
		return writeError(c, "Could not delete student", err)
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Student with ID %d deleted successfully", id),
	})
}

func parseID(c *fiber.Ctx) (uint, error) {
	raw := c.Params("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation(map[string]string{"id": fmt.Sprintf("field id must be a positive integer, got %q", raw)})
	}
	return uint(id), nil
}
