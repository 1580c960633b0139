package services

import (
	"context"
	"log/slog"
	"time"

	"students/internal/apperr"
	"students/internal/metrics"
	"students/internal/models"
	"students/internal/repositories"

	"github.com/go-playground/validator/v10"
)

// EventPublisher receives an event after every committed mutation.
type EventPublisher interface {
	PublishStudentEvent(ctx context.Context, event models.StudentEvent) error
}

// StudentService validates student input and applies it to the repository.
type StudentService struct {
	repo      repositories.StudentRepository
	validate  *validator.Validate
	publisher EventPublisher
	metrics   *metrics.Metrics
	log       *slog.Logger
}

// StudentServiceOption configures optional StudentService collaborators.
type StudentServiceOption func(*StudentService)

// WithPublisher publishes lifecycle events through p.
func WithPublisher(p EventPublisher) StudentServiceOption {
	return func(s *StudentService) { s.publisher = p }
}

// WithMetrics records every operation in m.
func WithMetrics(m *metrics.Metrics) StudentServiceOption {
	return func(s *StudentService) { s.metrics = m }
}

// NewStudentService creates a new StudentService.
func NewStudentService(repo repositories.StudentRepository, log *slog.Logger, opts ...StudentServiceOption) *StudentService {
	s := &StudentService{
		repo:     repo,
		validate: NewValidator(),
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListStudents returns every stored student.
func (s *StudentService) ListStudents(ctx context.Context) (students []models.Student, err error) {
	defer s.observe("list", time.Now(), &err)
	return s.repo.List(ctx)
}

// GetStudent returns the student with the given ID.
func (s *StudentService) GetStudent(ctx context.Context, id uint) (student *models.Student, err error) {
	defer s.observe("get", time.Now(), &err)
	return s.repo.GetByID(ctx, id)
}

// CreateStudent validates in, rejects an email that is already taken and
// stores the new student. The email lookup only short-circuits the common
// case; the store's unique index decides concurrent races.
func (s *StudentService) CreateStudent(ctx context.Context, in models.StudentInput) (student *models.Student, err error) {
	defer s.observe("create", time.Now(), &err)

	in = in.Normalize()
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByEmail(ctx, in.Email)
	switch {
	case err == nil && existing != nil:
		return nil, apperr.Conflict(repositories.ErrMsgEmailTaken)
	case err != nil && !apperr.Is(err, apperr.KindNotFound):
		return nil, err
	}

	student, err = s.repo.Insert(ctx, in)
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "student created", "id", student.ID)
	s.publish(ctx, models.EventStudentCreated, student.ID, student)
	return student, nil
}

// UpdateStudent replaces every field of the student with the given ID.
func (s *StudentService) UpdateStudent(ctx context.Context, id uint, in models.StudentInput) (student *models.Student, err error) {
	defer s.observe("update", time.Now(), &err)

	in = in.Normalize()
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}

	student, err = s.repo.Replace(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "student updated", "id", student.ID)
	s.publish(ctx, models.EventStudentUpdated, student.ID, student)
	return student, nil
}

// DeleteStudent removes the student with the given ID.
func (s *StudentService) DeleteStudent(ctx context.Context, id uint) (err error) {
	defer s.observe("delete", time.Now(), &err)

	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return apperr.NotFound("student with ID %d not found", id)
	}
	s.log.InfoContext(ctx, "student deleted", "id", id)
	s.publish(ctx, models.EventStudentDeleted, id, nil)
	return nil
}

// publish never fails the caller: the mutation has already committed.
func (s *StudentService) publish(ctx context.Context, eventType string, id uint, student *models.Student) {
	if s.publisher == nil {
		return
	}
	event := models.StudentEvent{
		Type:       eventType,
		StudentID:  id,
		Student:    student,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishStudentEvent(ctx, event); err != nil {
		s.log.WarnContext(ctx, "failed to publish student event", "type", eventType, "id", id, "err", err)
	}
}

func (s *StudentService) observe(op string, start time.Time, errp *error) {
	outcome := "ok"
	if *errp != nil {
		outcome = apperr.KindOf(*errp).String()
		if apperr.KindOf(*errp) == apperr.KindPersistence {
			s.log.Error("student operation failed", "op", op, "err", *errp)
		}
	}
	s.log.Debug("student operation", "op", op, "outcome", outcome, slog.Duration("duration", time.Since(start)))
	s.metrics.Observe(op, outcome, start)
}
