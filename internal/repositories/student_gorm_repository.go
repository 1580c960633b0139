package repositories

import (
	"context"
	"errors"

	"students/internal/apperr"
	"students/internal/models"

	"gorm.io/gorm"
)

// GORMStudentRepository is a GORM implementation of StudentRepository.
// The database must be opened with TranslateError so that unique index
// violations surface as gorm.ErrDuplicatedKey.
type GORMStudentRepository struct {
	db *gorm.DB
}

// NewGORMStudentRepository creates a new instance of GORMStudentRepository.
func NewGORMStudentRepository(db *gorm.DB) *GORMStudentRepository {
	return &GORMStudentRepository{
		db: db,
	}
}

// List retrieves all students ordered by ID.
func (r *GORMStudentRepository) List(ctx context.Context) ([]models.Student, error) {
	students := make([]models.Student, 0)
	if err := r.db.WithContext(ctx).Order("id").Find(&students).Error; err != nil {
		return nil, apperr.Persistence("failed to list students", err)
	}
	return students, nil
}

// GetByID retrieves a single student by its ID.
func (r *GORMStudentRepository) GetByID(ctx context.Context, id uint) (*models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("student with ID %d not found", id)
		}
		return nil, apperr.Persistence("failed to get student", err)
	}
	return &student, nil
}

// GetByEmail retrieves a single student by its email.
func (r *GORMStudentRepository) GetByEmail(ctx context.Context, email string) (*models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("student with email %s not found", email)
		}
		return nil, apperr.Persistence("failed to get student by email", err)
	}
	return &student, nil
}

// Insert stores a new student and returns it with the assigned ID.
func (r *GORMStudentRepository) Insert(ctx context.Context, in models.StudentInput) (*models.Student, error) {
	student := in.ToStudent(0)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&student).Error
	})
	if err != nil {
		return nil, translateWriteError("failed to create student", err)
	}
	return &student, nil
}

// Replace overwrites every field of the student with the given ID except
// the ID itself.
func (r *GORMStudentRepository) Replace(ctx context.Context, id uint, in models.StudentInput) (*models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&student, id).Error; err != nil {
			return err
		}
		student = in.ToStudent(student.ID)
		return tx.Save(&student).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("student with ID %d not found", id)
		}
		return nil, translateWriteError("failed to update student", err)
	}
	return &student, nil
}

// Delete removes the student with the given ID.
func (r *GORMStudentRepository) Delete(ctx context.Context, id uint) (bool, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Student{}, id)
		removed = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return false, apperr.Persistence("failed to delete student", err)
	}
	return removed > 0, nil
}

func translateWriteError(op string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict(ErrMsgEmailTaken)
	}
	return apperr.Persistence(op, err)
}
