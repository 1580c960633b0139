package repositories

import (
	"context"

	"students/internal/models"
)

// ErrMsgEmailTaken is the conflict message reported when an email is
// already held by another student.
const ErrMsgEmailTaken = "student with this email already exists"

// StudentRepository defines the interface for student data access.
type StudentRepository interface {
	List(ctx context.Context) ([]models.Student, error)
	GetByID(ctx context.Context, id uint) (*models.Student, error)
	GetByEmail(ctx context.Context, email string) (*models.Student, error)
	Insert(ctx context.Context, in models.StudentInput) (*models.Student, error)
	Replace(ctx context.Context, id uint, in models.StudentInput) (*models.Student, error)
	// Delete reports whether a record was removed. A missing id is not an error.
	Delete(ctx context.Context, id uint) (bool, error)
}
