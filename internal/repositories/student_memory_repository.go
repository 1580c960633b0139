package repositories

import (
	"context"
	"sort"
	"sync"

	"students/internal/apperr"
	"students/internal/models"
)

// MemoryStudentRepository is an in-memory implementation of
// StudentRepository. IDs come from a counter that only grows, so an ID is
// never handed out twice even after its record is deleted.
type MemoryStudentRepository struct {
	mu       sync.RWMutex
	students map[uint]models.Student
	byEmail  map[string]uint
	lastID   uint
}

// NewMemoryStudentRepository creates a new, empty MemoryStudentRepository.
func NewMemoryStudentRepository() *MemoryStudentRepository {
	return &MemoryStudentRepository{
		students: make(map[uint]models.Student),
		byEmail:  make(map[string]uint),
	}
}

// List returns all students ordered by ID.
func (r *MemoryStudentRepository) List(_ context.Context) ([]models.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	students := make([]models.Student, 0, len(r.students))
	for _, s := range r.students {
		students = append(students, s)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, nil
}

// GetByID returns a student by its ID.
func (r *MemoryStudentRepository) GetByID(_ context.Context, id uint) (*models.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	student, ok := r.students[id]
	if !ok {
		return nil, apperr.NotFound("student with ID %d not found", id)
	}
	return &student, nil
}

// GetByEmail returns a student by its email.
func (r *MemoryStudentRepository) GetByEmail(_ context.Context, email string) (*models.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, apperr.NotFound("student with email %s not found", email)
	}
	student := r.students[id]
	return &student, nil
}

// Insert adds a new student under the next ID.
func (r *MemoryStudentRepository) Insert(_ context.Context, in models.StudentInput) (*models.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[in.Email]; taken {
		return nil, apperr.Conflict(ErrMsgEmailTaken)
	}
	r.lastID++
	student := in.ToStudent(r.lastID)
	r.students[student.ID] = student
	r.byEmail[student.Email] = student.ID
	return &student, nil
}

// Replace overwrites an existing student.
func (r *MemoryStudentRepository) Replace(_ context.Context, id uint, in models.StudentInput) (*models.Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.students[id]
	if !ok {
		return nil, apperr.NotFound("student with ID %d not found", id)
	}
	if owner, taken := r.byEmail[in.Email]; taken && owner != id {
		return nil, apperr.Conflict(ErrMsgEmailTaken)
	}
	delete(r.byEmail, current.Email)
	student := in.ToStudent(id)
	r.students[id] = student
	r.byEmail[student.Email] = id
	return &student, nil
}

// Delete removes a student by its ID.
func (r *MemoryStudentRepository) Delete(_ context.Context, id uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	student, ok := r.students[id]
	if !ok {
		return false, nil
	}
	delete(r.students, id)
	delete(r.byEmail, student.Email)
	return true, nil
}
