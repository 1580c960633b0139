package services_test

import (
	"context"
	"errors"
	"testing"

	"students/internal/apperr"
	"students/internal/logging"
	"students/internal/models"
	"students/internal/repositories"
	"students/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStudentRepository is a mock implementation of repositories.StudentRepository
type MockStudentRepository struct {
	mock.Mock
}

func (m *MockStudentRepository) List(ctx context.Context) ([]models.Student, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Student), args.Error(1)
}

func (m *MockStudentRepository) GetByID(ctx context.Context, id uint) (*models.Student, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Student), args.Error(1)
}

func (m *MockStudentRepository) GetByEmail(ctx context.Context, email string) (*models.Student, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Student), args.Error(1)
}

func (m *MockStudentRepository) Insert(ctx context.Context, in models.StudentInput) (*models.Student, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Student), args.Error(1)
}

func (m *MockStudentRepository) Replace(ctx context.Context, id uint, in models.StudentInput) (*models.Student, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Student), args.Error(1)
}

func (m *MockStudentRepository) Delete(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockPublisher is a mock implementation of services.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishStudentEvent(ctx context.Context, event models.StudentEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func intPtr(v int) *int { return &v }

func input(name string, age int, email string) models.StudentInput {
	return models.StudentInput{Name: name, Age: intPtr(age), Email: email}
}

func newMemoryService() (*services.StudentService, *repositories.MemoryStudentRepository) {
	repo := repositories.NewMemoryStudentRepository()
	return services.NewStudentService(repo, logging.Discard()), repo
}

func TestStudentService_CreateStudent(t *testing.T) {
	mockRepo := new(MockStudentRepository)
	publisher := new(MockPublisher)
	service := services.NewStudentService(mockRepo, logging.Discard(), services.WithPublisher(publisher))
	ctx := context.Background()

	in := input("Alice", 20, "a@x.com")
	stored := &models.Student{ID: 1, Name: "Alice", Age: 20, Email: "a@x.com"}

	mockRepo.On("GetByEmail", ctx, "a@x.com").Return(nil, apperr.NotFound("student with email a@x.com not found")).Once()
	mockRepo.On("Insert", ctx, in).Return(stored, nil).Once()
	publisher.On("PublishStudentEvent", ctx, mock.MatchedBy(func(e models.StudentEvent) bool {
		return e.Type == models.EventStudentCreated && e.StudentID == 1 && e.Student == stored
	})).Return(nil).Once()

	student, err := service.CreateStudent(ctx, in)
	assert.NoError(t, err)
	assert.Equal(t, stored, student)
	mockRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestStudentService_CreateStudent_TrimsInput(t *testing.T) {
	service, _ := newMemoryService()

	student, err := service.CreateStudent(context.Background(), input("  Alice ", 20, " a@x.com "))
	require.NoError(t, err)
	assert.Equal(t, "Alice", student.Name)
	assert.Equal(t, "a@x.com", student.Email)
}

func TestStudentService_CreateStudent_Validation(t *testing.T) {
	tests := []struct {
		name   string
		in     models.StudentInput
		fields []string
	}{
		{"empty name", input("", 20, "a@x.com"), []string{"name"}},
		{"blank name", input("   ", 20, "a@x.com"), []string{"name"}},
		{"negative age", input("Alice", -1, "a@x.com"), []string{"age"}},
		{"missing age", models.StudentInput{Name: "Alice", Email: "a@x.com"}, []string{"age"}},
		{"malformed email", input("Alice", 20, "not-an-email"), []string{"email"}},
		{"empty email", input("Alice", 20, ""), []string{"email"}},
		{"everything wrong", models.StudentInput{}, []string{"name", "age", "email"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockStudentRepository)
			service := services.NewStudentService(mockRepo, logging.Discard())

			_, err := service.CreateStudent(context.Background(), tt.in)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
			fields := apperr.FieldsOf(err)
			assert.Len(t, fields, len(tt.fields))
			for _, f := range tt.fields {
				assert.Contains(t, fields, f)
			}
			mockRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
		})
	}
}

func TestStudentService_CreateStudent_ZeroAgeIsValid(t *testing.T) {
	service, _ := newMemoryService()

	student, err := service.CreateStudent(context.Background(), input("Baby", 0, "baby@x.com"))
	require.NoError(t, err)
	assert.Equal(t, 0, student.Age)
}

func TestStudentService_CreateStudent_DuplicateEmailPrecheck(t *testing.T) {
	mockRepo := new(MockStudentRepository)
	service := services.NewStudentService(mockRepo, logging.Discard())
	ctx := context.Background()

	mockRepo.On("GetByEmail", ctx, "a@x.com").Return(&models.Student{ID: 1, Email: "a@x.com"}, nil).Once()

	_, err := service.CreateStudent(ctx, input("Bob", 22, "a@x.com"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Contains(t, err.Error(), "already exists")
	mockRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestStudentService_CreateStudent_StoreConflictWins(t *testing.T) {
	// Another writer took the email between the pre-check and the insert.
	mockRepo := new(MockStudentRepository)
	service := services.NewStudentService(mockRepo, logging.Discard())
	ctx := context.Background()
	in := input("Bob", 22, "a@x.com")

	mockRepo.On("GetByEmail", ctx, "a@x.com").Return(nil, apperr.NotFound("missing")).Once()
	mockRepo.On("Insert", ctx, in).Return(nil, apperr.Conflict(repositories.ErrMsgEmailTaken)).Once()

	_, err := service.CreateStudent(ctx, in)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	mockRepo.AssertExpectations(t)
}

func TestStudentService_CreateStudent_LookupFailure(t *testing.T) {
	mockRepo := new(MockStudentRepository)
	service := services.NewStudentService(mockRepo, logging.Discard())
	ctx := context.Background()

	mockRepo.On("GetByEmail", ctx, "a@x.com").Return(nil, apperr.Persistence("failed to get student by email", errors.New("disk I/O error"))).Once()

	_, err := service.CreateStudent(ctx, input("Alice", 20, "a@x.com"))
	assert.True(t, apperr.Is(err, apperr.KindPersistence))
	assert.Contains(t, err.Error(), "disk I/O error")
	mockRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestStudentService_PublishFailureDoesNotFailCreate(t *testing.T) {
	publisher := new(MockPublisher)
	repo := repositories.NewMemoryStudentRepository()
	service := services.NewStudentService(repo, logging.Discard(), services.WithPublisher(publisher))

	publisher.On("PublishStudentEvent", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	student, err := service.CreateStudent(context.Background(), input("Alice", 20, "a@x.com"))
	assert.NoError(t, err)
	assert.Equal(t, uint(1), student.ID)
	publisher.AssertExpectations(t)
}

func TestStudentService_GetStudent(t *testing.T) {
	service, _ := newMemoryService()
	ctx := context.Background()

	created, err := service.CreateStudent(ctx, input("Alice", 20, "a@x.com"))
	require.NoError(t, err)

	got, err := service.GetStudent(ctx, created.ID)
	assert.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = service.GetStudent(ctx, 99)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestStudentService_UpdateStudent(t *testing.T) {
	service, repo := newMemoryService()
	ctx := context.Background()

	created, err := service.CreateStudent(ctx, input("Alice", 20, "a@x.com"))
	require.NoError(t, err)

	updated, err := service.UpdateStudent(ctx, created.ID, input("Alice Smith", 21, "alice@x.com"))
	require.NoError(t, err)
	assert.Equal(t, &models.Student{ID: created.ID, Name: "Alice Smith", Age: 21, Email: "alice@x.com"}, updated)

	// The old email is free again.
	_, err = service.CreateStudent(ctx, input("Another", 30, "a@x.com"))
	assert.NoError(t, err)

	// Unknown ID leaves the store unchanged.
	before, _ := repo.List(ctx)
	_, err = service.UpdateStudent(ctx, 99, input("Ghost", 40, "ghost@x.com"))
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	after, _ := repo.List(ctx)
	assert.Equal(t, before, after)
}

func TestStudentService_UpdateStudent_Validation(t *testing.T) {
	mockRepo := new(MockStudentRepository)
	service := services.NewStudentService(mockRepo, logging.Discard())

	_, err := service.UpdateStudent(context.Background(), 1, input("", -5, "bad"))
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	mockRepo.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything, mock.Anything)
}

func TestStudentService_UpdateStudent_EmailTakenByOther(t *testing.T) {
	service, _ := newMemoryService()
	ctx := context.Background()

	_, err := service.CreateStudent(ctx, input("Alice", 20, "a@x.com"))
	require.NoError(t, err)
	bob, err := service.CreateStudent(ctx, input("Bob", 22, "b@x.com"))
	require.NoError(t, err)

	_, err = service.UpdateStudent(ctx, bob.ID, input("Bob", 22, "a@x.com"))
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	// Keeping one's own email is not a conflict.
	_, err = service.UpdateStudent(ctx, bob.ID, input("Robert", 23, "b@x.com"))
	assert.NoError(t, err)
}

func TestStudentService_DeleteStudent(t *testing.T) {
	mockRepo := new(MockStudentRepository)
	publisher := new(MockPublisher)
	service := services.NewStudentService(mockRepo, logging.Discard(), services.WithPublisher(publisher))
	ctx := context.Background()

	mockRepo.On("Delete", ctx, uint(1)).Return(true, nil).Once()
	publisher.On("PublishStudentEvent", ctx, mock.MatchedBy(func(e models.StudentEvent) bool {
		return e.Type == models.EventStudentDeleted && e.StudentID == 1 && e.Student == nil
	})).Return(nil).Once()
	assert.NoError(t, service.DeleteStudent(ctx, 1))

	mockRepo.On("Delete", ctx, uint(99)).Return(false, nil).Once()
	err := service.DeleteStudent(ctx, 99)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Contains(t, err.Error(), "student with ID 99 not found")

	mockRepo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestStudentService_ListLengthTracksMutations(t *testing.T) {
	service, _ := newMemoryService()
	ctx := context.Background()

	list, err := service.ListStudents(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)

	created, err := service.CreateStudent(ctx, input("Alice", 20, "a@x.com"))
	require.NoError(t, err)
	list, _ = service.ListStudents(ctx)
	assert.Len(t, list, 1)

	require.NoError(t, service.DeleteStudent(ctx, created.ID))
	list, _ = service.ListStudents(ctx)
	assert.Len(t, list, 0)
}

func TestStudentService_Scenario(t *testing.T) {
	service, _ := newMemoryService()
	ctx := context.Background()

	alice, err := service.CreateStudent(ctx, input("Alice", 20, "a@x.com"))
	require.NoError(t, err)
	assert.Equal(t, &models.Student{ID: 1, Name: "Alice", Age: 20, Email: "a@x.com"}, alice)

	_, err = service.CreateStudent(ctx, input("Bob", 22, "a@x.com"))
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	list, _ := service.ListStudents(ctx)
	assert.Len(t, list, 1)

	assert.NoError(t, service.DeleteStudent(ctx, 1))

	_, err = service.GetStudent(ctx, 1)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	// IDs are not reused after deletion.
	next, err := service.CreateStudent(ctx, input("Carol", 21, "c@x.com"))
	require.NoError(t, err)
	assert.Equal(t, uint(2), next.ID)
}
