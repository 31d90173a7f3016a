package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/rosterhub/internal/app/models"
	"github.com/yigit/rosterhub/internal/pkg/apperrors"
)

func TestStudentService_RegisterThenResolveByRollNumber(t *testing.T) {
	env := newTestEnv(t, DefaultRosterOptions())
	ctx := context.Background()

	input := newStudent("R100", "Anna")
	id, err := env.students.Register(ctx, input, "password123")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := env.students.GetByRollNumber(ctx, "R100")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, input.Name, got.Name)
	assert.Equal(t, input.Phone, got.Phone)
	assert.Equal(t, input.Email, got.Email)
	assert.Equal(t, input.DOB, got.DOB)
	assert.Equal(t, input.FathersName, got.FathersName)
	assert.Equal(t, input.MothersName, got.MothersName)
	assert.Equal(t, input.ParentsPhone, got.ParentsPhone)
	assert.Equal(t, input.Gender, got.Gender)
	assert.Equal(t, input.Course, got.Course)
	assert.Equal(t, input.Branch, got.Branch)
	assert.Equal(t, input.Section, got.Section)
	assert.Equal(t, input.Year, got.Year)
	assert.Equal(t, input.ResidenceStatus, got.ResidenceStatus)
	assert.Equal(t, input.Username, got.Username)

	assert.NotEqual(t, "password123", got.PasswordHash)
	assert.NotEmpty(t, got.PasswordHash)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestStudentService_RegisterRejectsDuplicates(t *testing.T) {
	env := newTestEnv(t, DefaultRosterOptions())
	ctx := context.Background()
	env.register(t, "R100", "Anna")

	_, err := env.students.Register(ctx, newStudent("R100", "Other"), "password123")
	assert.ErrorIs(t, err, apperrors.ErrRollNumberExists)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	dupUser := newStudent("R101", "Other")
	dupUser.Username = "user-R100"
	_, err = env.students.Register(ctx, dupUser, "password123")
	assert.ErrorIs(t, err, apperrors.ErrUsernameExists)

	_, total, err := env.students.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestStudentService_RegisterValidation(t *testing.T) {
	env := newTestEnv(t, DefaultRosterOptions())
	ctx := context.Background()

	tests := []struct {
		name     string
		mutate   func(*models.StudentProfile)
		password string
	}{
		{"empty roll number", func(s *models.StudentProfile) { s.RollNumber = "" }, "password123"},
		{"roll number with spaces inside", func(s *models.StudentProfile) { s.RollNumber = "R 1" }, "password123"},
		{"empty name", func(s *models.StudentProfile) { s.Name = "  " }, "password123"},
		{"empty username", func(s *models.StudentProfile) { s.Username = "" }, "password123"},
		{"empty password", func(s *models.StudentProfile) {}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newStudent("R200", "Anna")
			tt.mutate(st)
			_, err := env.students.Register(ctx, st, tt.password)
			assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
		})
	}

	_, total, err := env.students.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestStudentService_GetByID(t *testing.T) {
	env := newTestEnv(t, DefaultRosterOptions())
	ctx := context.Background()
	id := env.register(t, "R100", "Anna")

	got, err := env.students.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "R100", got.RollNumber)

	_, err = env.students.GetByID(ctx, "not-an-id")
	assert.ErrorIs(t, err, apperrors.ErrInvalidID)

	_, err = env.students.GetByID(ctx, "1b4e28ba-2fa1-11d2-883f-0016d3cca427")
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
}

func TestStudentService_UpdateChangesOnlyGivenFields(t *testing.T) {
	env := newTestEnv(t, DefaultRosterOptions())
	ctx := context.Background()
	id := env.register(t, "R100", "Anna")

	before, err := env.students.GetByID(ctx, id)
	require.NoError(t, err)

	after, err := env.students.Update(ctx, id, models.StudentUpdate{Phone: ptr("555")})
	require.NoError(t, err)
	assert.Equal(t, "555", after.Phone)

	expected := *before
	expected.Phone = "555"
	expected.UpdatedAt = after.UpdatedAt
	assert.Equal(t, expected, *after)
	assert.False(t, after.UpdatedAt.Before(before.UpdatedAt))
}

func TestStudentService_UpdateErrors(t *testing.T) {
	env := newTestEnv(t, DefaultRosterOptions())
	ctx := context.Background()
	id := env.register(t, "R100", "Anna")
	env.register(t, "R101", "Bryan")

	_, err := env.students.Update(ctx, "bogus", models.StudentUpdate{Phone: ptr("1")})
	assert.ErrorIs(t, err, apperrors.ErrInvalidID)

	_, err = env.students.Update(ctx, "1b4e28ba-2fa1-11d2-883f-0016d3cca427", models.StudentUpdate{Phone: ptr("1")})
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)

	_, err = env.students.Update(ctx, id, models.StudentUpdate{})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = env.students.Update(ctx, id, models.StudentUpdate{RollNumber: ptr("R999")})
	assert.ErrorIs(t, err, apperrors.ErrRollNumberLocked)

	_, err = env.students.Update(ctx, id, models.StudentUpdate{Username: ptr("user-R101")})
	assert.ErrorIs(t, err, apperrors.ErrUsernameExists)

	same, err := env.students.Update(ctx, id, models.StudentUpdate{RollNumber: ptr("R100")})
	require.NoError(t, err, "sending the current roll number is a no-op")
	assert.Equal(t, "R100", same.RollNumber)
}

func TestStudentService_UpdateCredentials(t *testing.T) {
	env := newTestEnv(t, DefaultRosterOptions())
	ctx := context.Background()
	id := env.register(t, "R100", "Anna")

	before, err := env.students.GetByID(ctx, id)
	require.NoError(t, err)

	after, err := env.students.Update(ctx, id, models.StudentUpdate{Username: ptr("anna"), Password: ptr("new-password")})
	require.NoError(t, err)
	assert.Equal(t, "anna", after.Username)
	assert.NotEqual(t, before.PasswordHash, after.PasswordHash)

	_, err = env.auth.Login(ctx, "anna", "new-password")
	assert.NoError(t, err)
}

func TestStudentService_Delete(t *testing.T) {
	env := newTestEnv(t, DefaultRosterOptions())
	ctx := context.Background()
	id := env.register(t, "R100", "Anna")
	_, err := env.histories.Submit(ctx, "R100", []models.SemesterGrade{{Semester: "S1", GPA: 8}}, nil)
	require.NoError(t, err)
	login, err := env.auth.Login(ctx, "user-R100", "password123")
	require.NoError(t, err)

	require.NoError(t, env.students.Delete(ctx, id))

	_, err = env.students.GetByID(ctx, id)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
	_, err = env.histories.GetByRollNumber(ctx, "R100")
	assert.ErrorIs(t, err, apperrors.ErrAcademicHistoryNotFound)
	_, err = env.auth.Authorize(ctx, login.Token)
	assert.ErrorIs(t, err, apperrors.ErrSessionExpired)

	err = env.students.Delete(ctx, id)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound, "deleting twice reports not found")

	err = env.students.Delete(ctx, "garbage")
	assert.ErrorIs(t, err, apperrors.ErrInvalidID)
}

func TestStudentService_DeleteToleratesSessionStoreOutage(t *testing.T) {
	env := newTestEnv(t, DefaultRosterOptions())
	ctx := context.Background()
	id := env.register(t, "R100", "Anna")

	env.redis.Close()
	require.NoError(t, env.students.Delete(ctx, id))
	_, err := env.students.GetByID(ctx, id)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
}

func TestStudentService_ReRegistrationDropsLeftoverHistory(t *testing.T) {
	env := newTestEnv(t, DefaultRosterOptions())
	ctx := context.Background()
	id := env.register(t, "R100", "Anna")
	_, err := env.histories.Submit(ctx, "R100", []models.SemesterGrade{{Semester: "S1", GPA: 9}}, nil)
	require.NoError(t, err)

	// Profile gone but its history left behind, as after a failed cleanup.
	require.NoError(t, env.repos.StudentRepository.Delete(ctx, id))

	env.register(t, "R100", "Someone Else")

	_, err = env.histories.GetByRollNumber(ctx, "R100")
	assert.ErrorIs(t, err, apperrors.ErrAcademicHistoryNotFound)

	index, err := env.histories.BulkIndexByRollNumber(ctx, []string{"R100"})
	require.NoError(t, err)
	assert.Empty(t, index)
}

func TestStudentService_SearchSortWhitelist(t *testing.T) {
	env := newTestEnv(t, DefaultRosterOptions())
	ctx := context.Background()

	_, err := env.students.Search(ctx, "", "passwordHash", 0)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = env.students.Search(ctx, "", "username", 0)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestStudentService_EachWalksWholeRoster(t *testing.T) {
	env := newTestEnv(t, DefaultRosterOptions())
	ctx := context.Background()
	env.registerMany(t, 7)

	var batches []int
	var rolls []string
	err := env.students.Each(ctx, 3, func(batch []models.StudentProfile) error {
		batches = append(batches, len(batch))
		for _, s := range batch {
			rolls = append(rolls, s.RollNumber)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 1}, batches)
	assert.Equal(t, []string{"R001", "R002", "R003", "R004", "R005", "R006", "R007"}, rolls)

	assert.ErrorIs(t, env.students.Each(ctx, 0, func([]models.StudentProfile) error { return nil }), apperrors.ErrValidationFailed)
}
