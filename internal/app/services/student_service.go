package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/yigit/rosterhub/internal/app/models"
	"github.com/yigit/rosterhub/internal/app/repositories"
	"github.com/yigit/rosterhub/internal/pkg/apperrors"
	"github.com/yigit/rosterhub/internal/pkg/auth"
	"github.com/yigit/rosterhub/internal/pkg/docstore"
	"github.com/yigit/rosterhub/internal/pkg/validation"
)

// SessionRevoker ends every session of a student. Implemented by session.Store.
type SessionRevoker interface {
	DeleteForStudent(ctx context.Context, studentID string) (int, error)
}

// StudentService defines the interface for student registry operations
type StudentService interface {
	Register(ctx context.Context, student *models.StudentProfile, password string) (string, error)
	GetByID(ctx context.Context, id string) (*models.StudentProfile, error)
	GetByRollNumber(ctx context.Context, rollNumber string) (*models.StudentProfile, error)
	GetByUsername(ctx context.Context, username string) (*models.StudentProfile, error)
	Update(ctx context.Context, id string, update models.StudentUpdate) (*models.StudentProfile, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, skip, limit int64) ([]models.StudentProfile, int64, error)
	Search(ctx context.Context, namePattern, sortField string, limit int64) ([]models.StudentProfile, error)
	Each(ctx context.Context, batchSize int, fn func([]models.StudentProfile) error) error
}

// studentServiceImpl implements StudentService
type studentServiceImpl struct {
	studentRepo *repositories.StudentRepository
	historyRepo *repositories.AcademicHistoryRepository
	hasher      *auth.PasswordHasher
	sessions    SessionRevoker
	logger      zerolog.Logger
	now         func() time.Time
}

// NewStudentService creates a new StudentService. sessions may be nil, in
// which case deleting a student leaves its sessions to expire.
func NewStudentService(
	studentRepo *repositories.StudentRepository,
	historyRepo *repositories.AcademicHistoryRepository,
	hasher *auth.PasswordHasher,
	sessions SessionRevoker,
	logger zerolog.Logger,
) StudentService {
	return &studentServiceImpl{
		studentRepo: studentRepo,
		historyRepo: historyRepo,
		hasher:      hasher,
		sessions:    sessions,
		logger:      logger.With().Str("service", "student").Logger(),
		now:         time.Now,
	}
}

// validateProfile checks the fields of a profile about to be registered
func validateProfile(student *models.StudentProfile, password string) error {
	if student == nil {
		return fmt.Errorf("%w: student is nil", apperrors.ErrValidationFailed)
	}
	if !validation.IsRollNumber(student.RollNumber) {
		return fmt.Errorf("%w: roll number %q is not valid", apperrors.ErrValidationFailed, student.RollNumber)
	}
	if strings.TrimSpace(student.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", apperrors.ErrValidationFailed)
	}
	if strings.TrimSpace(student.Username) == "" {
		return fmt.Errorf("%w: username cannot be empty", apperrors.ErrValidationFailed)
	}
	if password == "" {
		return fmt.Errorf("%w: password cannot be empty", apperrors.ErrValidationFailed)
	}
	return nil
}

// Register validates and stores a new profile and returns its id. Any
// history still stored under the roll number is removed first.
func (s *studentServiceImpl) Register(ctx context.Context, student *models.StudentProfile, password string) (string, error) {
	if student != nil {
		student.RollNumber = strings.TrimSpace(student.RollNumber)
		student.Username = strings.TrimSpace(student.Username)
	}
	if err := validateProfile(student, password); err != nil {
		return "", err
	}

	exists, err := s.studentRepo.ExistsByRollNumber(ctx, student.RollNumber)
	if err != nil {
		return "", err
	}
	if exists {
		return "", apperrors.ErrRollNumberExists
	}

	exists, err = s.studentRepo.ExistsByUsername(ctx, student.Username)
	if err != nil {
		return "", err
	}
	if exists {
		return "", apperrors.ErrUsernameExists
	}

	// A history can only be submitted for a registered student, so one found
	// here was left behind by a delete whose cleanup failed.
	orphans, err := s.historyRepo.DeleteByRollNumber(ctx, student.RollNumber)
	if err != nil {
		return "", err
	}
	if orphans > 0 {
		s.logger.Warn().Str("rollNumber", student.RollNumber).Int64("deleted", orphans).Msg("Removed leftover academic history before registration")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}

	now := s.now().UTC()
	student.ID = ""
	student.PasswordHash = hash
	student.CreatedAt = now
	student.UpdatedAt = now

	id, err := s.studentRepo.Create(ctx, student)
	if err != nil {
		return "", err
	}
	student.ID = id

	s.logger.Info().Str("studentId", id).Str("rollNumber", student.RollNumber).Msg("Student registered")
	return id, nil
}

// GetByID retrieves a profile by its store id
func (s *studentServiceImpl) GetByID(ctx context.Context, id string) (*models.StudentProfile, error) {
	return s.studentRepo.GetByID(ctx, id)
}

// GetByRollNumber retrieves a profile by roll number
func (s *studentServiceImpl) GetByRollNumber(ctx context.Context, rollNumber string) (*models.StudentProfile, error) {
	if strings.TrimSpace(rollNumber) == "" {
		return nil, fmt.Errorf("%w: roll number cannot be empty", apperrors.ErrValidationFailed)
	}
	return s.studentRepo.GetByRollNumber(ctx, rollNumber)
}

// GetByUsername retrieves a profile by login name
func (s *studentServiceImpl) GetByUsername(ctx context.Context, username string) (*models.StudentProfile, error) {
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("%w: username cannot be empty", apperrors.ErrValidationFailed)
	}
	return s.studentRepo.GetByUsername(ctx, username)
}

// Update applies a partial update and returns the stored profile. The id is
// checked before any store call; the roll number cannot change.
func (s *studentServiceImpl) Update(ctx context.Context, id string, update models.StudentUpdate) (*models.StudentProfile, error) {
	if err := s.studentRepo.ValidateID(id); err != nil {
		return nil, err
	}
	if update.IsEmpty() {
		return nil, fmt.Errorf("%w: no fields to update", apperrors.ErrValidationFailed)
	}
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", apperrors.ErrValidationFailed)
	}
	if update.Username != nil && strings.TrimSpace(*update.Username) == "" {
		return nil, fmt.Errorf("%w: username cannot be empty", apperrors.ErrValidationFailed)
	}
	if update.Password != nil && *update.Password == "" {
		return nil, fmt.Errorf("%w: password cannot be empty", apperrors.ErrValidationFailed)
	}

	current, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.RollNumber != nil && strings.TrimSpace(*update.RollNumber) != current.RollNumber {
		return nil, apperrors.ErrRollNumberLocked
	}

	fields := docstore.Document{}
	for k, v := range update.Fields() {
		fields[k] = v
	}

	if update.Username != nil {
		username := strings.TrimSpace(*update.Username)
		if username != current.Username {
			exists, err := s.studentRepo.ExistsByUsername(ctx, username)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, apperrors.ErrUsernameExists
			}
			fields["username"] = username
		}
	}

	if update.Password != nil {
		hash, err := s.hasher.Hash(*update.Password)
		if err != nil {
			return nil, fmt.Errorf("error hashing password: %w", err)
		}
		fields["passwordHash"] = hash
	}

	if len(fields) == 0 {
		// Only no-op credential or roll number values were sent.
		return current, nil
	}
	fields["updatedAt"] = storeTime(s.now())

	if err := s.studentRepo.UpdateFields(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.studentRepo.GetByID(ctx, id)
}

// Delete removes a profile after confirming it exists, then drops its
// academic history and sessions. Failures of the follow-up cleanup are
// logged and not returned; the roster join tolerates orphaned histories.
func (s *studentServiceImpl) Delete(ctx context.Context, id string) error {
	student, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.studentRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("studentId", id).Str("rollNumber", student.RollNumber).Msg("Student deleted")

	if n, err := s.historyRepo.DeleteByRollNumber(ctx, student.RollNumber); err != nil {
		s.logger.Warn().Err(err).Str("rollNumber", student.RollNumber).Msg("Failed to delete academic history of deleted student")
	} else if n > 0 {
		s.logger.Debug().Str("rollNumber", student.RollNumber).Int64("deleted", n).Msg("Academic history removed")
	}

	if s.sessions != nil {
		if _, err := s.sessions.DeleteForStudent(ctx, id); err != nil {
			s.logger.Warn().Err(err).Str("studentId", id).Msg("Failed to revoke sessions of deleted student")
		}
	}
	return nil
}

// List returns one page of profiles in roster order and the total count
func (s *studentServiceImpl) List(ctx context.Context, skip, limit int64) ([]models.StudentProfile, int64, error) {
	if skip < 0 || limit <= 0 {
		return nil, 0, fmt.Errorf("%w: skip must be >= 0 and limit > 0", apperrors.ErrValidationFailed)
	}
	return s.studentRepo.List(ctx, skip, limit)
}

// Search matches name case-insensitively as a literal substring. sortField
// must be one of models.SortableFields; empty means roster order.
func (s *studentServiceImpl) Search(ctx context.Context, namePattern, sortField string, limit int64) ([]models.StudentProfile, error) {
	sortField = strings.TrimSpace(sortField)
	if sortField != "" && !models.SortableFields[sortField] {
		return nil, fmt.Errorf("%w: cannot sort by %q", apperrors.ErrValidationFailed, sortField)
	}
	return s.studentRepo.Search(ctx, strings.TrimSpace(namePattern), sortField, limit)
}

// Each calls fn with consecutive batches of the roster in roster order until
// the roster is exhausted or fn fails.
func (s *studentServiceImpl) Each(ctx context.Context, batchSize int, fn func([]models.StudentProfile) error) error {
	if batchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", apperrors.ErrValidationFailed)
	}

	for skip := int64(0); ; skip += int64(batchSize) {
		batch, err := s.studentRepo.ListBatch(ctx, skip, int64(batchSize))
		if err != nil {
			return err
		}
		if len(batch) > 0 {
			if err := fn(batch); err != nil {
				return err
			}
		}
		if len(batch) < batchSize {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// isNotFound reports whether err means the student does not exist.
func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrStudentNotFound)
}
