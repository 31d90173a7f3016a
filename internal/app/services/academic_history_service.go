package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/yigit/rosterhub/internal/app/models"
	"github.com/yigit/rosterhub/internal/app/repositories"
	"github.com/yigit/rosterhub/internal/pkg/apperrors"
	"github.com/yigit/rosterhub/internal/pkg/validation"
)

// averageEpsilon absorbs float noise when comparing against the tolerance.
const averageEpsilon = 1e-9

// SubmitResult describes a stored academic history.
type SubmitResult struct {
	ID             string
	RollNumber     string
	OverallAverage float64
	Created        bool
}

// AcademicHistoryService defines the interface for academic history operations
type AcademicHistoryService interface {
	Submit(ctx context.Context, rollNumber string, grades []models.SemesterGrade, overallAverage *float64) (*SubmitResult, error)
	GetByRollNumber(ctx context.Context, rollNumber string) (*models.AcademicHistory, error)
	BulkIndexByRollNumber(ctx context.Context, rollNumbers []string) (map[string]float64, error)
}

// academicHistoryServiceImpl implements AcademicHistoryService
type academicHistoryServiceImpl struct {
	historyRepo *repositories.AcademicHistoryRepository
	studentRepo *repositories.StudentRepository
	options     RosterOptions
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAcademicHistoryService creates a new AcademicHistoryService
func NewAcademicHistoryService(
	historyRepo *repositories.AcademicHistoryRepository,
	studentRepo *repositories.StudentRepository,
	options RosterOptions,
	logger zerolog.Logger,
) AcademicHistoryService {
	return &academicHistoryServiceImpl{
		historyRepo: historyRepo,
		studentRepo: studentRepo,
		options:     options.withDefaults(),
		logger:      logger.With().Str("service", "academic_history").Logger(),
		now:         time.Now,
	}
}

// validateGrades checks labels and grade bounds. Labels are trimmed in place.
func (s *academicHistoryServiceImpl) validateGrades(grades []models.SemesterGrade) error {
	if len(grades) == 0 {
		return fmt.Errorf("%w: at least one semester grade is required", apperrors.ErrValidationFailed)
	}

	seen := make(map[string]struct{}, len(grades))
	for i := range grades {
		label := strings.TrimSpace(grades[i].Semester)
		if !validation.IsSemesterLabel(label) {
			return fmt.Errorf("%w: semester label %q is not valid", apperrors.ErrValidationFailed, grades[i].Semester)
		}
		if _, dup := seen[label]; dup {
			return fmt.Errorf("%w: semester %q appears more than once", apperrors.ErrValidationFailed, label)
		}
		seen[label] = struct{}{}
		grades[i].Semester = label

		gpa := grades[i].GPA
		if math.IsNaN(gpa) || gpa < 0 || gpa > s.options.GradeScale {
			return fmt.Errorf("%w: semester %q has %v, allowed range is 0 to %v",
				apperrors.ErrInvalidGrade, label, gpa, s.options.GradeScale)
		}
	}
	return nil
}

// Submit stores the grade history of a student, replacing any previous one.
// The overall average is always computed here; a supplied average must agree
// with it within the configured tolerance.
func (s *academicHistoryServiceImpl) Submit(ctx context.Context, rollNumber string, grades []models.SemesterGrade, overallAverage *float64) (*SubmitResult, error) {
	rollNumber = strings.TrimSpace(rollNumber)
	if !validation.IsRollNumber(rollNumber) {
		return nil, fmt.Errorf("%w: roll number %q is not valid", apperrors.ErrValidationFailed, rollNumber)
	}

	grades = append([]models.SemesterGrade(nil), grades...)
	if err := s.validateGrades(grades); err != nil {
		return nil, err
	}

	average := models.ComputeAverage(grades)
	if overallAverage != nil && math.Abs(*overallAverage-average) > s.options.AverageTolerance+averageEpsilon {
		return nil, fmt.Errorf("%w: got %.2f, semester grades average to %.2f",
			apperrors.ErrInvalidAverage, *overallAverage, average)
	}

	exists, err := s.studentRepo.ExistsByRollNumber(ctx, rollNumber)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.ErrStudentNotFound
	}

	history := &models.AcademicHistory{
		RollNumber:     rollNumber,
		SemesterGrades: grades,
		OverallAverage: average,
		UpdatedAt:      s.now().UTC(),
	}
	id, created, err := s.historyRepo.Upsert(ctx, history)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("rollNumber", rollNumber).
		Int("semesters", len(grades)).
		Float64("overallAverage", average).
		Bool("created", created).
		Msg("Academic history stored")

	return &SubmitResult{ID: id, RollNumber: rollNumber, OverallAverage: average, Created: created}, nil
}

// GetByRollNumber retrieves the history of one student
func (s *academicHistoryServiceImpl) GetByRollNumber(ctx context.Context, rollNumber string) (*models.AcademicHistory, error) {
	rollNumber = strings.TrimSpace(rollNumber)
	if rollNumber == "" {
		return nil, fmt.Errorf("%w: roll number cannot be empty", apperrors.ErrValidationFailed)
	}
	return s.historyRepo.GetByRollNumber(ctx, rollNumber)
}

// BulkIndexByRollNumber resolves the overall average of many students with a
// single store read. Students without a history are absent from the map.
func (s *academicHistoryServiceImpl) BulkIndexByRollNumber(ctx context.Context, rollNumbers []string) (map[string]float64, error) {
	unique := make([]string, 0, len(rollNumbers))
	seen := make(map[string]struct{}, len(rollNumbers))
	for _, rn := range rollNumbers {
		if _, ok := seen[rn]; ok || rn == "" {
			continue
		}
		seen[rn] = struct{}{}
		unique = append(unique, rn)
	}

	index := make(map[string]float64, len(unique))
	if len(unique) == 0 {
		return index, nil
	}

	histories, err := s.historyRepo.FindByRollNumbers(ctx, unique)
	if err != nil {
		return nil, err
	}
	for _, h := range histories {
		index[h.RollNumber] = h.OverallAverage
	}
	return index, nil
}
