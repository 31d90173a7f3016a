package services

import (
	"context"
	"fmt"

	"github.com/yigit/rosterhub/internal/app/models"
	"github.com/yigit/rosterhub/internal/pkg/apperrors"
	"github.com/yigit/rosterhub/internal/pkg/helpers"
)

// RosterService defines the interface for the joined roster views
type RosterService interface {
	PaginatedView(ctx context.Context, page, pageSize int) (*models.RosterPage, error)
	SearchView(ctx context.Context, namePattern, sortField string) (*models.SearchResult, error)
	Stream(ctx context.Context, fn func([]models.JoinedRow) error) error
	Options() RosterOptions
}

// rosterServiceImpl joins profiles with averages in memory: one query for the
// profiles and one bulk query for their averages, never one per row.
type rosterServiceImpl struct {
	students  StudentService
	histories AcademicHistoryService
	options   RosterOptions
}

// NewRosterService creates a new RosterService
func NewRosterService(students StudentService, histories AcademicHistoryService, options RosterOptions) RosterService {
	return &rosterServiceImpl{
		students:  students,
		histories: histories,
		options:   options.withDefaults(),
	}
}

func (s *rosterServiceImpl) Options() RosterOptions {
	return s.options
}

// PaginatedView returns one page of the joined roster. Pages below 1 are
// treated as 1; a page size outside 1..MaxPageSize is rejected. A page past
// the end is returned empty, which callers report as no data.
func (s *rosterServiceImpl) PaginatedView(ctx context.Context, page, pageSize int) (*models.RosterPage, error) {
	if page < 1 {
		page = helpers.DefaultPage
	}
	if pageSize <= 0 || pageSize > s.options.MaxPageSize {
		return nil, fmt.Errorf("%w: page size must be between 1 and %d", apperrors.ErrValidationFailed, s.options.MaxPageSize)
	}

	students, total, err := s.students.List(ctx, helpers.CalculateOffset(page, pageSize), int64(pageSize))
	if err != nil {
		return nil, err
	}

	rows, err := s.join(ctx, students)
	if err != nil {
		return nil, err
	}

	return &models.RosterPage{
		Rows:       rows,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: helpers.TotalPages(total, pageSize),
	}, nil
}

// SearchView returns every match up to MaxSearchResults. One extra profile
// is fetched to tell whether the result was cut.
func (s *rosterServiceImpl) SearchView(ctx context.Context, namePattern, sortField string) (*models.SearchResult, error) {
	limit := s.options.MaxSearchResults
	students, err := s.students.Search(ctx, namePattern, sortField, int64(limit)+1)
	if err != nil {
		return nil, err
	}

	truncated := len(students) > limit
	if truncated {
		students = students[:limit]
	}

	rows, err := s.join(ctx, students)
	if err != nil {
		return nil, err
	}
	return &models.SearchResult{Rows: rows, Truncated: truncated, Limit: limit}, nil
}

// Stream walks the whole roster in roster order, handing fn one joined batch
// of ExportBatchSize rows at a time.
func (s *rosterServiceImpl) Stream(ctx context.Context, fn func([]models.JoinedRow) error) error {
	return s.students.Each(ctx, s.options.ExportBatchSize, func(batch []models.StudentProfile) error {
		rows, err := s.join(ctx, batch)
		if err != nil {
			return err
		}
		return fn(rows)
	})
}

func (s *rosterServiceImpl) join(ctx context.Context, students []models.StudentProfile) ([]models.JoinedRow, error) {
	rows := make([]models.JoinedRow, 0, len(students))
	if len(students) == 0 {
		return rows, nil
	}

	rollNumbers := make([]string, len(students))
	for i := range students {
		rollNumbers[i] = students[i].RollNumber
	}
	averages, err := s.histories.BulkIndexByRollNumber(ctx, rollNumbers)
	if err != nil {
		return nil, err
	}

	for _, st := range students {
		row := models.JoinedRow{Student: st}
		if avg, ok := averages[st.RollNumber]; ok {
			row.OverallAverage = &avg
		}
		rows = append(rows, row)
	}
	return rows, nil
}
