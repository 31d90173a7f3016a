package services

import (
	"context"
	"fmt"

	"github.com/yigit/rosterhub/internal/app/models"
	"github.com/yigit/rosterhub/internal/pkg/export"
	"github.com/yigit/rosterhub/internal/pkg/logger"
)

// RosterExportHeader is the fixed column order of the roster export.
var RosterExportHeader = []string{
	"RollNumber", "Name", "Phone", "Email", "DOB",
	"FathersName", "MothersName", "ParentsPhone", "Gender", "Course",
	"Branch", "Section", "Year", "ResidenceStatus", "OverallAverage",
}

// ExportService defines the interface for roster exports
type ExportService interface {
	ExportRoster(ctx context.Context, sink export.TabularSink) (int, error)
}

type exportServiceImpl struct {
	roster RosterService
}

// NewExportService creates a new ExportService
func NewExportService(roster RosterService) ExportService {
	return &exportServiceImpl{roster: roster}
}

// ExportRoster writes the header and one row per student in roster order,
// then closes the sink. On failure the sink is aborted and nothing is
// produced. It returns the number of data rows written.
func (s *exportServiceImpl) ExportRoster(ctx context.Context, sink export.TabularSink) (int, error) {
	written := 0
	err := sink.WriteHeader(RosterExportHeader)
	if err == nil {
		err = s.roster.Stream(ctx, func(rows []models.JoinedRow) error {
			for _, row := range rows {
				if err := sink.WriteRow(rosterExportRow(row)); err != nil {
					return err
				}
				written++
			}
			return nil
		})
	}
	if err != nil {
		if abortErr := sink.Abort(); abortErr != nil {
			logger.Warn().Err(abortErr).Msg("Failed to abort roster export")
		}
		return 0, fmt.Errorf("error exporting roster: %w", err)
	}

	if err := sink.Close(); err != nil {
		return 0, fmt.Errorf("error finishing roster export: %w", err)
	}
	logger.Info().Int("rows", written).Msg("Roster exported")
	return written, nil
}

func rosterExportRow(row models.JoinedRow) []string {
	st := row.Student
	return []string{
		st.RollNumber, st.Name, st.Phone, st.Email, st.DOB,
		st.FathersName, st.MothersName, st.ParentsPhone, st.Gender, st.Course,
		st.Branch, st.Section, st.Year, st.ResidenceStatus, row.AverageDisplay(),
	}
}
