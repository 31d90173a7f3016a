// Package services holds the roster business logic.
//
// Services defined in this package:
// - StudentService: registers, resolves, updates and deletes student profiles
// - AcademicHistoryService: stores semester grade histories and resolves averages
// - RosterService: joins profiles with averages into paginated and search views
// - ExportService: writes the joined roster to a tabular sink
// - AuthService: logs operators in and authorizes session tokens
package services

import (
	"time"

	"github.com/yigit/rosterhub/internal/pkg/docstore"
)

// RosterOptions bounds the roster views and the grade validation.
type RosterOptions struct {
	DefaultPageSize  int
	MaxPageSize      int
	MaxSearchResults int
	ExportBatchSize  int
	GradeScale       float64
	AverageTolerance float64
}

// DefaultRosterOptions mirrors the defaults of the roster config section.
func DefaultRosterOptions() RosterOptions {
	return RosterOptions{
		DefaultPageSize:  10,
		MaxPageSize:      100,
		MaxSearchResults: 1000,
		ExportBatchSize:  500,
		GradeScale:       10.0,
		AverageTolerance: 0.01,
	}
}

// withDefaults fills zero values so a partially set RosterOptions is usable.
func (o RosterOptions) withDefaults() RosterOptions {
	d := DefaultRosterOptions()
	if o.DefaultPageSize <= 0 {
		o.DefaultPageSize = d.DefaultPageSize
	}
	if o.MaxPageSize <= 0 {
		o.MaxPageSize = d.MaxPageSize
	}
	if o.MaxSearchResults <= 0 {
		o.MaxSearchResults = d.MaxSearchResults
	}
	if o.ExportBatchSize <= 0 {
		o.ExportBatchSize = d.ExportBatchSize
	}
	if o.GradeScale <= 0 {
		o.GradeScale = d.GradeScale
	}
	if o.AverageTolerance < 0 {
		o.AverageTolerance = d.AverageTolerance
	}
	return o
}

// storeTime is the representation timestamps are written with in partial
// updates, matching how encoded models store them.
func storeTime(t time.Time) string {
	return docstore.FormatTime(t)
}
