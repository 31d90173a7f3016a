package models

import "strconv"

// JoinedRow is a student profile with its overall average resolved from the
// academic history, or nil when the student has none.
type JoinedRow struct {
	Student        StudentProfile
	OverallAverage *float64
}

// AverageDisplay renders the average with two decimals or the N/A sentinel.
func (r JoinedRow) AverageDisplay() string {
	if r.OverallAverage == nil {
		return UnavailableAverage
	}
	return strconv.FormatFloat(*r.OverallAverage, 'f', 2, 64)
}

// RosterPage is one page of the joined roster.
type RosterPage struct {
	Rows       []JoinedRow
	Page       int
	PageSize   int
	TotalItems int64
	TotalPages int
}

// NoData reports an empty page, which callers render as an informational
// "no data" result rather than an error.
func (p *RosterPage) NoData() bool {
	return len(p.Rows) == 0
}

// SearchResult is an unpaginated, bounded search over the roster.
type SearchResult struct {
	Rows      []JoinedRow
	Truncated bool
	Limit     int
}

func (r *SearchResult) NoData() bool {
	return len(r.Rows) == 0
}
