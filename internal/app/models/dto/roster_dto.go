package dto

import "github.com/yigit/rosterhub/internal/app/models"

// RosterRowResponse is a student with the overall average rendered as text,
// "N/A" when no history exists.
type RosterRowResponse struct {
	StudentResponse
	OverallAverage string `json:"overallAverage" example:"8.27"`
}

func NewRosterRows(rows []models.JoinedRow) []RosterRowResponse {
	out := make([]RosterRowResponse, 0, len(rows))
	for i := range rows {
		out = append(out, RosterRowResponse{
			StudentResponse: NewStudentResponse(&rows[i].Student),
			OverallAverage:  rows[i].AverageDisplay(),
		})
	}
	return out
}

// RosterPageResponse is one page of the joined roster.
type RosterPageResponse struct {
	Items      []RosterRowResponse `json:"items"`
	Pagination PaginationInfo      `json:"pagination"`
}

// SearchResponse is an unpaginated search result. Truncated is set when more
// students matched than Limit.
type SearchResponse struct {
	Items     []RosterRowResponse `json:"items"`
	Count     int                 `json:"count"`
	Truncated bool                `json:"truncated"`
	Limit     int                 `json:"limit"`
}
