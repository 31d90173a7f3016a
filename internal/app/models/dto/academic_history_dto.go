package dto

import (
	"time"

	"github.com/yigit/rosterhub/internal/app/models"
)

// SemesterGradeRequest is one semester of a submitted history.
type SemesterGradeRequest struct {
	Semester string   `json:"semester" binding:"required,semester" example:"S1"`
	GPA      *float64 `json:"gpa" binding:"required" example:"8.4"`
}

// SubmitAcademicHistoryRequest replaces the grade history of a student.
// OverallAverage is optional; when given it must agree with the grades.
type SubmitAcademicHistoryRequest struct {
	SemesterGrades []SemesterGradeRequest `json:"semesterGrades" binding:"required,min=1,max=16,dive"`
	OverallAverage *float64               `json:"overallAverage,omitempty" example:"8.27"`
}

// Grades converts the request grades, keeping their order.
func (r SubmitAcademicHistoryRequest) Grades() []models.SemesterGrade {
	out := make([]models.SemesterGrade, 0, len(r.SemesterGrades))
	for _, g := range r.SemesterGrades {
		var gpa float64
		if g.GPA != nil {
			gpa = *g.GPA
		}
		out = append(out, models.SemesterGrade{Semester: g.Semester, GPA: gpa})
	}
	return out
}

// SubmitAcademicHistoryResponse reports the stored history id.
type SubmitAcademicHistoryResponse struct {
	ID             string  `json:"id"`
	RollNumber     string  `json:"rollNumber"`
	OverallAverage float64 `json:"overallAverage" example:"8.27"`
	Created        bool    `json:"created"`
}

// AcademicHistoryResponse represents one student's grade history.
type AcademicHistoryResponse struct {
	ID             string                 `json:"id"`
	RollNumber     string                 `json:"rollNumber"`
	SemesterGrades []models.SemesterGrade `json:"semesterGrades"`
	OverallAverage float64                `json:"overallAverage"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

func NewAcademicHistoryResponse(h *models.AcademicHistory) AcademicHistoryResponse {
	grades := h.SemesterGrades
	if grades == nil {
		grades = []models.SemesterGrade{}
	}
	return AcademicHistoryResponse{
		ID:             h.ID,
		RollNumber:     h.RollNumber,
		SemesterGrades: grades,
		OverallAverage: h.OverallAverage,
		CreatedAt:      h.CreatedAt,
		UpdatedAt:      h.UpdatedAt,
	}
}
