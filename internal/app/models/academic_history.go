package models

import (
	"math"
	"time"
)

// SemesterGrade is the grade point of one semester.
type SemesterGrade struct {
	Semester string  `json:"semester" example:"S1"`
	GPA      float64 `json:"gpa" example:"8.4"`
}

// AcademicHistory is the semester-by-semester grade record of one student,
// keyed by roll number.
type AcademicHistory struct {
	ID             string          `json:"id,omitempty"`
	RollNumber     string          `json:"rollNumber" example:"21CS1001"`
	SemesterGrades []SemesterGrade `json:"semesterGrades"` // Order as submitted
	OverallAverage float64         `json:"overallAverage" example:"8.27"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// ComputeAverage is the arithmetic mean of the grades rounded to two
// decimals. An empty list averages to zero.
func ComputeAverage(grades []SemesterGrade) float64 {
	if len(grades) == 0 {
		return 0
	}
	var sum float64
	for _, g := range grades {
		sum += g.GPA
	}
	return RoundAverage(sum / float64(len(grades)))
}

// RoundAverage rounds half away from zero to two decimals.
func RoundAverage(v float64) float64 {
	return math.Round(v*100) / 100
}
