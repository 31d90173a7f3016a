package dto

import (
	"time"

	"github.com/yigit/rosterhub/internal/app/models"
)

// RegisterStudentRequest represents student registration data
type RegisterStudentRequest struct {
	RollNumber      string `json:"rollNumber" binding:"required,rollno" example:"21CS1001"`
	Name            string `json:"name" binding:"required,max=100" example:"Asha Verma"`
	Phone           string `json:"phone" binding:"omitempty,phone" example:"+919876543210"`
	Email           string `json:"email" binding:"omitempty,email" example:"asha@example.edu"`
	DOB             string `json:"dob" binding:"omitempty,datetime=2006-01-02" example:"2003-04-12"`
	FathersName     string `json:"fathersName" binding:"omitempty,max=100" example:"Rakesh Verma"`
	MothersName     string `json:"mothersName" binding:"omitempty,max=100" example:"Sunita Verma"`
	ParentsPhone    string `json:"parentsPhone" binding:"omitempty,phone" example:"+919812345678"`
	Gender          string `json:"gender" binding:"omitempty,max=20" example:"female"`
	Course          string `json:"course" binding:"omitempty,max=50" example:"B.Tech"`
	Branch          string `json:"branch" binding:"omitempty,max=50" example:"CSE"`
	Section         string `json:"section" binding:"omitempty,max=10" example:"A"`
	Year            string `json:"year" binding:"omitempty,max=10" example:"3"`
	ResidenceStatus string `json:"residenceStatus" binding:"omitempty,max=30" example:"hosteller"`
	Username        string `json:"username" binding:"required,min=3,max=50" example:"asha"`
	Password        string `json:"password" binding:"required,min=8,max=72" example:"s3cret-pass"`
}

// ToModel builds the profile to register. The password is hashed by the service.
func (r RegisterStudentRequest) ToModel() *models.StudentProfile {
	return &models.StudentProfile{
		RollNumber:      r.RollNumber,
		Name:            r.Name,
		Phone:           r.Phone,
		Email:           r.Email,
		DOB:             r.DOB,
		FathersName:     r.FathersName,
		MothersName:     r.MothersName,
		ParentsPhone:    r.ParentsPhone,
		Gender:          r.Gender,
		Course:          r.Course,
		Branch:          r.Branch,
		Section:         r.Section,
		Year:            r.Year,
		ResidenceStatus: r.ResidenceStatus,
		Username:        r.Username,
	}
}

// UpdateStudentRequest is a partial update; absent fields keep their value.
type UpdateStudentRequest struct {
	RollNumber      *string `json:"rollNumber,omitempty" binding:"omitempty,rollno"`
	Name            *string `json:"name,omitempty" binding:"omitempty,min=1,max=100"`
	Phone           *string `json:"phone,omitempty" binding:"omitempty,phone"`
	Email           *string `json:"email,omitempty" binding:"omitempty,email"`
	DOB             *string `json:"dob,omitempty" binding:"omitempty,datetime=2006-01-02"`
	FathersName     *string `json:"fathersName,omitempty" binding:"omitempty,max=100"`
	MothersName     *string `json:"mothersName,omitempty" binding:"omitempty,max=100"`
	ParentsPhone    *string `json:"parentsPhone,omitempty" binding:"omitempty,phone"`
	Gender          *string `json:"gender,omitempty" binding:"omitempty,max=20"`
	Course          *string `json:"course,omitempty" binding:"omitempty,max=50"`
	Branch          *string `json:"branch,omitempty" binding:"omitempty,max=50"`
	Section         *string `json:"section,omitempty" binding:"omitempty,max=10"`
	Year            *string `json:"year,omitempty" binding:"omitempty,max=10"`
	ResidenceStatus *string `json:"residenceStatus,omitempty" binding:"omitempty,max=30"`
	Username        *string `json:"username,omitempty" binding:"omitempty,min=3,max=50"`
	Password        *string `json:"password,omitempty" binding:"omitempty,min=8,max=72"`
}

func (r UpdateStudentRequest) ToModel() models.StudentUpdate {
	return models.StudentUpdate{
		RollNumber:      r.RollNumber,
		Name:            r.Name,
		Phone:           r.Phone,
		Email:           r.Email,
		DOB:             r.DOB,
		FathersName:     r.FathersName,
		MothersName:     r.MothersName,
		ParentsPhone:    r.ParentsPhone,
		Gender:          r.Gender,
		Course:          r.Course,
		Branch:          r.Branch,
		Section:         r.Section,
		Year:            r.Year,
		ResidenceStatus: r.ResidenceStatus,
		Username:        r.Username,
		Password:        r.Password,
	}
}

// RegisterStudentResponse is returned after a successful registration.
type RegisterStudentResponse struct {
	ID         string `json:"id" example:"665f1c2e8b3e4a0012345678"`
	RollNumber string `json:"rollNumber" example:"21CS1001"`
}

// StudentResponse is a profile without credential fields.
type StudentResponse struct {
	ID              string    `json:"id"`
	RollNumber      string    `json:"rollNumber"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone"`
	Email           string    `json:"email"`
	DOB             string    `json:"dob"`
	FathersName     string    `json:"fathersName"`
	MothersName     string    `json:"mothersName"`
	ParentsPhone    string    `json:"parentsPhone"`
	Gender          string    `json:"gender"`
	Course          string    `json:"course"`
	Branch          string    `json:"branch"`
	Section         string    `json:"section"`
	Year            string    `json:"year"`
	ResidenceStatus string    `json:"residenceStatus"`
	Username        string    `json:"username"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// NewStudentResponse maps a profile to its public form.
func NewStudentResponse(p *models.StudentProfile) StudentResponse {
	return StudentResponse{
		ID:              p.ID,
		RollNumber:      p.RollNumber,
		Name:            p.Name,
		Phone:           p.Phone,
		Email:           p.Email,
		DOB:             p.DOB,
		FathersName:     p.FathersName,
		MothersName:     p.MothersName,
		ParentsPhone:    p.ParentsPhone,
		Gender:          p.Gender,
		Course:          p.Course,
		Branch:          p.Branch,
		Section:         p.Section,
		Year:            p.Year,
		ResidenceStatus: p.ResidenceStatus,
		Username:        p.Username,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
