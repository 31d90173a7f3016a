package models

import (
	"time"
)

// StudentProfile is one registered student. Documents are stored with the
// json field names below.
type StudentProfile struct {
	ID              string    `json:"id,omitempty" example:"665f1c2e8b3e4a0012345678"`  // Store-assigned identifier
	RollNumber      string    `json:"rollNumber" example:"21CS1001"`                    // Business key, immutable after registration
	Name            string    `json:"name" example:"Asha Verma"`
	Phone           string    `json:"phone" example:"+919876543210"`
	Email           string    `json:"email" example:"asha@example.edu"`
	DOB             string    `json:"dob" example:"2003-04-12"`
	FathersName     string    `json:"fathersName" example:"Rakesh Verma"`
	MothersName     string    `json:"mothersName" example:"Sunita Verma"`
	ParentsPhone    string    `json:"parentsPhone" example:"+919812345678"`
	Gender          string    `json:"gender" example:"female"`
	Course          string    `json:"course" example:"B.Tech"`
	Branch          string    `json:"branch" example:"CSE"`
	Section         string    `json:"section" example:"A"`
	Year            string    `json:"year" example:"3"`
	ResidenceStatus string    `json:"residenceStatus" example:"hosteller"`
	Username        string    `json:"username" example:"asha"`
	PasswordHash    string    `json:"passwordHash"` // bcrypt; never rendered
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// StudentUpdate carries the fields of a partial update. Nil means "leave as is".
type StudentUpdate struct {
	RollNumber      *string
	Name            *string
	Phone           *string
	Email           *string
	DOB             *string
	FathersName     *string
	MothersName     *string
	ParentsPhone    *string
	Gender          *string
	Course          *string
	Branch          *string
	Section         *string
	Year            *string
	ResidenceStatus *string
	Username        *string
	Password        *string
}

// Fields returns the document keys and values the update sets, minus the
// credential fields which the registry handles itself.
func (u StudentUpdate) Fields() map[string]string {
	out := map[string]string{}
	set := func(key string, v *string) {
		if v != nil {
			out[key] = *v
		}
	}
	set("name", u.Name)
	set("phone", u.Phone)
	set("email", u.Email)
	set("dob", u.DOB)
	set("fathersName", u.FathersName)
	set("mothersName", u.MothersName)
	set("parentsPhone", u.ParentsPhone)
	set("gender", u.Gender)
	set("course", u.Course)
	set("branch", u.Branch)
	set("section", u.Section)
	set("year", u.Year)
	set("residenceStatus", u.ResidenceStatus)
	return out
}

// IsEmpty reports whether the update changes nothing.
func (u StudentUpdate) IsEmpty() bool {
	return len(u.Fields()) == 0 && u.RollNumber == nil && u.Username == nil && u.Password == nil
}

// SortableFields is the whitelist of profile fields a search may be ordered by.
var SortableFields = map[string]bool{
	"rollNumber":      true,
	"name":            true,
	"phone":           true,
	"email":           true,
	"dob":             true,
	"fathersName":     true,
	"mothersName":     true,
	"parentsPhone":    true,
	"gender":          true,
	"course":          true,
	"branch":          true,
	"section":         true,
	"year":            true,
	"residenceStatus": true,
	"createdAt":       true,
}
