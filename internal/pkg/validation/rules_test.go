package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRollNumber(t *testing.T) {
	for _, ok := range []string{"21CS1001", "A", "2021/CSE-07", "r_1"} {
		assert.True(t, IsRollNumber(ok), ok)
	}
	for _, bad := range []string{"", "-21", "21 CS", "21CS1001$", "abcdefghijklmnopqrstuvwxyz0123456789"} {
		assert.False(t, IsRollNumber(bad), bad)
	}
}

func TestIsSemesterLabel(t *testing.T) {
	assert.True(t, IsSemesterLabel("S1"))
	assert.True(t, IsSemesterLabel("Semester 8"))
	assert.False(t, IsSemesterLabel("   "))
	assert.False(t, IsSemesterLabel(string(make([]byte, 33))))
}

type sample struct {
	Roll     string `json:"rollNumber" validate:"rollno"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
	Semester string `json:"semester" validate:"semester"`
}

func TestRegister(t *testing.T) {
	v := validator.New()
	require.NoError(t, Register(v))

	assert.NoError(t, v.Struct(sample{Roll: "21CS1001", Phone: "+91 98765-43210", Semester: "S1"}))
	assert.NoError(t, v.Struct(sample{Roll: "21CS1001", Semester: "S1"}))

	err := v.Struct(sample{Roll: "bad roll", Phone: "12", Semester: " "})
	require.Error(t, err)
	verrs := err.(validator.ValidationErrors)
	fields := map[string]string{}
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	assert.Equal(t, map[string]string{"rollNumber": "rollno", "phone": "phone", "semester": "semester"}, fields)
}
