package validation

import (
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	// Roll numbers: 1-32 characters, alphanumeric plus '/', '_' and '-'.
	RollNumberPattern = `^[A-Za-z0-9][A-Za-z0-9/_-]{0,31}$`

	// Phone numbers: optional '+', then 6-20 digits, spaces or dashes.
	PhonePattern = `^\+?[0-9][0-9 -]{5,19}$`

	SemesterMaxLength = 32
)

// CompiledPatterns caches compiled regex patterns for better performance
var CompiledPatterns = struct {
	RollNumber *regexp.Regexp
	Phone      *regexp.Regexp
}{
	RollNumber: regexp.MustCompile(RollNumberPattern),
	Phone:      regexp.MustCompile(PhonePattern),
}

// IsRollNumber reports whether s is a well-formed roll number.
func IsRollNumber(s string) bool {
	return CompiledPatterns.RollNumber.MatchString(s)
}

// IsSemesterLabel reports whether s can label a semester.
func IsSemesterLabel(s string) bool {
	return strings.TrimSpace(s) != "" && utf8.RuneCountInString(s) <= SemesterMaxLength
}

var registerOnce sync.Once

// RegisterCustomValidations adds the rollno, phone and semester tags to
// gin's validator and reports fields by their json name.
func RegisterCustomValidations() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		err = Register(v)
	})
	return err
}

// Register installs the custom rules on v.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	rules := map[string]validator.Func{
		"rollno": func(fl validator.FieldLevel) bool {
			return IsRollNumber(fl.Field().String())
		},
		"phone": func(fl validator.FieldLevel) bool {
			return CompiledPatterns.Phone.MatchString(fl.Field().String())
		},
		"semester": func(fl validator.FieldLevel) bool {
			return IsSemesterLabel(fl.Field().String())
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}
