package service

import (
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/student-console/internal/models"
)

// Custom validation tags for student forms.
const (
	tagNotBlank   = "notblank"
	tagStudentID  = "studentid"
	tagEmailShape = "emailshape"
	tagBirthDate  = "birthdate"
	tagScore      = "score"
)

const (
	birthDateLayout = "2006-01-02"
	minAgeYears     = 5
	maxAgeYears     = 100
	// Age uses a fixed 365-day year, not calendar arithmetic.
	ageYear  = 365 * 24 * time.Hour
	minScore = 0.0
	maxScore = 10.0
)

var (
	studentIDPattern  = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	emailShapePattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	birthDatePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// RegisterStudentRules installs the student form rules on v. now supplies the
// reference instant for birth-date checks.
func RegisterStudentRules(v *validator.Validate, now func() time.Time) error {
	if now == nil {
		now = time.Now
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	rules := map[string]validator.Func{
		tagNotBlank: func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		},
		tagStudentID: func(fl validator.FieldLevel) bool {
			return studentIDPattern.MatchString(fl.Field().String())
		},
		tagEmailShape: func(fl validator.FieldLevel) bool {
			return emailShapePattern.MatchString(fl.Field().String())
		},
		tagBirthDate: func(fl validator.FieldLevel) bool {
			return ValidBirthDate(fl.Field().String(), now())
		},
		tagScore: func(fl validator.FieldLevel) bool {
			_, ok := ParseScore(fl.Field().String())
			return ok
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

// ValidBirthDate reports whether raw is a YYYY-MM-DD date strictly before the
// current date with an age between 5 and 100 years.
func ValidBirthDate(raw string, now time.Time) bool {
	if !birthDatePattern.MatchString(raw) {
		return false
	}
	birth, err := time.Parse(birthDateLayout, raw)
	if err != nil {
		return false
	}
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if !birth.Before(today) {
		return false
	}
	age := float64(now.Sub(birth)) / float64(ageYear)
	return age >= minAgeYears && age <= maxAgeYears
}

// ParseScore parses a non-empty score and checks the closed range [0, 10].
func ParseScore(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, v >= minScore && v <= maxScore
}

var fieldLabels = map[string]string{
	models.FieldStudentID:  "Student ID",
	models.FieldFirstName:  "First name",
	models.FieldLastName:   "Last name",
	models.FieldEmail:      "Email",
	models.FieldBirthDate:  "Birth date",
	models.FieldHometown:   "Hometown",
	models.FieldMath:       "Math score",
	models.FieldLiterature: "Literature score",
	models.FieldEnglish:    "English score",
}

func ruleMessage(fe validator.FieldError) string {
	label := fieldLabels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}
	switch fe.Tag() {
	case tagNotBlank:
		return label + " is required"
	case "max":
		return label + " must be at most " + fe.Param() + " characters"
	case tagStudentID:
		return label + " may only contain letters, digits, dash (-) and underscore (_)"
	case tagEmailShape:
		return "Email is invalid (e.g. abc@example.com)"
	case tagBirthDate:
		return "Birth date must be a YYYY-MM-DD date before today, with an age between 5 and 100"
	case tagScore:
		return "Score must be a number between 0 and 10"
	default:
		return label + " is invalid"
	}
}
