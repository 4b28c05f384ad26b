package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/student-console/internal/models"
	appErrors "github.com/noah-isme/student-console/pkg/errors"
)

// Form banners.
const (
	BannerReviewErrors = "Please review the errors below"
	BannerGeneric      = "Something went wrong"
)

type studentWriter interface {
	Create(ctx context.Context, payload models.StudentPayload) (*models.Student, error)
	Update(ctx context.Context, id int64, payload models.StudentPayload) (*models.Student, error)
}

// FormValues holds raw input. Scores stay strings so empty differs from zero.
type FormValues struct {
	StudentID  string `json:"student_id" form:"student_id" validate:"notblank,max=20,studentid"`
	FirstName  string `json:"first_name" form:"first_name" validate:"notblank,max=50"`
	LastName   string `json:"last_name" form:"last_name" validate:"notblank,max=50"`
	Email      string `json:"email" form:"email" validate:"notblank,emailshape,max=100"`
	BirthDate  string `json:"birth_date" form:"birth_date" validate:"notblank,birthdate"`
	Hometown   string `json:"hometown" form:"hometown" validate:"notblank,max=100"`
	Math       string `json:"math" form:"math" validate:"omitempty,score"`
	Literature string `json:"literature" form:"literature" validate:"omitempty,score"`
	English    string `json:"english" form:"english" validate:"omitempty,score"`
}

// Get returns the value of a named field.
func (v FormValues) Get(field string) string {
	if p := v.ref(field); p != nil {
		return *p
	}
	return ""
}

func (v *FormValues) ref(field string) *string {
	switch field {
	case models.FieldStudentID:
		return &v.StudentID
	case models.FieldFirstName:
		return &v.FirstName
	case models.FieldLastName:
		return &v.LastName
	case models.FieldEmail:
		return &v.Email
	case models.FieldBirthDate:
		return &v.BirthDate
	case models.FieldHometown:
		return &v.Hometown
	case models.FieldMath:
		return &v.Math
	case models.FieldLiterature:
		return &v.Literature
	case models.FieldEnglish:
		return &v.English
	}
	return nil
}

func (v FormValues) normalized() FormValues {
	v.Math = strings.TrimSpace(v.Math)
	v.Literature = strings.TrimSpace(v.Literature)
	v.English = strings.TrimSpace(v.English)
	return v
}

// FormMode distinguishes creating from editing.
type FormMode string

const (
	FormModeCreate FormMode = "create"
	FormModeEdit   FormMode = "edit"
)

// FormState is the record form's state between requests.
type FormState struct {
	Mode              FormMode          `json:"mode"`
	RecordID          int64             `json:"record_id,omitempty"`
	OriginalStudentID string            `json:"original_student_id,omitempty"`
	Values            FormValues        `json:"values"`
	Errors            map[string]string `json:"errors,omitempty"`
	Submitting        bool              `json:"submitting"`
	Banner            string            `json:"banner,omitempty"`
}

// NewCreateForm returns an empty form.
func NewCreateForm() *FormState {
	return &FormState{Mode: FormModeCreate, Errors: map[string]string{}}
}

// NewEditForm seeds a form from an existing record.
func NewEditForm(s models.Student) *FormState {
	return &FormState{
		Mode:              FormModeEdit,
		RecordID:          s.ID,
		OriginalStudentID: s.StudentID,
		Values: FormValues{
			StudentID:  s.StudentID,
			FirstName:  s.FirstName,
			LastName:   s.LastName,
			Email:      s.Email,
			BirthDate:  s.BirthDay(),
			Hometown:   s.Hometown,
			Math:       scoreInput(s.Math),
			Literature: scoreInput(s.Literature),
			English:    scoreInput(s.English),
		},
		Errors: map[string]string{},
	}
}

func scoreInput(s models.Score) string {
	if !s.Valid {
		return ""
	}
	return strconv.FormatFloat(s.Value, 'f', -1, 64)
}

// Editing reports whether the form updates an existing record.
func (f *FormState) Editing() bool {
	return f != nil && f.Mode == FormModeEdit
}

// StudentIDLocked reports whether student_id is read-only.
func (f *FormState) StudentIDLocked() bool {
	return f.Editing()
}

// Change sets one field and clears only that field's stale error. It returns
// false when the field is unknown or locked.
func (f *FormState) Change(field, value string) bool {
	if field == models.FieldStudentID && f.StudentIDLocked() {
		return false
	}
	p := f.Values.ref(field)
	if p == nil {
		return false
	}
	*p = value
	delete(f.Errors, field)
	return true
}

// Apply changes every field from submitted values.
func (f *FormState) Apply(values FormValues) {
	for _, field := range models.StudentFields {
		if f.Values.Get(field) != values.Get(field) {
			f.Change(field, values.Get(field))
		}
	}
}

// FormService validates and submits record forms.
type FormService struct {
	students  studentWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFormService constructs the form service. A nil validator gets the student
// rules registered against the wall clock.
func NewFormService(students studentWriter, validate *validator.Validate, logger *zap.Logger) *FormService {
	if validate == nil {
		validate = validator.New()
		_ = RegisterStudentRules(validate, time.Now)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FormService{students: students, validator: validate, logger: logger}
}

// Validate runs every field rule and returns the complete error map.
func (s *FormService) Validate(values FormValues) map[string]string {
	result := map[string]string{}
	err := s.validator.Struct(values.normalized())
	if err == nil {
		return result
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		s.logger.Error("form validation misconfigured", zap.Error(err))
		result[models.FieldStudentID] = BannerGeneric
		return result
	}
	for _, fe := range verrs {
		if _, seen := result[fe.Field()]; !seen {
			result[fe.Field()] = ruleMessage(fe)
		}
	}
	return result
}

// Submit validates the form and, when valid, creates or updates the record.
// The form's Errors and Banner reflect the outcome; the saved record is
// returned on success.
func (s *FormService) Submit(ctx context.Context, form *FormState) (*models.Student, error) {
	form.Banner = ""
	form.Errors = s.Validate(form.Values)
	if len(form.Errors) > 0 {
		return nil, appErrors.WithFields(appErrors.ErrValidation, form.Errors)
	}

	payload := BuildPayload(form)
	form.Submitting = true
	var (
		saved *models.Student
		err   error
	)
	if form.Editing() {
		saved, err = s.students.Update(ctx, form.RecordID, payload)
	} else {
		saved, err = s.students.Create(ctx, payload)
	}
	form.Submitting = false

	if err != nil {
		s.applyFailure(form, err)
		return nil, err
	}
	s.logger.Info("student saved", zap.String("mode", string(form.Mode)), zap.Int64("id", saved.ID))
	return saved, nil
}

func (s *FormService) applyFailure(form *FormState, err error) {
	if fields, ok := appErrors.FieldErrors(err); ok {
		form.Errors = make(map[string]string, len(fields))
		for k, v := range fields {
			form.Errors[k] = v
		}
		form.Banner = BannerReviewErrors
		return
	}
	msg := appErrors.FromError(err).Message
	if msg == "" {
		msg = BannerGeneric
	}
	form.Banner = msg
}

// BuildPayload converts form values into the backend payload. Empty scores
// become null; in edit mode the original student_id is always sent.
func BuildPayload(form *FormState) models.StudentPayload {
	v := form.Values.normalized()
	studentID := v.StudentID
	if form.Editing() {
		studentID = form.OriginalStudentID
	}
	return models.StudentPayload{
		StudentID:  strings.TrimSpace(studentID),
		FirstName:  strings.TrimSpace(v.FirstName),
		LastName:   strings.TrimSpace(v.LastName),
		Email:      strings.TrimSpace(v.Email),
		BirthDate:  v.BirthDate,
		Hometown:   strings.TrimSpace(v.Hometown),
		Math:       scorePtr(v.Math),
		Literature: scorePtr(v.Literature),
		English:    scorePtr(v.English),
	}
}

func scorePtr(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
