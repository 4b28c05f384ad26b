package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Field names shared by the form, the backend payload and error maps.
const (
	FieldStudentID  = "student_id"
	FieldFirstName  = "first_name"
	FieldLastName   = "last_name"
	FieldEmail      = "email"
	FieldBirthDate  = "birth_date"
	FieldHometown   = "hometown"
	FieldMath       = "math"
	FieldLiterature = "literature"
	FieldEnglish    = "english"
)

// StudentFields lists every editable field in display order.
var StudentFields = []string{
	FieldStudentID,
	FieldFirstName,
	FieldLastName,
	FieldEmail,
	FieldBirthDate,
	FieldHometown,
	FieldMath,
	FieldLiterature,
	FieldEnglish,
}

// Score is an optional grade. The zero value is absent and encodes as null.
type Score struct {
	Value float64
	Valid bool
}

// NewScore returns a present score.
func NewScore(v float64) Score {
	return Score{Value: v, Valid: true}
}

// MarshalJSON encodes absent scores as null.
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

// UnmarshalJSON accepts a number, a numeric string or null. Anything that does
// not parse to a finite number leaves the score absent.
func (s *Score) UnmarshalJSON(data []byte) error {
	*s = Score{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	switch v := raw.(type) {
	case float64:
		*s = NewScore(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			*s = NewScore(f)
		}
	}
	return nil
}

// Ptr returns the score as a nullable float.
func (s Score) Ptr() *float64 {
	if !s.Valid {
		return nil
	}
	v := s.Value
	return &v
}

// Student is a record as served by the backend.
type Student struct {
	ID         int64  `json:"id"`
	StudentID  string `json:"student_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	BirthDate  string `json:"birth_date"`
	Hometown   string `json:"hometown"`
	Math       Score  `json:"math"`
	Literature Score  `json:"literature"`
	English    Score  `json:"english"`
}

// FullName is the display name used in confirmations.
func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// BirthDay returns the date part of BirthDate; backends may serialise full timestamps.
func (s Student) BirthDay() string {
	return DateOnly(s.BirthDate)
}

// DateOnly trims an ISO timestamp down to YYYY-MM-DD.
func DateOnly(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) > 10 && (raw[10] == 'T' || raw[10] == ' ') {
		return raw[:10]
	}
	return raw
}

// StudentPayload is the JSON body sent on create and update.
type StudentPayload struct {
	StudentID  string   `json:"student_id"`
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	Email      string   `json:"email"`
	BirthDate  string   `json:"birth_date"`
	Hometown   string   `json:"hometown"`
	Math       *float64 `json:"math"`
	Literature *float64 `json:"literature"`
	English    *float64 `json:"english"`
}

// DeleteAck is the backend acknowledgment for a deletion.
type DeleteAck struct {
	Message string `json:"message"`
}
