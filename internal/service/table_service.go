package service

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/student-console/internal/models"
	appErrors "github.com/noah-isme/student-console/pkg/errors"
)

// Table messages.
const (
	MessageListFailed   = "Failed to load the student list"
	MessageDeleteFailed = "Failed to delete the student"
	ScorePlaceholder    = "-"
)

type studentLister interface {
	List(ctx context.Context) ([]models.Student, error)
}

type studentDeleter interface {
	Delete(ctx context.Context, id int64) error
}

// DeleteConfirmation is an open delete dialog.
type DeleteConfirmation struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Deleting bool   `json:"deleting"`
	Error    string `json:"error,omitempty"`
}

// TableState is the record table's state between requests.
type TableState struct {
	Records []models.Student    `json:"records"`
	Loaded  bool                `json:"loaded"`
	Loading bool                `json:"loading"`
	Error   string              `json:"error,omitempty"`
	Confirm *DeleteConfirmation `json:"confirm,omitempty"`
}

// Row is a record formatted for display.
type Row struct {
	ID         int64  `json:"id"`
	StudentID  string `json:"student_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	BirthDate  string `json:"birth_date"`
	Hometown   string `json:"hometown"`
	Math       string `json:"math"`
	Literature string `json:"literature"`
	English    string `json:"english"`
}

// FormatScore renders a score with two decimals, or a dash when absent.
func FormatScore(s models.Score) string {
	if !s.Valid {
		return ScorePlaceholder
	}
	return strconv.FormatFloat(s.Value, 'f', 2, 64)
}

// FormatRow formats one record.
func FormatRow(s models.Student) Row {
	return Row{
		ID:         s.ID,
		StudentID:  s.StudentID,
		FirstName:  s.FirstName,
		LastName:   s.LastName,
		FullName:   s.FullName(),
		Email:      s.Email,
		BirthDate:  s.BirthDay(),
		Hometown:   s.Hometown,
		Math:       FormatScore(s.Math),
		Literature: FormatScore(s.Literature),
		English:    FormatScore(s.English),
	}
}

// Rows formats every loaded record.
func (t *TableState) Rows() []Row {
	rows := make([]Row, 0, len(t.Records))
	for _, s := range t.Records {
		rows = append(rows, FormatRow(s))
	}
	return rows
}

// Find returns the loaded record with id.
func (t *TableState) Find(id int64) (models.Student, bool) {
	for _, s := range t.Records {
		if s.ID == id {
			return s, true
		}
	}
	return models.Student{}, false
}

// RequestDelete opens the confirmation dialog for a record.
func (t *TableState) RequestDelete(s models.Student) {
	t.Confirm = &DeleteConfirmation{ID: s.ID, Name: s.FullName()}
}

// CancelDelete closes the confirmation dialog.
func (t *TableState) CancelDelete() {
	t.Confirm = nil
}

type studentTableClient interface {
	studentLister
	studentDeleter
}

// TableService loads the list and runs deletions.
type TableService struct {
	students studentTableClient
	logger   *zap.Logger
}

// NewTableService constructs the table service.
func NewTableService(students studentTableClient, logger *zap.Logger) *TableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TableService{students: students, logger: logger}
}

// Fetch replaces the table's records with the backend list.
func (s *TableService) Fetch(ctx context.Context, t *TableState) error {
	t.Loading = true
	t.Error = ""
	records, err := s.students.List(ctx)
	t.Loading = false
	t.Loaded = true
	if err != nil {
		s.logger.Warn("list students failed", zap.Error(err))
		t.Records = nil
		t.Error = MessageListFailed
		return err
	}
	t.Records = records
	return nil
}

// ConfirmDelete deletes the record under confirmation. On success the dialog
// closes and the list is re-fetched; on failure the dialog stays open with the
// error so the user can retry or cancel.
func (s *TableService) ConfirmDelete(ctx context.Context, t *TableState) error {
	if t.Confirm == nil {
		return appErrors.Clone(appErrors.ErrBadRequest, "no deletion pending")
	}
	confirm := t.Confirm
	confirm.Deleting = true
	confirm.Error = ""
	err := s.students.Delete(ctx, confirm.ID)
	confirm.Deleting = false
	if err != nil {
		msg := appErrors.FromError(err).Message
		if msg == "" {
			msg = MessageDeleteFailed
		}
		confirm.Error = msg
		s.logger.Warn("delete student failed", zap.Int64("id", confirm.ID), zap.Error(err))
		return err
	}
	s.logger.Info("student deleted", zap.Int64("id", confirm.ID))
	t.Confirm = nil
	// The deletion itself succeeded; a failed refresh only marks the table.
	_ = s.Fetch(ctx, t)
	return nil
}
