package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/student-console/internal/models"
	appErrors "github.com/noah-isme/student-console/pkg/errors"
)

// Console is everything one browser session sees: the shell, the open form
// (if any) and the record table. Pending marks an action outcome that the
// next view has not shown yet.
type Console struct {
	Shell   ShellState `json:"shell"`
	Form    *FormState `json:"form,omitempty"`
	Table   TableState `json:"table"`
	Alert   string     `json:"alert,omitempty"`
	Pending bool       `json:"pending,omitempty"`
}

// NewConsole returns the state of a session that has never been seen.
func NewConsole() *Console {
	return &Console{}
}

func (c *Console) normalize() {
	if c.Form != nil && c.Form.Errors == nil {
		c.Form.Errors = map[string]string{}
	}
	if !c.Shell.FormOpen {
		c.Form = nil
	}
}

// StudentGetter fetches one record.
type StudentGetter interface {
	Get(ctx context.Context, id int64) (*models.Student, error)
}

// ConsoleService applies user actions to session-scoped console state.
type ConsoleService struct {
	sessions *SessionService
	forms    *FormService
	table    *TableService
	students StudentGetter
	audit    AuditRecorder
	refresh  *RefreshSignal
	logger   *zap.Logger
}

// NewConsoleService wires the console actions. audit may be nil.
func NewConsoleService(sessions *SessionService, forms *FormService, table *TableService, students StudentGetter, audit AuditRecorder, logger *zap.Logger) *ConsoleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ConsoleService{
		sessions: sessions,
		forms:    forms,
		table:    table,
		students: students,
		audit:    audit,
		refresh:  &RefreshSignal{},
		logger:   logger,
	}
	s.refresh.Subscribe(func(ctx context.Context, console *Console) error {
		return s.table.Fetch(ctx, &console.Table)
	})
	return s
}

// OnRefresh registers an extra listener for the refresh signal.
func (s *ConsoleService) OnRefresh(fn RefreshListener) {
	s.refresh.Subscribe(fn)
}

// dispatch loads the session's console, applies action and saves the result.
// The console is returned even when action fails so callers can render the
// outcome.
//
// A view re-reads the list unless it is showing the outcome of the action
// just before it. Alert is a flash: an action stores it, the next view shows
// it once. A session that has only viewed is never stored.
func (s *ConsoleService) dispatch(ctx context.Context, sessionID string, action func(*Console) error) (*Console, error) {
	console, found, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		s.logger.Warn("using fresh console state", zap.String("session_id", sessionID), zap.Error(err))
	}
	flash := console.Alert
	console.Alert = ""

	if action == nil {
		if !console.Pending || !console.Table.Loaded {
			_ = s.table.Fetch(ctx, &console.Table)
		}
		console.Pending = false
		if !found {
			return console, nil
		}
		saveErr := s.sessions.Save(ctx, sessionID, console)
		console.Alert = flash
		return console, saveErr
	}

	if !console.Table.Loaded {
		_ = s.table.Fetch(ctx, &console.Table)
	}
	actionErr := action(console)
	console.Pending = true
	if err := s.sessions.Save(ctx, sessionID, console); err != nil && actionErr == nil {
		return console, err
	}
	return console, actionErr
}

// View returns the console with a freshly read list, or with the outcome of
// the preceding action.
func (s *ConsoleService) View(ctx context.Context, sessionID string) (*Console, error) {
	return s.dispatch(ctx, sessionID, nil)
}

// OpenCreate opens an empty form.
func (s *ConsoleService) OpenCreate(ctx context.Context, sessionID string) (*Console, error) {
	return s.dispatch(ctx, sessionID, func(c *Console) error {
		c.Shell.OpenCreate()
		c.Form = NewCreateForm()
		return nil
	})
}

// OpenEdit opens the form seeded from record id.
func (s *ConsoleService) OpenEdit(ctx context.Context, sessionID string, id int64) (*Console, error) {
	return s.dispatch(ctx, sessionID, func(c *Console) error {
		record, err := s.lookup(ctx, c, id)
		if err != nil {
			return err
		}
		c.Shell.OpenEdit(record)
		c.Form = NewEditForm(record)
		return nil
	})
}

// CloseForm discards the open form.
func (s *ConsoleService) CloseForm(ctx context.Context, sessionID string) (*Console, error) {
	return s.dispatch(ctx, sessionID, func(c *Console) error {
		c.Shell.Close()
		c.Form = nil
		return nil
	})
}

// Submit applies values to the open form and saves it. On success the form
// closes and the refresh signal fires.
func (s *ConsoleService) Submit(ctx context.Context, sessionID string, values FormValues) (*Console, error) {
	return s.dispatch(ctx, sessionID, func(c *Console) error {
		if c.Form == nil || !c.Shell.FormOpen {
			c.Alert = "The form is no longer open"
			return appErrors.Clone(appErrors.ErrBadRequest, c.Alert)
		}
		c.Form.Apply(values)
		saved, err := s.forms.Submit(ctx, c.Form)
		if err != nil {
			return err
		}

		action := models.AuditActionStudentCreate
		if c.Form.Editing() {
			action = models.AuditActionStudentUpdate
		}
		s.record(ctx, sessionID, action, saved.ID, BuildPayload(c.Form))

		c.Shell.Close()
		c.Form = nil
		if err := s.refresh.Publish(ctx, c); err != nil {
			s.logger.Warn("refresh after save failed", zap.Error(err))
		}
		return nil
	})
}

// RequestDelete asks for confirmation before deleting record id.
func (s *ConsoleService) RequestDelete(ctx context.Context, sessionID string, id int64) (*Console, error) {
	return s.dispatch(ctx, sessionID, func(c *Console) error {
		record, err := s.lookup(ctx, c, id)
		if err != nil {
			return err
		}
		c.Table.RequestDelete(record)
		return nil
	})
}

// CancelDelete closes the confirmation.
func (s *ConsoleService) CancelDelete(ctx context.Context, sessionID string) (*Console, error) {
	return s.dispatch(ctx, sessionID, func(c *Console) error {
		c.Table.CancelDelete()
		return nil
	})
}

// ConfirmDelete deletes the record awaiting confirmation.
func (s *ConsoleService) ConfirmDelete(ctx context.Context, sessionID string) (*Console, error) {
	return s.dispatch(ctx, sessionID, func(c *Console) error {
		if c.Table.Confirm == nil {
			return s.table.ConfirmDelete(ctx, &c.Table)
		}
		id := c.Table.Confirm.ID
		if err := s.table.ConfirmDelete(ctx, &c.Table); err != nil {
			return err
		}
		s.record(ctx, sessionID, models.AuditActionStudentDelete, id, nil)
		if c.Shell.Selected != nil && c.Shell.Selected.ID == id {
			c.Shell.Close()
			c.Form = nil
		}
		return nil
	})
}

// Reload re-fetches the list.
func (s *ConsoleService) Reload(ctx context.Context, sessionID string) (*Console, error) {
	return s.dispatch(ctx, sessionID, func(c *Console) error {
		return s.table.Fetch(ctx, &c.Table)
	})
}

func (s *ConsoleService) lookup(ctx context.Context, c *Console, id int64) (models.Student, error) {
	if record, ok := c.Table.Find(id); ok {
		return record, nil
	}
	record, err := s.students.Get(ctx, id)
	if err != nil {
		c.Alert = appErrors.FromError(err).Message
		return models.Student{}, err
	}
	return *record, nil
}

func (s *ConsoleService) record(ctx context.Context, sessionID, action string, id int64, payload interface{}) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, AuditEntry{SessionID: sessionID, Action: action, StudentID: id, Payload: payload})
}
