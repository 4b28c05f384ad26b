package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/student-console/internal/models"
	"github.com/noah-isme/student-console/internal/repository"
	appErrors "github.com/noah-isme/student-console/pkg/errors"
)

type recordingAudit struct {
	entries []AuditEntry
}

func (r *recordingAudit) Record(_ context.Context, entry AuditEntry) {
	r.entries = append(r.entries, entry)
}

type consoleFixture struct {
	svc     *ConsoleService
	backend *fakeStudentBackend
	audit   *recordingAudit
	repo    *repository.MemoryStateRepository
}

func newConsoleFixture(t *testing.T, students ...models.Student) *consoleFixture {
	t.Helper()
	backend := &fakeStudentBackend{students: students}
	repo := repository.NewMemoryStateRepository()
	audit := &recordingAudit{}
	sessions := NewSessionService(repo, nil, time.Hour, zap.NewNop())
	forms := newTestFormService(t, backend)
	table := NewTableService(backend, zap.NewNop())
	return &consoleFixture{
		svc:     NewConsoleService(sessions, forms, table, backend, audit, zap.NewNop()),
		backend: backend,
		audit:   audit,
		repo:    repo,
	}
}

func TestViewRereadsListUnlessShowingAnAction(t *testing.T) {
	f := newConsoleFixture(t, nguyen())
	ctx := context.Background()

	console, err := f.svc.View(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, console.Table.Records, 1)
	assert.Equal(t, 1, f.backend.listCalls)

	// the backend changed behind the console's back
	other := nguyen()
	other.ID, other.StudentID = 6, "SV006"
	f.backend.students = append(f.backend.students, other)

	console, err = f.svc.View(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, console.Table.Records, 2)
	assert.Equal(t, 2, f.backend.listCalls)

	// the view following an action shows that action's state as is
	_, err = f.svc.OpenCreate(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 3, f.backend.listCalls)
	console, err = f.svc.View(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, console.Shell.FormOpen)
	assert.Equal(t, 3, f.backend.listCalls)

	_, err = f.svc.View(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 4, f.backend.listCalls)
}

func TestViewOnlySessionsAreNotStored(t *testing.T) {
	f := newConsoleFixture(t, nguyen())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.svc.View(ctx, "crawler")
		require.NoError(t, err)
	}
	assert.Zero(t, f.repo.Len())

	_, err := f.svc.OpenCreate(ctx, "crawler")
	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.Len())
}

func TestOpenCreateAndClose(t *testing.T) {
	f := newConsoleFixture(t)
	ctx := context.Background()

	console, err := f.svc.OpenCreate(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, console.Shell.FormOpen)
	assert.Nil(t, console.Shell.Selected)
	require.NotNil(t, console.Form)
	assert.False(t, console.Form.Editing())

	console, err = f.svc.CloseForm(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, console.Shell.FormOpen)
	assert.Nil(t, console.Form)
}

func TestOpenEditUsesListedRecord(t *testing.T) {
	f := newConsoleFixture(t, nguyen())
	ctx := context.Background()

	console, err := f.svc.OpenEdit(ctx, "s1", 5)
	require.NoError(t, err)
	require.NotNil(t, console.Shell.Selected)
	assert.Equal(t, int64(5), console.Shell.Selected.ID)
	assert.True(t, console.Form.StudentIDLocked())
	assert.Equal(t, "SV005", console.Form.Values.StudentID)
	assert.Empty(t, f.backend.getCalls)
}

func TestOpenEditFallsBackToGet(t *testing.T) {
	f := newConsoleFixture(t)
	ctx := context.Background()
	_, err := f.svc.Reload(ctx, "s1")
	require.NoError(t, err)

	f.backend.students = []models.Student{nguyen()}
	console, err := f.svc.OpenEdit(ctx, "s1", 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, f.backend.getCalls)
	assert.True(t, console.Shell.Editing())

	console, err = f.svc.OpenEdit(ctx, "s1", 77)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Equal(t, "student does not exist", console.Alert)
}

func TestAlertShowsOnceOnNextView(t *testing.T) {
	f := newConsoleFixture(t)
	ctx := context.Background()

	_, err := f.svc.OpenEdit(ctx, "s1", 42)
	require.Error(t, err)

	console, err := f.svc.View(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "student does not exist", console.Alert)

	console, err = f.svc.View(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, console.Alert)
}

func TestSubmitClosesFormAndRefreshes(t *testing.T) {
	f := newConsoleFixture(t)
	ctx := context.Background()
	var signalled int
	f.svc.OnRefresh(func(context.Context, *Console) error {
		signalled++
		return nil
	})

	_, err := f.svc.OpenCreate(ctx, "s1")
	require.NoError(t, err)
	listBefore := f.backend.listCalls

	console, err := f.svc.Submit(ctx, "s1", validValues())
	require.NoError(t, err)

	assert.False(t, console.Shell.FormOpen)
	assert.Nil(t, console.Form)
	assert.Equal(t, uint64(1), console.Shell.Refreshes)
	assert.Equal(t, 1, signalled)
	assert.Equal(t, listBefore+1, f.backend.listCalls)
	require.Len(t, f.backend.created, 1)
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, models.AuditActionStudentCreate, f.audit.entries[0].Action)
	assert.Equal(t, "s1", f.audit.entries[0].SessionID)
}

func TestSubmitInvalidKeepsFormOpen(t *testing.T) {
	f := newConsoleFixture(t)
	ctx := context.Background()
	_, err := f.svc.OpenCreate(ctx, "s1")
	require.NoError(t, err)

	values := validValues()
	values.BirthDate = "2030-01-01"
	console, err := f.svc.Submit(ctx, "s1", values)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.True(t, console.Shell.FormOpen)
	assert.Contains(t, console.Form.Errors, models.FieldBirthDate)
	assert.Empty(t, f.backend.created)
	assert.Empty(t, f.audit.entries)

	// errors survive the round trip through the session store
	reloaded, err := f.svc.View(ctx, "s1")
	require.NoError(t, err)
	assert.Contains(t, reloaded.Form.Errors, models.FieldBirthDate)
	assert.Equal(t, "2030-01-01", reloaded.Form.Values.BirthDate)
}

func TestSubmitWithoutOpenForm(t *testing.T) {
	f := newConsoleFixture(t)
	console, err := f.svc.Submit(context.Background(), "s1", validValues())
	assert.ErrorIs(t, err, appErrors.ErrBadRequest)
	assert.NotEmpty(t, console.Alert)
	assert.Empty(t, f.backend.created)
}

func TestSubmitEditAuditsUpdate(t *testing.T) {
	f := newConsoleFixture(t, models.Student{
		ID: 5, StudentID: "SV005", FirstName: "Nguyen", LastName: "Van A", Email: "a@example.com",
		BirthDate: "2005-01-15", Hometown: "Hue",
	})
	ctx := context.Background()
	console, err := f.svc.OpenEdit(ctx, "s1", 5)
	require.NoError(t, err)

	values := console.Form.Values
	values.Hometown = "Da Nang"
	_, err = f.svc.Submit(ctx, "s1", values)
	require.NoError(t, err)

	assert.Equal(t, []int64{5}, f.backend.updateID)
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, models.AuditActionStudentUpdate, f.audit.entries[0].Action)
	assert.Equal(t, int64(5), f.audit.entries[0].StudentID)
}

func TestDeleteFlow(t *testing.T) {
	f := newConsoleFixture(t, nguyen())
	ctx := context.Background()

	console, err := f.svc.RequestDelete(ctx, "s1", 5)
	require.NoError(t, err)
	require.NotNil(t, console.Table.Confirm)
	assert.Equal(t, "Nguyen Van A", console.Table.Confirm.Name)

	console, err = f.svc.ConfirmDelete(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, f.backend.deleted)
	assert.Nil(t, console.Table.Confirm)
	assert.Empty(t, console.Table.Records)
	assert.Equal(t, 2, f.backend.listCalls)
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, models.AuditActionStudentDelete, f.audit.entries[0].Action)
}

func TestDeleteFailureKeepsConfirmation(t *testing.T) {
	f := newConsoleFixture(t, nguyen())
	f.backend.deleteErr = appErrors.Clone(appErrors.ErrBackendFailure, "database locked")
	ctx := context.Background()

	_, err := f.svc.RequestDelete(ctx, "s1", 5)
	require.NoError(t, err)
	console, err := f.svc.ConfirmDelete(ctx, "s1")
	require.Error(t, err)
	require.NotNil(t, console.Table.Confirm)
	assert.Equal(t, "database locked", console.Table.Confirm.Error)
	assert.Empty(t, f.audit.entries)

	console, err = f.svc.CancelDelete(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, console.Table.Confirm)
}

func TestReloadRefetches(t *testing.T) {
	f := newConsoleFixture(t, nguyen())
	ctx := context.Background()
	_, err := f.svc.View(ctx, "s1")
	require.NoError(t, err)

	f.backend.listErr = errors.New("refused")
	console, err := f.svc.Reload(ctx, "s1")
	require.Error(t, err)
	assert.Equal(t, MessageListFailed, console.Table.Error)

	f.backend.listErr = nil
	console, err = f.svc.Reload(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, console.Table.Error)
	assert.Len(t, console.Table.Records, 1)
}

func TestRefreshSignalPublishesInOrder(t *testing.T) {
	var order []string
	signal := &RefreshSignal{}
	signal.Subscribe(func(context.Context, *Console) error {
		order = append(order, "a")
		return errors.New("first")
	})
	signal.Subscribe(nil)
	signal.Subscribe(func(context.Context, *Console) error {
		order = append(order, "b")
		return errors.New("second")
	})

	console := NewConsole()
	err := signal.Publish(context.Background(), console)
	assert.EqualError(t, err, "first")
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, uint64(1), console.Shell.Refreshes)
}
