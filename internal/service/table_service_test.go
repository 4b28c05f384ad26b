package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/student-console/internal/models"
	appErrors "github.com/noah-isme/student-console/pkg/errors"
)

// fakeStudentBackend implements every client operation in memory.
type fakeStudentBackend struct {
	fakeStudentWriter
	students  []models.Student
	listCalls int
	listErr   error
	deleted   []int64
	deleteErr error
	getCalls  []int64
}

func (f *fakeStudentBackend) List(context.Context) ([]models.Student, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Student, len(f.students))
	copy(out, f.students)
	return out, nil
}

func (f *fakeStudentBackend) Get(_ context.Context, id int64) (*models.Student, error) {
	f.getCalls = append(f.getCalls, id)
	for _, s := range f.students {
		if s.ID == id {
			found := s
			return &found, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "student does not exist")
}

func (f *fakeStudentBackend) Delete(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	kept := f.students[:0]
	for _, s := range f.students {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	f.students = kept
	return nil
}

func nguyen() models.Student {
	return models.Student{ID: 5, StudentID: "SV005", FirstName: "Nguyen", LastName: "Van A", Math: models.NewScore(7)}
}

func TestFormatScore(t *testing.T) {
	assert.Equal(t, "7.00", FormatScore(models.NewScore(7)))
	assert.Equal(t, "9.50", FormatScore(models.NewScore(9.5)))
	assert.Equal(t, "0.00", FormatScore(models.NewScore(0)))
	assert.Equal(t, "-", FormatScore(models.Score{}))
}

func TestFetchReplacesRecords(t *testing.T) {
	backend := &fakeStudentBackend{students: []models.Student{nguyen()}}
	svc := NewTableService(backend, zap.NewNop())
	state := &TableState{Records: []models.Student{{ID: 1}, {ID: 2}}}

	require.NoError(t, svc.Fetch(context.Background(), state))

	assert.True(t, state.Loaded)
	assert.False(t, state.Loading)
	require.Len(t, state.Records, 1)
	rows := state.Rows()
	assert.Equal(t, "7.00", rows[0].Math)
	assert.Equal(t, "-", rows[0].Literature)
	assert.Equal(t, "Nguyen Van A", rows[0].FullName)
}

func TestFetchFailureSetsError(t *testing.T) {
	backend := &fakeStudentBackend{listErr: errors.New("dial tcp: refused")}
	svc := NewTableService(backend, zap.NewNop())
	state := &TableState{Records: []models.Student{nguyen()}}

	require.Error(t, svc.Fetch(context.Background(), state))

	assert.Equal(t, MessageListFailed, state.Error)
	assert.Empty(t, state.Records)
	assert.False(t, state.Loading)
}

func TestConfirmDeleteRefetches(t *testing.T) {
	backend := &fakeStudentBackend{students: []models.Student{nguyen(), {ID: 6, FirstName: "Tran", LastName: "B"}}}
	svc := NewTableService(backend, zap.NewNop())
	state := &TableState{}
	require.NoError(t, svc.Fetch(context.Background(), state))

	record, ok := state.Find(5)
	require.True(t, ok)
	state.RequestDelete(record)
	require.NotNil(t, state.Confirm)
	assert.Equal(t, "Nguyen Van A", state.Confirm.Name)
	assert.Equal(t, int64(5), state.Confirm.ID)

	require.NoError(t, svc.ConfirmDelete(context.Background(), state))

	assert.Equal(t, []int64{5}, backend.deleted)
	assert.Nil(t, state.Confirm)
	assert.Equal(t, 2, backend.listCalls)
	require.Len(t, state.Records, 1)
	assert.Equal(t, int64(6), state.Records[0].ID)
}

func TestConfirmDeleteFailureKeepsDialog(t *testing.T) {
	backend := &fakeStudentBackend{
		students:  []models.Student{nguyen()},
		deleteErr: appErrors.Clone(appErrors.ErrNotFound, "student does not exist"),
	}
	svc := NewTableService(backend, zap.NewNop())
	state := &TableState{}
	state.RequestDelete(nguyen())

	require.Error(t, svc.ConfirmDelete(context.Background(), state))

	require.NotNil(t, state.Confirm)
	assert.Equal(t, "student does not exist", state.Confirm.Error)
	assert.False(t, state.Confirm.Deleting)
	assert.Zero(t, backend.listCalls)

	// retry succeeds
	backend.deleteErr = nil
	require.NoError(t, svc.ConfirmDelete(context.Background(), state))
	assert.Nil(t, state.Confirm)
}

func TestCancelDelete(t *testing.T) {
	state := &TableState{}
	state.RequestDelete(nguyen())
	state.CancelDelete()
	assert.Nil(t, state.Confirm)
}

func TestConfirmDeleteWithoutDialog(t *testing.T) {
	svc := NewTableService(&fakeStudentBackend{}, zap.NewNop())
	err := svc.ConfirmDelete(context.Background(), &TableState{})
	assert.ErrorIs(t, err, appErrors.ErrBadRequest)
}
