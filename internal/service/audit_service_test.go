package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/student-console/internal/models"
	"github.com/noah-isme/student-console/pkg/jobs"
	"github.com/noah-isme/student-console/pkg/middleware/requestid"
)

type fakeAuditStore struct {
	logs []*models.AuditLog
	err  error
}

func (f *fakeAuditStore) Create(_ context.Context, log *models.AuditLog) error {
	if f.err != nil {
		return f.err
	}
	f.logs = append(f.logs, log)
	return nil
}

type fakeEnqueuer struct {
	jobs []jobs.Job
	err  error
}

func (f *fakeEnqueuer) Enqueue(job jobs.Job) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func TestAuditRecordQueuesEntry(t *testing.T) {
	queue := &fakeEnqueuer{}
	svc := NewAuditService(&fakeAuditStore{}, nil, zap.NewNop())
	svc.UseQueue(queue)

	ctx := requestid.WithContext(context.Background(), "req-9")
	svc.Record(ctx, AuditEntry{SessionID: "s1", Action: models.AuditActionStudentDelete, StudentID: 5})

	require.Len(t, queue.jobs, 1)
	entry := queue.jobs[0].Payload.(AuditEntry)
	assert.Equal(t, "req-9", entry.RequestID)
	assert.NotEmpty(t, queue.jobs[0].ID)
}

func TestAuditRecordSwallowsQueueErrors(t *testing.T) {
	svc := NewAuditService(&fakeAuditStore{}, nil, zap.NewNop())
	svc.UseQueue(&fakeEnqueuer{err: jobs.ErrQueueFull})
	assert.NotPanics(t, func() {
		svc.Record(context.Background(), AuditEntry{Action: models.AuditActionStudentCreate})
	})
}

func TestAuditHandleWritesLog(t *testing.T) {
	store := &fakeAuditStore{}
	svc := NewAuditService(store, NewMetricsService(), zap.NewNop())
	payload := models.StudentPayload{StudentID: "SV005"}

	err := svc.Handle(context.Background(), jobs.Job{ID: "j1", Payload: AuditEntry{
		SessionID: "s1", RequestID: "r1", Action: models.AuditActionStudentUpdate, StudentID: 5, Payload: payload,
	}})
	require.NoError(t, err)

	require.Len(t, store.logs, 1)
	log := store.logs[0]
	assert.Equal(t, models.AuditActionStudentUpdate, log.Action)
	assert.Equal(t, models.AuditResourceStudent, log.Resource)
	assert.Equal(t, "5", *log.ResourceID)
	assert.Equal(t, "s1", *log.SessionID)
	assert.Contains(t, string(log.NewValues), `"student_id":"SV005"`)
}

func TestAuditHandleReturnsStoreErrorForRetry(t *testing.T) {
	svc := NewAuditService(&fakeAuditStore{err: errors.New("db down")}, nil, zap.NewNop())
	err := svc.Handle(context.Background(), jobs.Job{Payload: AuditEntry{Action: models.AuditActionStudentCreate}})
	assert.Error(t, err)
}

func TestAuditHandleIgnoresForeignPayload(t *testing.T) {
	store := &fakeAuditStore{}
	svc := NewAuditService(store, nil, zap.NewNop())
	assert.NoError(t, svc.Handle(context.Background(), jobs.Job{Payload: "nope"}))
	assert.Empty(t, store.logs)
}
