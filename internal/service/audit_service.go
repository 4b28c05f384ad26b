package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/student-console/internal/models"
	"github.com/noah-isme/student-console/pkg/jobs"
	"github.com/noah-isme/student-console/pkg/middleware/requestid"
)

const auditJobType = "audit.student"

// AuditEntry describes one mutation forwarded to the backend.
type AuditEntry struct {
	SessionID string
	RequestID string
	Action    string
	StudentID int64
	Payload   interface{}
}

// AuditRecorder accepts audit entries. Implementations must not block and
// must not fail the caller.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// AuditStore persists audit logs.
type AuditStore interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

type auditEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// AuditService queues audit entries and writes them from a worker.
type AuditService struct {
	store   AuditStore
	queue   auditEnqueuer
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAuditService constructs the service. Attach a queue with UseQueue before
// recording; Handle is the queue's job handler.
func NewAuditService(store AuditStore, metrics *MetricsService, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{store: store, metrics: metrics, logger: logger}
}

// UseQueue sets the queue entries are offered to.
func (s *AuditService) UseQueue(q auditEnqueuer) {
	s.queue = q
}

// Record converts entry into a job. Queue failures are logged and dropped.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	if entry.RequestID == "" {
		entry.RequestID = requestid.FromContext(ctx)
	}
	if s.queue == nil {
		s.metrics.RecordAudit("dropped")
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Type: auditJobType, Payload: entry}
	if err := s.queue.Enqueue(job); err != nil {
		s.metrics.RecordAudit("dropped")
		s.logger.Warn("audit entry dropped", zap.String("action", entry.Action), zap.Error(err))
		return
	}
	s.metrics.RecordAudit("queued")
}

// Handle writes one queued entry.
func (s *AuditService) Handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(AuditEntry)
	if !ok {
		s.logger.Error("unexpected audit payload", zap.String("job_id", job.ID), zap.String("type", fmt.Sprintf("%T", job.Payload)))
		return nil
	}
	log, err := entry.toLog()
	if err != nil {
		s.logger.Error("encode audit payload", zap.String("job_id", job.ID), zap.Error(err))
		return nil
	}
	if err := s.store.Create(ctx, log); err != nil {
		s.metrics.RecordAudit("failed")
		return err
	}
	s.metrics.RecordAudit("written")
	return nil
}

func (e AuditEntry) toLog() (*models.AuditLog, error) {
	log := &models.AuditLog{
		Action:   e.Action,
		Resource: models.AuditResourceStudent,
	}
	if e.SessionID != "" {
		log.SessionID = &e.SessionID
	}
	if e.RequestID != "" {
		log.RequestID = &e.RequestID
	}
	if e.StudentID != 0 {
		id := strconv.FormatInt(e.StudentID, 10)
		log.ResourceID = &id
	}
	if e.Payload != nil {
		raw, err := json.Marshal(e.Payload)
		if err != nil {
			return nil, err
		}
		log.NewValues = raw
	}
	return log, nil
}
