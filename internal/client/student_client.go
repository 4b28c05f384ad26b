package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/student-console/internal/models"
	"github.com/noah-isme/student-console/pkg/config"
	appErrors "github.com/noah-isme/student-console/pkg/errors"
	"github.com/noah-isme/student-console/pkg/middleware/requestid"
)

// Operation labels used for logs and metrics.
const (
	OpList   = "list"
	OpGet    = "get"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 1 << 20

// CallObserver records backend call outcomes. Status is 0 for transport failures.
type CallObserver interface {
	ObserveBackendCall(op string, status int, duration time.Duration)
}

// StudentClient talks to the student REST backend.
type StudentClient struct {
	baseURL  string
	http     *http.Client
	logger   *zap.Logger
	observer CallObserver
}

// NewStudentClient constructs a client. A nil httpClient gets one honouring cfg.Timeout.
func NewStudentClient(cfg config.BackendConfig, httpClient *http.Client, observer CallObserver, logger *zap.Logger) *StudentClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentClient{baseURL: cfg.BaseURL, http: httpClient, logger: logger, observer: observer}
}

// List returns every student record.
func (c *StudentClient) List(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	if err := c.do(ctx, OpList, http.MethodGet, "/students", nil, &students); err != nil {
		return nil, err
	}
	if students == nil {
		students = []models.Student{}
	}
	return students, nil
}

// Get returns a single student.
func (c *StudentClient) Get(ctx context.Context, id int64) (*models.Student, error) {
	var student models.Student
	if err := c.do(ctx, OpGet, http.MethodGet, studentPath(id), nil, &student); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create registers a new student.
func (c *StudentClient) Create(ctx context.Context, payload models.StudentPayload) (*models.Student, error) {
	var student models.Student
	if err := c.do(ctx, OpCreate, http.MethodPost, "/students", payload, &student); err != nil {
		return nil, err
	}
	return &student, nil
}

// Update replaces an existing student.
func (c *StudentClient) Update(ctx context.Context, id int64, payload models.StudentPayload) (*models.Student, error) {
	var student models.Student
	if err := c.do(ctx, OpUpdate, http.MethodPut, studentPath(id), payload, &student); err != nil {
		return nil, err
	}
	return &student, nil
}

// Delete removes a student permanently.
func (c *StudentClient) Delete(ctx context.Context, id int64) error {
	var ack models.DeleteAck
	if err := c.do(ctx, OpDelete, http.MethodDelete, studentPath(id), nil, &ack); err != nil {
		return err
	}
	c.logger.Debug("student deleted", zap.Int64("id", id), zap.String("ack", ack.Message))
	return nil
}

func studentPath(id int64) string {
	return "/students/" + strconv.FormatInt(id, 10)
}

func (c *StudentClient) do(ctx context.Context, op, method, path string, body, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if reqID := requestid.FromContext(ctx); reqID != "" {
		req.Header.Set(requestid.Header, reqID)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(op, 0, time.Since(start))
		c.logger.Warn("backend call failed", zap.String("op", op), zap.String("path", path), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrBackendUnavailable.Code, appErrors.ErrBackendUnavailable.Status, appErrors.ErrBackendUnavailable.Message)
	}
	defer func() { _ = resp.Body.Close() }()
	c.observe(op, resp.StatusCode, time.Since(start))

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		mapped := mapError(resp.StatusCode, raw)
		c.logger.Info("backend rejected request",
			zap.String("op", op),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("code", mapped.Code),
			zap.String("message", mapped.Message),
		)
		return mapped
	}

	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		if err == io.EOF {
			return nil
		}
		return appErrors.Wrap(fmt.Errorf("decode %s response: %w", op, err), appErrors.ErrBackendUnavailable.Code, appErrors.ErrBackendUnavailable.Status, appErrors.ErrBackendUnavailable.Message)
	}
	return nil
}

func (c *StudentClient) observe(op string, status int, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveBackendCall(op, status, d)
	}
}
