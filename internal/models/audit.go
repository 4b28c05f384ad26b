package models

import (
	"encoding/json"
	"time"
)

// AuditAction constants represent mutations forwarded to the backend.
const (
	AuditActionStudentCreate = "STUDENT_CREATE"
	AuditActionStudentUpdate = "STUDENT_UPDATE"
	AuditActionStudentDelete = "STUDENT_DELETE"
)

// AuditResourceStudent names the audited resource.
const AuditResourceStudent = "students"

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string          `db:"id" json:"id"`
	SessionID  *string         `db:"session_id" json:"session_id,omitempty"`
	RequestID  *string         `db:"request_id" json:"request_id,omitempty"`
	Action     string          `db:"action" json:"action"`
	Resource   string          `db:"resource" json:"resource"`
	ResourceID *string         `db:"resource_id" json:"resource_id,omitempty"`
	NewValues  json.RawMessage `db:"new_values" json:"new_values,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
