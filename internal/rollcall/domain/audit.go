package domain

import (
	"encoding/json"
	"time"
)

type AuditKind string

const (
	AuditTagPrepared         AuditKind = "tag.prepared"
	AuditTagConfirmed        AuditKind = "tag.confirmed"
	AuditTagGenerated        AuditKind = "tag.generated"
	AuditAttendanceMarked    AuditKind = "attendance.marked"
	AuditAttendanceCorrected AuditKind = "attendance.corrected"
	AuditAttendanceDeleted   AuditKind = "attendance.deleted"
)

// AuditEvent is an append-only record of a tag write or attendance
// mutation. Payload is always a JSON object.
type AuditEvent struct {
	ID         string
	Kind       AuditKind
	ActorID    string
	SubjectID  string
	ResourceID string
	Payload    json.RawMessage
	CreatedAt  time.Time
}

type AuditFilter struct {
	SubjectID  string
	ResourceID string
	Kind       AuditKind
	Limit      int
}
