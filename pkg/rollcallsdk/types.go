package rollcallsdk

import "time"

// ============================================================================
// Common Response Types
// ============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	// Error is the machine-readable code, e.g. "already_marked"
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description"`

	// Field names the offending request field on validation errors
	Field string `json:"field,omitempty"`

	// NextAvailableDate is set on cooldown errors
	NextAvailableDate *time.Time `json:"next_available_date,omitempty"`
}

// SuccessResponse is returned by operations with nothing else to report.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the state of each dependency in /readyz.
type HealthChecks struct {
	Database string `json:"database"`
	Verifier string `json:"verifier"`
}

// ============================================================================
// Tag Types
// ============================================================================

// PrepareTagResponse is returned by POST /v1/tag/prepare. The caller writes
// TagID to the physical medium and then confirms PendingID before ExpiresAt.
type PrepareTagResponse struct {
	TagID     string    `json:"tag_id"`
	PendingID string    `json:"pending_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ConfirmTagRequest is the body of POST /v1/tag/confirm.
type ConfirmTagRequest struct {
	PendingID string `json:"pending_id"`
}

// TagWriteResponse is returned by confirm and generate.
type TagWriteResponse struct {
	Success       bool      `json:"success"`
	TagID         string    `json:"tag_id"`
	WriteRecordID string    `json:"write_record_id"`
	WrittenAt     time.Time `json:"written_at"`
}

// CanWriteResponse is returned by GET /v1/tag/can-write.
type CanWriteResponse struct {
	CanWrite          bool       `json:"can_write"`
	NextAvailableDate *time.Time `json:"next_available_date,omitempty"`
	CooldownDays      int        `json:"cooldown_days"`
}

// ============================================================================
// Attendance Types
// ============================================================================

// MarkAttendanceRequest is the body of POST /v1/attendance. Exactly one of
// UserID or TagID identifies the attendee.
type MarkAttendanceRequest struct {
	EventID    string   `json:"event_id"`
	UserID     string   `json:"user_id,omitempty"`
	TagID      string   `json:"tag_id,omitempty"`
	ScanMethod string   `json:"scan_method"`
	Latitude   *float64 `json:"location_lat,omitempty"`
	Longitude  *float64 `json:"location_lng,omitempty"`
	Notes      *string  `json:"notes,omitempty"`
	AsGuest    bool     `json:"as_guest,omitempty"`
}

// MarkAttendanceResponse is returned by POST /v1/attendance.
type MarkAttendanceResponse struct {
	Success      bool      `json:"success"`
	AttendanceID string    `json:"attendance_id"`
	MarkedAt     time.Time `json:"marked_at"`
	IsMember     bool      `json:"is_member"`
}

// UpdateAttendanceRequest is the body of PATCH /v1/attendance/{id}. Omitted
// fields are left unchanged; an empty Notes clears the notes.
type UpdateAttendanceRequest struct {
	ScanMethod    *string  `json:"scan_method,omitempty"`
	Latitude      *float64 `json:"location_lat,omitempty"`
	Longitude     *float64 `json:"location_lng,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
	ClearLocation bool     `json:"clear_location,omitempty"`
}

// AttendanceRecord is one attendee of an event.
type AttendanceRecord struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"`
	UserID     string    `json:"user_id"`
	MarkedAt   time.Time `json:"marked_at"`
	MarkedBy   string    `json:"marked_by"`
	ScanMethod string    `json:"scan_method"`
	Latitude   *float64  `json:"location_lat,omitempty"`
	Longitude  *float64  `json:"location_lng,omitempty"`
	Notes      *string   `json:"notes,omitempty"`
	IsMember   bool      `json:"is_member"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AttendanceSummary aggregates an event's attendance.
type AttendanceSummary struct {
	Total             int            `json:"total"`
	ByMethod          map[string]int `json:"by_method"`
	Members           int            `json:"members"`
	Guests            int            `json:"guests"`
	OrganizationSize  int            `json:"organization_size"`
	AttendancePercent float64        `json:"attendance_percent"`
}

// EventInfo describes the event an attendance list belongs to.
type EventInfo struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	Name           string     `json:"name,omitempty"`
	Start          *time.Time `json:"start,omitempty"`
	End            *time.Time `json:"end,omitempty"`
}

// EventAttendanceResponse is returned by GET /v1/attendance/event/{id}.
type EventAttendanceResponse struct {
	Event     EventInfo          `json:"event"`
	Summary   AttendanceSummary  `json:"summary"`
	Attendees []AttendanceRecord `json:"attendees"`
}

// ============================================================================
// Audit Types
// ============================================================================

// AuditEvent is one entry of the audit trail.
type AuditEvent struct {
	ID         string         `json:"id"`
	Kind       string         `json:"kind"`
	ActorID    string         `json:"actor_id"`
	SubjectID  string         `json:"subject_id,omitempty"`
	ResourceID string         `json:"resource_id,omitempty"`
	Payload    map[string]any `json:"payload"`
	CreatedAt  time.Time      `json:"created_at"`
}

// ListAuditResponse is returned by GET /v1/audit, newest first.
type ListAuditResponse struct {
	Events []AuditEvent `json:"events"`
}
