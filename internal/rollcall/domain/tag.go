package domain

import "time"

// PendingTagRequest is the first half of a two-phase tag write. It reserves
// a tag id that the client will try to write to a physical tag before
// confirming.
type PendingTagRequest struct {
	ID          string
	UserID      string
	TagID       string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	Confirmed   bool
	ConfirmedAt *time.Time
}

// Expired reports whether the request can no longer be confirmed at now.
// A request is confirmable strictly before ExpiresAt.
func (p PendingTagRequest) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// IssuedTag is a registry row for every tag id ever handed out. Ids are never
// reused.
type IssuedTag struct {
	TagID    string
	UserID   string
	IssuedAt time.Time
}

type TagWriteMethod string

const (
	TagWriteTwoPhase TagWriteMethod = "two_phase"
	TagWriteDirect   TagWriteMethod = "direct"
)

type TagWrite struct {
	ID        string
	UserID    string
	TagID     string
	Method    TagWriteMethod
	PendingID *string // set for two_phase writes only
	WrittenAt time.Time
}
