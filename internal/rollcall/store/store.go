package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Sub-repositories hang off it so a Tx-scoped store exposes
// exactly the same surface and nested transactions are refused by the driver.
type Store interface {
	Users() Users
	Tags() Tags
	Organizations() Organizations
	Events() Events
	Attendance() Attendance
	Audit() Audit

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// LockUser reads the user and holds a row lock until the surrounding
	// transaction ends. Outside a transaction it behaves like GetUserByID.
	LockUser(ctx context.Context, id string) (domain.User, error)

	// GetUserByActiveTag resolves a scanned tag to its current owner.
	GetUserByActiveTag(ctx context.Context, tagID string) (domain.User, error)

	// UpsertUser creates the user or refreshes its profile fields. Tag
	// columns are never touched.
	UpsertUser(ctx context.Context, u domain.User) error

	// EnsureUser inserts a bare row for an authenticated user seen for the
	// first time. Existing rows are left alone.
	EnsureUser(ctx context.Context, id string) error

	// SetActiveTag installs tagID as the user's active tag and stamps
	// last_tag_written_at = writtenAt, but only while the user's last write
	// is at or before threshold (or absent). Reports whether a row changed.
	SetActiveTag(ctx context.Context, userID, tagID string, writtenAt, threshold time.Time) (bool, error)
}

type Tags interface {
	// ReserveTag records tagID in the issued-tag registry. Returns
	// ErrAlreadyExists when the id was ever issued before.
	ReserveTag(ctx context.Context, t domain.IssuedTag) error

	CreatePending(ctx context.Context, p domain.PendingTagRequest) error
	GetPending(ctx context.Context, pendingID string) (domain.PendingTagRequest, error)

	// DeleteUnconfirmedPendingForUser supersedes every open request of the
	// user. Returns the number of rows removed.
	DeleteUnconfirmedPendingForUser(ctx context.Context, userID string) (int64, error)

	// ConfirmPending flips confirmed for an unconfirmed request of userID that
	// expires strictly after now. Reports whether this call won the flip.
	ConfirmPending(ctx context.Context, pendingID, userID string, now time.Time) (bool, error)

	CountOpenPendingForUser(ctx context.Context, userID string, now time.Time) (int, error)

	// DeleteExpiredPending is housekeeping for unconfirmed requests that
	// expired at or before now.
	DeleteExpiredPending(ctx context.Context, now time.Time) (int64, error)

	CreateWrite(ctx context.Context, w domain.TagWrite) error
	ListWritesForUser(ctx context.Context, userID string) ([]domain.TagWrite, error)
}

type Organizations interface {
	UpsertOrganization(ctx context.Context, o domain.Organization) error
	UpsertMembership(ctx context.Context, m domain.Membership) error
	GetMembership(ctx context.Context, userID, organizationID string) (domain.Membership, error)
	CountMembers(ctx context.Context, organizationID string) (int, error)
}

type Events interface {
	UpsertEvent(ctx context.Context, e domain.Event) error
	GetEventByID(ctx context.Context, id string) (domain.Event, error)
}

type Attendance interface {
	// CreateAttendance returns ErrAlreadyExists when (event_id, user_id) is
	// already recorded.
	CreateAttendance(ctx context.Context, a domain.AttendanceRecord) error
	GetAttendanceByID(ctx context.Context, id string) (domain.AttendanceRecord, error)
	GetAttendanceByEventAndUser(ctx context.Context, eventID, userID string) (domain.AttendanceRecord, error)

	// UpdateAttendance rewrites the mutable columns (scan method, location,
	// notes, updated_at).
	UpdateAttendance(ctx context.Context, a domain.AttendanceRecord) error
	DeleteAttendance(ctx context.Context, id string) error

	// ListAttendanceByEvent is ordered by marked_at, oldest first.
	ListAttendanceByEvent(ctx context.Context, eventID string) ([]domain.AttendanceRecord, error)
}

type Audit interface {
	AppendAuditEvent(ctx context.Context, e domain.AuditEvent) error

	// ListAuditEvents returns newest first.
	ListAuditEvents(ctx context.Context, f domain.AuditFilter) ([]domain.AuditEvent, error)
}
