package domain

import "time"

// Event is owned by an external collaborator and read-only here.
type Event struct {
	ID             string
	OrganizationID string
	Name           string
	Start          *time.Time
	End            *time.Time
	CreatedBy      string
}

// WindowContains reports whether attendance may be marked at now. An event
// without a window is unrestricted. Both bounds are inclusive and either
// may be open.
func (e Event) WindowContains(now time.Time) bool {
	if e.Start != nil && now.Before(*e.Start) {
		return false
	}
	if e.End != nil && now.After(*e.End) {
		return false
	}
	return true
}
