package domain

import "time"

type User struct {
	ID               string
	DisplayName      string
	Email            string
	ActiveTagID      *string    // nil until the first successful write
	LastTagWrittenAt *time.Time // nil until the first successful write
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NextTagWriteAt returns the earliest instant a new tag may be written for
// the user. The zero time means "now".
func (u User) NextTagWriteAt(cooldown time.Duration) time.Time {
	if u.LastTagWrittenAt == nil {
		return time.Time{}
	}
	return u.LastTagWrittenAt.Add(cooldown)
}

// CanWriteTag reports whether the cooldown has elapsed at now. The boundary
// is inclusive: exactly last+cooldown is allowed.
func (u User) CanWriteTag(now time.Time, cooldown time.Duration) bool {
	if u.LastTagWrittenAt == nil {
		return true
	}
	return !now.Before(u.NextTagWriteAt(cooldown))
}
