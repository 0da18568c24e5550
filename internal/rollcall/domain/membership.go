package domain

import "time"

type Organization struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

type Membership struct {
	UserID         string
	OrganizationID string
	Role           Role
	JoinedAt       time.Time
}
