package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/store"
)

// MembershipDirectory is the membership collaborator. GetRole returns
// ErrNotFound when the user has no membership in the organization.
type MembershipDirectory interface {
	GetRole(ctx context.Context, userID, organizationID string) (domain.Role, error)
	CountMembers(ctx context.Context, organizationID string) (int, error)
}

// EventDirectory is the event collaborator. GetEvent returns ErrNotFound for
// unknown events.
type EventDirectory interface {
	GetEvent(ctx context.Context, eventID string) (domain.Event, error)
}

// StoreDirectory serves both directories from the local store, which is fed
// by the seed file or an upstream sync.
type StoreDirectory struct {
	Store store.Store
}

func (d *StoreDirectory) GetRole(ctx context.Context, userID, organizationID string) (domain.Role, error) {
	m, err := d.Store.Organizations().GetMembership(ctx, userID, organizationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.RoleNone, ErrNotFound
		}
		return domain.RoleNone, fmt.Errorf("get membership: %w", err)
	}
	return m.Role, nil
}

func (d *StoreDirectory) CountMembers(ctx context.Context, organizationID string) (int, error) {
	n, err := d.Store.Organizations().CountMembers(ctx, organizationID)
	if err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return n, nil
}

func (d *StoreDirectory) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
	e, err := d.Store.Events().GetEventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Event{}, ErrNotFound
		}
		return domain.Event{}, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}
