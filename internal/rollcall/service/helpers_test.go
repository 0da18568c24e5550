package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/store"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/store/drivers/sqlite"
	"github.com/aussiebroadwan/rollcall/pkg/clockx"
	"github.com/stretchr/testify/require"
)

const (
	orgID       = "club"
	otherOrgID  = "other-club"
	eventID     = "evt-window"
	openEventID = "evt-open"

	ownerID    = "u-owner"
	adminID    = "u-admin"
	takerID    = "u-taker"
	memberID   = "u-member"
	member2ID  = "u-member-2"
	outsiderID = "u-outsider"
)

var (
	eventStart = time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	eventEnd   = time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)

	// t0 sits inside the event window.
	t0 = eventStart.Add(30 * time.Minute)
)

type fixture struct {
	store      store.Store
	clock      *clockx.FakeClock
	audit      *AuditTrail
	gate       *AuthorizationGate
	tags       *TagService
	attendance *AttendanceService
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	s, err := sqlite.NewStore(sqlite.DSN(filepath.Join(t.TempDir(), "rollcall.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func testSeed() Seed {
	start, end := eventStart, eventEnd
	return Seed{
		Users: []SeedUser{
			{ID: ownerID}, {ID: adminID}, {ID: takerID}, {ID: memberID}, {ID: member2ID}, {ID: outsiderID},
		},
		Organizations: []SeedOrganization{
			{
				ID: orgID,
				Members: []SeedMember{
					{UserID: ownerID, Role: domain.RoleOwner},
					{UserID: adminID, Role: domain.RoleAdmin},
					{UserID: takerID, Role: domain.RoleAttendanceTaker},
					{UserID: memberID, Role: domain.RoleMember},
					{UserID: member2ID, Role: domain.RoleMember},
				},
			},
			{
				ID:      otherOrgID,
				Members: []SeedMember{{UserID: outsiderID, Role: domain.RoleOwner}},
			},
		},
		Events: []SeedEvent{
			{ID: eventID, OrganizationID: orgID, Start: &start, End: &end},
			{ID: openEventID, OrganizationID: orgID},
		},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, newTestStore(t))
}

// newFixtureWithStore seeds s and wires the services around it.
func newFixtureWithStore(t *testing.T, s store.Store) *fixture {
	t.Helper()

	require.NoError(t, ApplySeed(context.Background(), s, testSeed()))

	clock := clockx.Fake(t0)
	audit := &AuditTrail{Store: s, Clock: clock}
	dir := &StoreDirectory{Store: s}
	gate := &AuthorizationGate{Members: dir}
	tags := &TagService{
		Store: s,
		Audit: audit,
		Clock: clock,
	}

	return &fixture{
		store: s,
		clock: clock,
		audit: audit,
		gate:  gate,
		tags:  tags,
		attendance: &AttendanceService{
			Store:       s,
			Gate:        gate,
			Events:      dir,
			Members:     dir,
			Audit:       audit,
			Clock:       clock,
			Tags:        tags,
			AllowGuests: true,
		},
	}
}

func (f *fixture) auditKinds(t *testing.T, filter domain.AuditFilter) []domain.AuditKind {
	t.Helper()

	events, err := f.audit.List(context.Background(), filter)
	require.NoError(t, err)

	kinds := make([]domain.AuditKind, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func ptr[T any](v T) *T { return &v }
