// Package storetest holds behaviour every store driver must share. Driver
// packages run it against their own backend.
package storetest

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/store"
	"github.com/stretchr/testify/require"
)

// Factory returns a migrated, empty store. It owns cleanup.
type Factory func(t *testing.T) store.Store

// Run exercises every repository against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore) })
	t.Run("tags", func(t *testing.T) { testTags(t, newStore) })
	t.Run("organizations and events", func(t *testing.T) { testOrganizationsAndEvents(t, newStore) })
	t.Run("attendance", func(t *testing.T) { testAttendance(t, newStore) })
	t.Run("attendance concurrent insert", func(t *testing.T) { testAttendanceConcurrentInsert(t, newStore) })
	t.Run("audit", func(t *testing.T) { testAudit(t, newStore) })
	t.Run("with tx rolls back", func(t *testing.T) { testWithTxRollsBack(t, newStore) })
}

func seedUser(t *testing.T, s store.Store, id string) {
	t.Helper()
	require.NoError(t, s.Users().UpsertUser(context.Background(), domain.User{ID: id, DisplayName: id}))
}

var base = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func testUsers(t *testing.T, newStore Factory) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Users().GetUserByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Users().LockUser(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Users().UpsertUser(ctx, domain.User{ID: "u1", DisplayName: "Ada", Email: "ada@example.com"}))
	require.NoError(t, s.Users().EnsureUser(ctx, "u1"))

	u, err := s.Users().GetUserByID(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "Ada", u.DisplayName)
	require.Nil(t, u.ActiveTagID)
	require.Nil(t, u.LastTagWrittenAt)

	t.Run("lock user inside a transaction", func(t *testing.T) {
		err := s.WithTx(ctx, func(tx store.Tx) error {
			locked, err := tx.Users().LockUser(ctx, "u1")
			require.NoError(t, err)
			require.Equal(t, "Ada", locked.DisplayName)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("set active tag respects the threshold", func(t *testing.T) {
		require.NoError(t, s.Tags().ReserveTag(ctx, domain.IssuedTag{TagID: "TAG1", UserID: "u1", IssuedAt: base}))
		require.NoError(t, s.Tags().ReserveTag(ctx, domain.IssuedTag{TagID: "TAG2", UserID: "u1", IssuedAt: base}))

		ok, err := s.Users().SetActiveTag(ctx, "u1", "TAG1", base, base.Add(-time.Hour))
		require.NoError(t, err)
		require.True(t, ok, "first write has no prior timestamp")

		// Threshold one millisecond before the last write: refused.
		ok, err = s.Users().SetActiveTag(ctx, "u1", "TAG2", base.Add(time.Hour), base.Add(-time.Millisecond))
		require.NoError(t, err)
		require.False(t, ok)

		// Threshold equal to the last write: allowed.
		ok, err = s.Users().SetActiveTag(ctx, "u1", "TAG2", base.Add(time.Hour), base)
		require.NoError(t, err)
		require.True(t, ok)

		got, err := s.Users().GetUserByActiveTag(ctx, "TAG2")
		require.NoError(t, err)
		require.Equal(t, "u1", got.ID)
		require.Equal(t, base.Add(time.Hour), *got.LastTagWrittenAt)

		_, err = s.Users().GetUserByActiveTag(ctx, "TAG1")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func testTags(t *testing.T, newStore Factory) {
	ctx := context.Background()
	s := newStore(t)
	seedUser(t, s, "u1")
	seedUser(t, s, "u2")

	t.Run("reserve is unique forever", func(t *testing.T) {
		require.NoError(t, s.Tags().ReserveTag(ctx, domain.IssuedTag{TagID: "AAAA", UserID: "u1", IssuedAt: base}))
		err := s.Tags().ReserveTag(ctx, domain.IssuedTag{TagID: "AAAA", UserID: "u2", IssuedAt: base})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	pending := domain.PendingTagRequest{
		ID:        "p1",
		UserID:    "u1",
		TagID:     "AAAA",
		CreatedAt: base,
		ExpiresAt: base.Add(5 * time.Minute),
	}
	require.NoError(t, s.Tags().CreatePending(ctx, pending))

	t.Run("get pending", func(t *testing.T) {
		got, err := s.Tags().GetPending(ctx, "p1")
		require.NoError(t, err)
		require.Equal(t, pending.ExpiresAt, got.ExpiresAt)
		require.False(t, got.Confirmed)

		_, err = s.Tags().GetPending(ctx, "nope")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("open pending count honours expiry", func(t *testing.T) {
		n, err := s.Tags().CountOpenPendingForUser(ctx, "u1", base)
		require.NoError(t, err)
		require.Equal(t, 1, n)

		n, err = s.Tags().CountOpenPendingForUser(ctx, "u1", pending.ExpiresAt)
		require.NoError(t, err)
		require.Zero(t, n)
	})

	t.Run("confirm is conditional", func(t *testing.T) {
		ok, err := s.Tags().ConfirmPending(ctx, "p1", "u2", base)
		require.NoError(t, err)
		require.False(t, ok, "foreign user")

		ok, err = s.Tags().ConfirmPending(ctx, "p1", "u1", pending.ExpiresAt)
		require.NoError(t, err)
		require.False(t, ok, "at expiry")

		ok, err = s.Tags().ConfirmPending(ctx, "p1", "u1", base.Add(time.Minute))
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = s.Tags().ConfirmPending(ctx, "p1", "u1", base.Add(time.Minute))
		require.NoError(t, err)
		require.False(t, ok, "already confirmed")

		got, err := s.Tags().GetPending(ctx, "p1")
		require.NoError(t, err)
		require.True(t, got.Confirmed)
		require.Equal(t, base.Add(time.Minute), *got.ConfirmedAt)
	})

	t.Run("supersede and housekeeping skip confirmed rows", func(t *testing.T) {
		require.NoError(t, s.Tags().ReserveTag(ctx, domain.IssuedTag{TagID: "BBBB", UserID: "u1", IssuedAt: base}))
		require.NoError(t, s.Tags().CreatePending(ctx, domain.PendingTagRequest{
			ID: "p2", UserID: "u1", TagID: "BBBB", CreatedAt: base, ExpiresAt: base.Add(5 * time.Minute),
		}))

		require.NoError(t, s.Tags().ReserveTag(ctx, domain.IssuedTag{TagID: "DDDD", UserID: "u1", IssuedAt: base}))
		err := s.Tags().CreatePending(ctx, domain.PendingTagRequest{
			ID: "p2b", UserID: "u1", TagID: "DDDD", CreatedAt: base, ExpiresAt: base.Add(5 * time.Minute),
		})
		require.ErrorIs(t, err, store.ErrAlreadyExists, "one open request per user")

		n, err := s.Tags().DeleteUnconfirmedPendingForUser(ctx, "u1")
		require.NoError(t, err)
		require.EqualValues(t, 1, n)

		require.NoError(t, s.Tags().ReserveTag(ctx, domain.IssuedTag{TagID: "CCCC", UserID: "u2", IssuedAt: base}))
		require.NoError(t, s.Tags().CreatePending(ctx, domain.PendingTagRequest{
			ID: "p3", UserID: "u2", TagID: "CCCC", CreatedAt: base, ExpiresAt: base.Add(5 * time.Minute),
		}))

		n, err = s.Tags().DeleteExpiredPending(ctx, base.Add(5*time.Minute))
		require.NoError(t, err)
		require.EqualValues(t, 1, n)

		_, err = s.Tags().GetPending(ctx, "p1")
		require.NoError(t, err, "confirmed rows are history")
	})

	t.Run("writes", func(t *testing.T) {
		pid := "p1"
		require.NoError(t, s.Tags().CreateWrite(ctx, domain.TagWrite{
			ID: "w1", UserID: "u1", TagID: "AAAA", Method: domain.TagWriteTwoPhase, PendingID: &pid, WrittenAt: base,
		}))

		writes, err := s.Tags().ListWritesForUser(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, writes, 1)
		require.Equal(t, domain.TagWriteTwoPhase, writes[0].Method)
		require.Equal(t, "p1", *writes[0].PendingID)
	})
}

func testOrganizationsAndEvents(t *testing.T, newStore Factory) {
	ctx := context.Background()
	s := newStore(t)
	seedUser(t, s, "u1")
	seedUser(t, s, "u2")

	require.NoError(t, s.Organizations().UpsertOrganization(ctx, domain.Organization{ID: "o1", Name: "Club", CreatedAt: base}))
	require.NoError(t, s.Organizations().UpsertMembership(ctx, domain.Membership{UserID: "u1", OrganizationID: "o1", Role: domain.RoleMember, JoinedAt: base}))
	require.NoError(t, s.Organizations().UpsertMembership(ctx, domain.Membership{UserID: "u1", OrganizationID: "o1", Role: domain.RoleAdmin, JoinedAt: base}))
	require.Error(t, s.Organizations().UpsertMembership(ctx, domain.Membership{UserID: "u2", OrganizationID: "o1"}))

	m, err := s.Organizations().GetMembership(ctx, "u1", "o1")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, m.Role)

	_, err = s.Organizations().GetMembership(ctx, "u2", "o1")
	require.ErrorIs(t, err, store.ErrNotFound)

	n, err := s.Organizations().CountMembers(ctx, "o1")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	end := base.Add(2 * time.Hour)
	require.NoError(t, s.Events().UpsertEvent(ctx, domain.Event{ID: "e1", OrganizationID: "o1", Name: "Training", Start: &base, End: &end}))

	e, err := s.Events().GetEventByID(ctx, "e1")
	require.NoError(t, err)
	require.Equal(t, base, *e.Start)
	require.Equal(t, end, *e.End)

	_, err = s.Events().GetEventByID(ctx, "e2")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func seedEvent(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()
	seedUser(t, s, "u1")
	seedUser(t, s, "u2")
	require.NoError(t, s.Organizations().UpsertOrganization(ctx, domain.Organization{ID: "o1", CreatedAt: base}))
	require.NoError(t, s.Events().UpsertEvent(ctx, domain.Event{ID: "e1", OrganizationID: "o1"}))
}

func testAttendance(t *testing.T, newStore Factory) {
	ctx := context.Background()
	s := newStore(t)
	seedEvent(t, s)

	notes := "late"
	rec := domain.AttendanceRecord{
		ID:         "a1",
		EventID:    "e1",
		UserID:     "u1",
		MarkedAt:   base,
		MarkedBy:   "u2",
		ScanMethod: domain.ScanNFC,
		Location:   &domain.Location{Latitude: -90, Longitude: 180},
		Notes:      &notes,
		IsMember:   true,
		UpdatedAt:  base,
	}
	require.NoError(t, s.Attendance().CreateAttendance(ctx, rec))

	t.Run("duplicate pair", func(t *testing.T) {
		dup := rec
		dup.ID = "a2"
		require.ErrorIs(t, s.Attendance().CreateAttendance(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("read back", func(t *testing.T) {
		got, err := s.Attendance().GetAttendanceByEventAndUser(ctx, "e1", "u1")
		require.NoError(t, err)
		require.Equal(t, rec, got)
	})

	t.Run("update", func(t *testing.T) {
		upd := rec
		upd.ScanMethod = domain.ScanManual
		upd.Location = nil
		upd.Notes = nil
		upd.UpdatedAt = base.Add(time.Minute)
		require.NoError(t, s.Attendance().UpdateAttendance(ctx, upd))

		got, err := s.Attendance().GetAttendanceByID(ctx, "a1")
		require.NoError(t, err)
		require.Equal(t, domain.ScanManual, got.ScanMethod)
		require.Nil(t, got.Location)
		require.Nil(t, got.Notes)
		require.Equal(t, base, got.MarkedAt)

		missing := upd
		missing.ID = "zzz"
		require.ErrorIs(t, s.Attendance().UpdateAttendance(ctx, missing), store.ErrNotFound)
	})

	t.Run("list and delete", func(t *testing.T) {
		require.NoError(t, s.Attendance().CreateAttendance(ctx, domain.AttendanceRecord{
			ID: "a3", EventID: "e1", UserID: "u2", MarkedAt: base.Add(time.Second), MarkedBy: "u2",
			ScanMethod: domain.ScanQR, UpdatedAt: base,
		}))

		list, err := s.Attendance().ListAttendanceByEvent(ctx, "e1")
		require.NoError(t, err)
		require.Len(t, list, 2)
		require.Equal(t, "a1", list[0].ID)
		require.False(t, list[1].IsMember)

		require.NoError(t, s.Attendance().DeleteAttendance(ctx, "a1"))
		require.ErrorIs(t, s.Attendance().DeleteAttendance(ctx, "a1"), store.ErrNotFound)
	})
}

func testAttendanceConcurrentInsert(t *testing.T, newStore Factory) {
	ctx := context.Background()
	s := newStore(t)
	seedEvent(t, s)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.WithTx(ctx, func(tx store.Tx) error {
				return tx.Attendance().CreateAttendance(ctx, domain.AttendanceRecord{
					ID: "a" + string(rune('a'+i)), EventID: "e1", UserID: "u1", MarkedAt: base,
					MarkedBy: "u2", ScanMethod: domain.ScanNFC, IsMember: true, UpdatedAt: base,
				})
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, store.ErrAlreadyExists):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, successes)
	require.Equal(t, workers-1, conflicts)
}

func testAudit(t *testing.T, newStore Factory) {
	ctx := context.Background()
	s := newStore(t)

	for i, kind := range []domain.AuditKind{domain.AuditTagPrepared, domain.AuditTagConfirmed, domain.AuditAttendanceMarked} {
		require.NoError(t, s.Audit().AppendAuditEvent(ctx, domain.AuditEvent{
			ID:         "ev" + string(rune('0'+i)),
			Kind:       kind,
			ActorID:    "u1",
			SubjectID:  "u1",
			ResourceID: "r1",
			Payload:    []byte(`{"n":1}`),
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, s.Audit().AppendAuditEvent(ctx, domain.AuditEvent{
		ID: "other", Kind: domain.AuditTagGenerated, ActorID: "u2", SubjectID: "u2", ResourceID: "r2", CreatedAt: base,
	}))

	got, err := s.Audit().ListAuditEvents(ctx, domain.AuditFilter{SubjectID: "u1"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, domain.AuditAttendanceMarked, got[0].Kind, "newest first")
	require.JSONEq(t, `{"n":1}`, string(got[0].Payload))

	got, err = s.Audit().ListAuditEvents(ctx, domain.AuditFilter{SubjectID: "u1", Kind: domain.AuditTagPrepared})
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = s.Audit().ListAuditEvents(ctx, domain.AuditFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)

	got, err = s.Audit().ListAuditEvents(ctx, domain.AuditFilter{ResourceID: "r2"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.JSONEq(t, `{}`, string(got[0].Payload))
}

func testWithTxRollsBack(t *testing.T, newStore Factory) {
	ctx := context.Background()
	s := newStore(t)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Users().UpsertUser(ctx, domain.User{ID: "ghost"}))
		require.ErrorIs(t, tx.WithTx(ctx, func(store.Tx) error { return nil }), sql.ErrTxDone)
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Users().GetUserByID(ctx, "ghost")
	require.ErrorIs(t, err, store.ErrNotFound)
}
