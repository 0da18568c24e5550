package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/stretchr/testify/require"
)

func TestPrepareConfirmScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	prepared, err := f.tags.Prepare(ctx, memberID)
	require.NoError(t, err)
	require.NotEmpty(t, prepared.TagID)
	require.NotEmpty(t, prepared.PendingID)
	require.Equal(t, t0.Add(5*time.Minute), prepared.ExpiresAt)

	// Prepare leaves the active tag alone.
	_, err = f.tags.ActiveTag(ctx, memberID)
	require.ErrorIs(t, err, ErrNotFound)

	f.clock.Advance(4 * time.Minute)
	confirmed, err := f.tags.Confirm(ctx, memberID, prepared.PendingID)
	require.NoError(t, err)
	require.Equal(t, prepared.TagID, confirmed.TagID)
	require.Equal(t, t0.Add(4*time.Minute), confirmed.WrittenAt)
	require.NotEmpty(t, confirmed.WriteRecordID)

	active, err := f.tags.ActiveTag(ctx, memberID)
	require.NoError(t, err)
	require.Equal(t, prepared.TagID, active)

	user, err := f.store.Users().GetUserByID(ctx, memberID)
	require.NoError(t, err)
	require.Equal(t, confirmed.WrittenAt, *user.LastTagWrittenAt)

	_, err = f.tags.Confirm(ctx, memberID, prepared.PendingID)
	require.ErrorIs(t, err, ErrAlreadyConfirmed)

	writes, err := f.store.Tags().ListWritesForUser(ctx, memberID)
	require.NoError(t, err)
	require.Len(t, writes, 1)
	require.Equal(t, domain.TagWriteTwoPhase, writes[0].Method)
	require.Equal(t, prepared.PendingID, *writes[0].PendingID)

	require.Equal(t,
		[]domain.AuditKind{domain.AuditTagConfirmed, domain.AuditTagPrepared},
		f.auditKinds(t, domain.AuditFilter{SubjectID: memberID}),
	)
}

func TestPrepareSupersedesOpenRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.tags.Prepare(ctx, memberID)
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	second, err := f.tags.Prepare(ctx, memberID)
	require.NoError(t, err)
	require.NotEqual(t, first.TagID, second.TagID)

	open, err := f.store.Tags().CountOpenPendingForUser(ctx, memberID, f.clock.Now())
	require.NoError(t, err)
	require.Equal(t, 1, open)

	_, err = f.tags.Confirm(ctx, memberID, first.PendingID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.tags.Confirm(ctx, memberID, second.PendingID)
	require.NoError(t, err)
}

func TestConfirmExpired(t *testing.T) {
	ctx := context.Background()

	for _, after := range []time.Duration{5 * time.Minute, 5*time.Minute + time.Second, time.Hour} {
		t.Run(after.String(), func(t *testing.T) {
			f := newFixture(t)

			prepared, err := f.tags.Prepare(ctx, memberID)
			require.NoError(t, err)

			f.clock.Advance(after)
			_, err = f.tags.Confirm(ctx, memberID, prepared.PendingID)
			require.ErrorIs(t, err, ErrExpired)

			user, err := f.store.Users().GetUserByID(ctx, memberID)
			require.NoError(t, err)
			require.Nil(t, user.ActiveTagID)
			require.Nil(t, user.LastTagWrittenAt)
		})
	}

	t.Run("one millisecond before expiry", func(t *testing.T) {
		f := newFixture(t)

		prepared, err := f.tags.Prepare(ctx, memberID)
		require.NoError(t, err)

		f.clock.Set(prepared.ExpiresAt.Add(-time.Millisecond))
		_, err = f.tags.Confirm(ctx, memberID, prepared.PendingID)
		require.NoError(t, err)
	})
}

func TestConfirmNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	prepared, err := f.tags.Prepare(ctx, memberID)
	require.NoError(t, err)

	_, err = f.tags.Confirm(ctx, member2ID, prepared.PendingID)
	require.ErrorIs(t, err, ErrNotFound, "foreign pending ids look missing")

	_, err = f.tags.Confirm(ctx, memberID, "01JUNKNOWNPENDING000000000")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.tags.Confirm(ctx, memberID, "")
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.tags.Confirm(ctx, "", prepared.PendingID)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestCooldownBoundary(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		offset time.Duration
		allow  bool
	}{
		{"one second early", DefaultTagCooldown - time.Second, false},
		{"exactly at cooldown", DefaultTagCooldown, true},
		{"one second late", DefaultTagCooldown + time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			first, err := f.tags.Generate(ctx, memberID)
			require.NoError(t, err)

			f.clock.Set(first.WrittenAt.Add(tt.offset))

			_, prepErr := f.tags.Prepare(ctx, memberID)
			_, genErr := f.tags.Generate(ctx, memberID)

			if !tt.allow {
				for _, err := range []error{prepErr, genErr} {
					require.ErrorIs(t, err, ErrCooldown)
					var cd *CooldownError
					require.True(t, errors.As(err, &cd))
					require.Equal(t, first.WrittenAt.Add(DefaultTagCooldown), cd.NextAvailableAt)
				}

				res, err := f.tags.CanWrite(ctx, memberID)
				require.NoError(t, err)
				require.False(t, res.CanWrite)
				require.Equal(t, first.WrittenAt.Add(DefaultTagCooldown), *res.NextAvailableAt)
				return
			}

			require.NoError(t, prepErr)
			require.NoError(t, genErr)
		})
	}
}

func TestConfirmRechecksCooldown(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	prepared, err := f.tags.Prepare(ctx, memberID)
	require.NoError(t, err)

	// Another write lands between prepare and confirm.
	require.NoError(t, f.store.Tags().ReserveTag(ctx, domain.IssuedTag{TagID: "RACE", UserID: memberID, IssuedAt: t0}))
	ok, err := f.store.Users().SetActiveTag(ctx, memberID, "RACE", t0, t0)
	require.NoError(t, err)
	require.True(t, ok)

	f.clock.Advance(time.Minute)
	_, err = f.tags.Confirm(ctx, memberID, prepared.PendingID)
	require.ErrorIs(t, err, ErrCooldown)

	active, err := f.tags.ActiveTag(ctx, memberID)
	require.NoError(t, err)
	require.Equal(t, "RACE", active)

	p, err := f.store.Tags().GetPending(ctx, prepared.PendingID)
	require.NoError(t, err)
	require.False(t, p.Confirmed, "rolled back with the rest of the transaction")
}

func TestGenerateCollisionRetry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	codes := []string{"DUPLICATE001", "DUPLICATE001", "DUPLICATE001", "FRESHCODE002"}
	var calls int
	f.tags.NewCode = func(int) (string, error) {
		code := codes[calls%len(codes)]
		calls++
		return code, nil
	}

	first, err := f.tags.Generate(ctx, memberID)
	require.NoError(t, err)
	require.Equal(t, "DUPLICATE001", first.TagID)

	second, err := f.tags.Generate(ctx, member2ID)
	require.NoError(t, err)
	require.Equal(t, "FRESHCODE002", second.TagID)
	require.Equal(t, 4, calls)
}

func TestGenerateGivesUpAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var calls int
	f.tags.MaxAttempts = 3
	f.tags.NewCode = func(int) (string, error) {
		calls++
		return "ALWAYSTHESAME", nil
	}

	_, err := f.tags.Generate(ctx, memberID)
	require.NoError(t, err)

	calls = 0
	_, err = f.tags.Generate(ctx, member2ID)
	require.ErrorIs(t, err, ErrGenerationFailed)
	require.Equal(t, 3, calls)

	_, err = f.tags.Prepare(ctx, member2ID)
	require.ErrorIs(t, err, ErrGenerationFailed)

	user, err := f.store.Users().GetUserByID(ctx, member2ID)
	require.NoError(t, err)
	require.Nil(t, user.ActiveTagID)
}

func TestGenerateSupersedesPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	prepared, err := f.tags.Prepare(ctx, memberID)
	require.NoError(t, err)

	generated, err := f.tags.Generate(ctx, memberID)
	require.NoError(t, err)
	require.NotEqual(t, prepared.TagID, generated.TagID)

	_, err = f.tags.Confirm(ctx, memberID, prepared.PendingID)
	require.ErrorIs(t, err, ErrNotFound)

	writes, err := f.store.Tags().ListWritesForUser(ctx, memberID)
	require.NoError(t, err)
	require.Len(t, writes, 1)
	require.Equal(t, domain.TagWriteDirect, writes[0].Method)
	require.Nil(t, writes[0].PendingID)
}

func TestTagIdsAreNeverReused(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	seen := make(map[string]bool)
	for i := range 10 {
		user := fmt.Sprintf("bulk-%d", i)
		res, err := f.tags.Generate(ctx, user)
		require.NoError(t, err)
		require.False(t, seen[res.TagID])
		seen[res.TagID] = true
		require.Len(t, res.TagID, DefaultTagCodeLength)
	}
}

func TestCanWrite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.tags.CanWrite(ctx, "never-seen")
	require.NoError(t, err)
	require.True(t, res.CanWrite)
	require.Nil(t, res.NextAvailableAt)
	require.Equal(t, DefaultTagCooldown, res.Cooldown)
	require.Equal(t, 30, f.tags.CooldownDays())

	_, err = f.tags.Generate(ctx, memberID)
	require.NoError(t, err)

	res, err = f.tags.CanWrite(ctx, memberID)
	require.NoError(t, err)
	require.False(t, res.CanWrite)

	_, err = f.tags.CanWrite(ctx, "")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestResolveTag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.tags.Generate(ctx, memberID)
	require.NoError(t, err)

	userID, err := f.tags.ResolveTag(ctx, res.TagID)
	require.NoError(t, err)
	require.Equal(t, memberID, userID)

	_, err = f.tags.ResolveTag(ctx, "ZZZZZZZZZZZZ")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.tags.ResolveTag(ctx, " - ")
	require.ErrorIs(t, err, ErrValidation)
}

func TestCooldownDaysRoundsUp(t *testing.T) {
	s := &TagService{Cooldown: 36 * time.Hour}
	require.Equal(t, 2, s.CooldownDays())
}
