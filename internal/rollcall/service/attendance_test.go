package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/stretchr/testify/require"
)

func markReq(event, user string, method domain.ScanMethod) MarkRequest {
	return MarkRequest{EventID: event, UserID: user, ScanMethod: string(method)}
}

func TestMarkAttendanceRoleMatrix(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		operator string
		wantErr  error
	}{
		{ownerID, nil},
		{adminID, nil},
		{takerID, nil},
		{member2ID, ErrForbidden},
		{outsiderID, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.operator, func(t *testing.T) {
			f := newFixture(t)

			res, err := f.attendance.MarkAttendance(ctx, tt.operator, markReq(eventID, memberID, domain.ScanNFC))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				_, err := f.store.Attendance().GetAttendanceByEventAndUser(ctx, eventID, memberID)
				require.Error(t, err, "nothing written on rejection")
				require.Empty(t, f.auditKinds(t, domain.AuditFilter{SubjectID: memberID}))
				return
			}

			require.NoError(t, err)
			require.NotEmpty(t, res.AttendanceID)
			require.Equal(t, t0, res.MarkedAt)
			require.True(t, res.IsMember)

			rec, err := f.store.Attendance().GetAttendanceByID(ctx, res.AttendanceID)
			require.NoError(t, err)
			require.Equal(t, tt.operator, rec.MarkedBy)
			require.Equal(t, domain.ScanNFC, rec.ScanMethod)
		})
	}
}

func TestMarkAttendanceSelfScan(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled by default", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.attendance.MarkAttendance(ctx, memberID, markReq(eventID, memberID, domain.ScanQR))
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("member may mark themselves when enabled", func(t *testing.T) {
		f := newFixture(t)
		f.attendance.AllowSelfScan = true

		res, err := f.attendance.MarkAttendance(ctx, memberID, markReq(eventID, memberID, domain.ScanQR))
		require.NoError(t, err)

		rec, err := f.store.Attendance().GetAttendanceByID(ctx, res.AttendanceID)
		require.NoError(t, err)
		require.Equal(t, memberID, rec.MarkedBy)

		_, err = f.attendance.MarkAttendance(ctx, memberID, markReq(eventID, memberID, domain.ScanQR))
		require.ErrorIs(t, err, ErrAlreadyMarked)
	})

	t.Run("still bound by the window", func(t *testing.T) {
		f := newFixture(t)
		f.attendance.AllowSelfScan = true
		f.clock.Set(eventEnd.Add(time.Minute))

		_, err := f.attendance.MarkAttendance(ctx, memberID, markReq(eventID, memberID, domain.ScanQR))
		require.ErrorIs(t, err, ErrOutsideWindow)
	})

	t.Run("does not cover other users", func(t *testing.T) {
		f := newFixture(t)
		f.attendance.AllowSelfScan = true

		_, err := f.attendance.MarkAttendance(ctx, memberID, markReq(eventID, member2ID, domain.ScanQR))
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("non-members cannot self-scan as guests", func(t *testing.T) {
		f := newFixture(t)
		f.attendance.AllowSelfScan = true

		req := markReq(eventID, outsiderID, domain.ScanQR)
		req.AsGuest = true
		_, err := f.attendance.MarkAttendance(ctx, outsiderID, req)
		require.ErrorIs(t, err, ErrForbidden)
	})
}

func TestMarkAttendanceWindow(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		event   string
		now     time.Time
		wantErr error
	}{
		{"before start", eventID, eventStart.Add(-time.Second), ErrOutsideWindow},
		{"at start", eventID, eventStart, nil},
		{"at end", eventID, eventEnd, nil},
		{"after end", eventID, eventEnd.Add(time.Second), ErrOutsideWindow},
		{"open event long before", openEventID, eventStart.Add(-365 * 24 * time.Hour), nil},
		{"open event long after", openEventID, eventEnd.Add(365 * 24 * time.Hour), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.clock.Set(tt.now)

			_, err := f.attendance.MarkAttendance(ctx, takerID, markReq(tt.event, memberID, domain.ScanNFC))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestMarkAttendanceGeolocation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		lat   float64
		lng   float64
		valid bool
	}{
		{"north pole", 90, 0, true},
		{"south pole", -90, 0, true},
		{"east antimeridian", 0, 180, true},
		{"west antimeridian", 0, -180, true},
		{"corner", -90, -180, true},
		{"lat 91", 91, 0, false},
		{"lat -91", -91, 0, false},
		{"lng 181", 0, 181, false},
		{"lng -181", 0, -181, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			req := markReq(eventID, memberID, domain.ScanNFC)
			req.Latitude = ptr(tt.lat)
			req.Longitude = ptr(tt.lng)

			res, err := f.attendance.MarkAttendance(ctx, takerID, req)
			if !tt.valid {
				require.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)

			rec, err := f.store.Attendance().GetAttendanceByID(ctx, res.AttendanceID)
			require.NoError(t, err)
			require.Equal(t, &domain.Location{Latitude: tt.lat, Longitude: tt.lng}, rec.Location)
		})
	}
}

func TestMarkAttendanceByTag(t *testing.T) {
	ctx := context.Background()

	tagReq := func(tagID string) MarkRequest {
		return MarkRequest{EventID: eventID, TagID: tagID, ScanMethod: string(domain.ScanNFC)}
	}

	t.Run("operator marks the tag owner", func(t *testing.T) {
		f := newFixture(t)
		written, err := f.tags.Generate(ctx, memberID)
		require.NoError(t, err)

		res, err := f.attendance.MarkAttendance(ctx, takerID, tagReq(written.TagID))
		require.NoError(t, err)
		require.Equal(t, memberID, res.UserID)

		rec, err := f.store.Attendance().GetAttendanceByID(ctx, res.AttendanceID)
		require.NoError(t, err)
		require.Equal(t, memberID, rec.UserID)

		events, err := f.audit.List(ctx, domain.AuditFilter{Kind: domain.AuditAttendanceMarked})
		require.NoError(t, err)
		require.Len(t, events, 1)
		require.Equal(t, memberID, events[0].SubjectID)
		require.Contains(t, string(events[0].Payload), written.TagID)
	})

	t.Run("operator sees unknown tags", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.attendance.MarkAttendance(ctx, takerID, tagReq("ZZZZ2345"))
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("member cannot tell unknown tags from foreign ones", func(t *testing.T) {
		f := newFixture(t)
		written, err := f.tags.Generate(ctx, member2ID)
		require.NoError(t, err)

		_, err = f.attendance.MarkAttendance(ctx, memberID, tagReq("ZZZZ2345"))
		require.ErrorIs(t, err, ErrForbidden)
		require.NotErrorIs(t, err, ErrNotFound)

		_, err = f.attendance.MarkAttendance(ctx, memberID, tagReq(written.TagID))
		require.ErrorIs(t, err, ErrForbidden)

		_, err = f.attendance.MarkAttendance(ctx, memberID, tagReq("--"))
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("self-scan by own tag", func(t *testing.T) {
		f := newFixture(t)
		f.attendance.AllowSelfScan = true
		written, err := f.tags.Generate(ctx, memberID)
		require.NoError(t, err)

		res, err := f.attendance.MarkAttendance(ctx, memberID, tagReq(written.TagID))
		require.NoError(t, err)
		require.Equal(t, memberID, res.UserID)
	})
}

func TestMarkAttendanceValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tests := []struct {
		name  string
		req   MarkRequest
		field string
	}{
		{"unknown scan method", markReq(eventID, memberID, "Bluetooth"), "scan_method"},
		{"missing scan method", markReq(eventID, memberID, ""), "scan_method"},
		{"missing event", markReq("", memberID, domain.ScanNFC), "event_id"},
		{"missing user", markReq(eventID, "", domain.ScanNFC), "user_id"},
		{"user and tag", MarkRequest{EventID: eventID, UserID: memberID, TagID: "ABCD2345", ScanMethod: "NFC"}, "tag_id"},
		{"lat without lng", MarkRequest{EventID: eventID, UserID: memberID, ScanMethod: "NFC", Latitude: ptr(10.0)}, "location_lng"},
		{"lng without lat", MarkRequest{EventID: eventID, UserID: memberID, ScanMethod: "NFC", Longitude: ptr(10.0)}, "location_lat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.attendance.MarkAttendance(ctx, takerID, tt.req)
			require.ErrorIs(t, err, ErrValidation)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			require.Equal(t, tt.field, ve.Field)
		})
	}

	t.Run("validation runs before the event lookup", func(t *testing.T) {
		_, err := f.attendance.MarkAttendance(ctx, takerID, markReq("no-such-event", memberID, "Bluetooth"))
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown event", func(t *testing.T) {
		_, err := f.attendance.MarkAttendance(ctx, takerID, markReq("no-such-event", memberID, domain.ScanNFC))
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("no caller", func(t *testing.T) {
		_, err := f.attendance.MarkAttendance(ctx, "", markReq(eventID, memberID, domain.ScanNFC))
		require.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestMarkAttendanceGuests(t *testing.T) {
	ctx := context.Background()

	t.Run("non-member without guest flag", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.attendance.MarkAttendance(ctx, takerID, markReq(eventID, outsiderID, domain.ScanManual))
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("explicit guest", func(t *testing.T) {
		f := newFixture(t)
		req := markReq(eventID, outsiderID, domain.ScanManual)
		req.AsGuest = true

		res, err := f.attendance.MarkAttendance(ctx, takerID, req)
		require.NoError(t, err)
		require.False(t, res.IsMember)
	})

	t.Run("guests disabled", func(t *testing.T) {
		f := newFixture(t)
		f.attendance.AllowGuests = false
		req := markReq(eventID, outsiderID, domain.ScanManual)
		req.AsGuest = true

		_, err := f.attendance.MarkAttendance(ctx, takerID, req)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("guest flag on a member records a member", func(t *testing.T) {
		f := newFixture(t)
		req := markReq(eventID, memberID, domain.ScanManual)
		req.AsGuest = true

		res, err := f.attendance.MarkAttendance(ctx, takerID, req)
		require.NoError(t, err)
		require.True(t, res.IsMember)
	})
}

func TestMarkAttendanceTwice(t *testing.T) {
	ctx := context.Background()

	t.Run("sequential", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.attendance.MarkAttendance(ctx, takerID, markReq(eventID, memberID, domain.ScanNFC))
		require.NoError(t, err)

		_, err = f.attendance.MarkAttendance(ctx, adminID, markReq(eventID, memberID, domain.ScanQR))
		require.ErrorIs(t, err, ErrAlreadyMarked)

		list, err := f.store.Attendance().ListAttendanceByEvent(ctx, eventID)
		require.NoError(t, err)
		require.Len(t, list, 1)
	})
}

func TestMarkDeleteRemarkScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.attendance.MarkAttendance(ctx, takerID, markReq(eventID, member2ID, domain.ScanQR))
	require.NoError(t, err)

	_, err = f.attendance.MarkAttendance(ctx, takerID, markReq(eventID, member2ID, domain.ScanQR))
	require.ErrorIs(t, err, ErrAlreadyMarked)

	require.NoError(t, f.attendance.DeleteAttendance(ctx, adminID, first.AttendanceID))

	f.clock.Advance(time.Minute)
	second, err := f.attendance.MarkAttendance(ctx, takerID, markReq(eventID, member2ID, domain.ScanQR))
	require.NoError(t, err)
	require.NotEqual(t, first.AttendanceID, second.AttendanceID)

	require.Equal(t,
		[]domain.AuditKind{domain.AuditAttendanceMarked, domain.AuditAttendanceDeleted, domain.AuditAttendanceMarked},
		f.auditKinds(t, domain.AuditFilter{SubjectID: member2ID}),
	)
}

func TestUpdateAttendance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	req := markReq(eventID, memberID, domain.ScanNFC)
	req.Latitude, req.Longitude = ptr(-33.86), ptr(151.21)
	req.Notes = ptr("front door")
	marked, err := f.attendance.MarkAttendance(ctx, takerID, req)
	require.NoError(t, err)

	t.Run("attendance takers cannot correct", func(t *testing.T) {
		_, err := f.attendance.UpdateAttendance(ctx, takerID, marked.AttendanceID, AttendancePatch{ScanMethod: ptr("Manual")})
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("admins in another organization cannot correct", func(t *testing.T) {
		_, err := f.attendance.UpdateAttendance(ctx, outsiderID, marked.AttendanceID, AttendancePatch{ScanMethod: ptr("Manual")})
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("invalid patch", func(t *testing.T) {
		_, err := f.attendance.UpdateAttendance(ctx, adminID, marked.AttendanceID, AttendancePatch{ScanMethod: ptr("Carrier pigeon")})
		require.ErrorIs(t, err, ErrValidation)

		_, err = f.attendance.UpdateAttendance(ctx, adminID, marked.AttendanceID, AttendancePatch{Latitude: ptr(90.5), Longitude: ptr(0.0)})
		require.ErrorIs(t, err, ErrValidation)

		_, err = f.attendance.UpdateAttendance(ctx, adminID, marked.AttendanceID, AttendancePatch{ClearLocation: true, Latitude: ptr(1.0)})
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("admin corrects method and notes", func(t *testing.T) {
		f.clock.Advance(10 * time.Minute)

		got, err := f.attendance.UpdateAttendance(ctx, adminID, marked.AttendanceID, AttendancePatch{
			ScanMethod: ptr("Manual"),
			Notes:      ptr("tag was unreadable"),
		})
		require.NoError(t, err)
		require.Equal(t, domain.ScanManual, got.ScanMethod)
		require.Equal(t, "tag was unreadable", *got.Notes)
		require.Equal(t, &domain.Location{Latitude: -33.86, Longitude: 151.21}, got.Location)
		require.Equal(t, eventID, got.EventID)
		require.Equal(t, memberID, got.UserID)
		require.Equal(t, t0, got.MarkedAt)
		require.Equal(t, f.clock.Now(), got.UpdatedAt)

		stored, err := f.store.Attendance().GetAttendanceByID(ctx, marked.AttendanceID)
		require.NoError(t, err)
		require.Equal(t, got, stored)
	})

	t.Run("owner clears location", func(t *testing.T) {
		got, err := f.attendance.UpdateAttendance(ctx, ownerID, marked.AttendanceID, AttendancePatch{ClearLocation: true, Notes: ptr("")})
		require.NoError(t, err)
		require.Nil(t, got.Location)
		require.Nil(t, got.Notes)
	})

	t.Run("audit keeps before and after", func(t *testing.T) {
		events, err := f.audit.List(ctx, domain.AuditFilter{ResourceID: marked.AttendanceID, Kind: domain.AuditAttendanceCorrected})
		require.NoError(t, err)
		require.Len(t, events, 2)
		require.Contains(t, string(events[1].Payload), `"before"`)
		require.Contains(t, string(events[1].Payload), `"scan_method":"NFC"`)
		require.Contains(t, string(events[1].Payload), `"scan_method":"Manual"`)
	})

	t.Run("missing record", func(t *testing.T) {
		_, err := f.attendance.UpdateAttendance(ctx, adminID, "missing", AttendancePatch{})
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestDeleteAttendance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	marked, err := f.attendance.MarkAttendance(ctx, takerID, markReq(eventID, memberID, domain.ScanNFC))
	require.NoError(t, err)

	require.ErrorIs(t, f.attendance.DeleteAttendance(ctx, takerID, marked.AttendanceID), ErrForbidden)
	require.ErrorIs(t, f.attendance.DeleteAttendance(ctx, memberID, marked.AttendanceID), ErrForbidden)
	require.ErrorIs(t, f.attendance.DeleteAttendance(ctx, "", marked.AttendanceID), ErrUnauthorized)

	require.NoError(t, f.attendance.DeleteAttendance(ctx, ownerID, marked.AttendanceID))
	require.ErrorIs(t, f.attendance.DeleteAttendance(ctx, ownerID, marked.AttendanceID), ErrNotFound)

	events, err := f.audit.List(ctx, domain.AuditFilter{Kind: domain.AuditAttendanceDeleted})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, ownerID, events[0].ActorID)
	require.Contains(t, string(events[0].Payload), `"deleted_by":"`+ownerID+`"`)
	require.Contains(t, string(events[0].Payload), marked.AttendanceID)
}

func TestGetEventAttendance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.attendance.MarkAttendance(ctx, takerID, markReq(eventID, memberID, domain.ScanNFC))
	require.NoError(t, err)
	_, err = f.attendance.MarkAttendance(ctx, takerID, markReq(eventID, member2ID, domain.ScanQR))
	require.NoError(t, err)
	guest := markReq(eventID, outsiderID, domain.ScanManual)
	guest.AsGuest = true
	_, err = f.attendance.MarkAttendance(ctx, takerID, guest)
	require.NoError(t, err)

	got, err := f.attendance.GetEventAttendance(ctx, eventID)
	require.NoError(t, err)
	require.Len(t, got.Records, 3)
	require.Equal(t, 3, got.Summary.Total)
	require.Equal(t, 2, got.Summary.Members)
	require.Equal(t, 1, got.Summary.Guests)
	require.Equal(t, 1, got.Summary.ByMethod[domain.ScanNFC])
	require.Equal(t, 1, got.Summary.ByMethod[domain.ScanQR])
	require.Equal(t, 1, got.Summary.ByMethod[domain.ScanManual])
	require.Equal(t, 5, got.Summary.OrganizationSize)
	require.InDelta(t, 40.0, got.Summary.AttendancePercent, 0.001)

	empty, err := f.attendance.GetEventAttendance(ctx, openEventID)
	require.NoError(t, err)
	require.NotNil(t, empty.Records)
	require.Zero(t, empty.Summary.Total)

	_, err = f.attendance.GetEventAttendance(ctx, "nope")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.attendance.GetEventAttendanceFor(ctx, memberID, eventID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.attendance.GetEventAttendanceFor(ctx, takerID, eventID)
	require.NoError(t, err)
}
