package rollcall_test

import (
	"sync"
	"testing"

	"github.com/aussiebroadwan/rollcall/pkg/rollcallsdk"
	"github.com/stretchr/testify/require"
)

func TestAttendanceMarkDeleteRemark(t *testing.T) {
	baseURL, cleanup := setupRollcallContainer(t, nil)
	defer cleanup()

	client := rollcallsdk.NewSDKClient(baseURL)
	taker := sessionFor(t, client, takerID)
	owner := sessionFor(t, client, ownerID)
	ctx := t.Context()

	tag, err := sessionFor(t, client, memberID).GenerateTag(ctx)
	require.NoError(t, err)

	// A door station scans the member's tag.
	marked, err := taker.MarkAttendance(ctx, rollcallsdk.MarkAttendanceRequest{
		EventID:    openEventID,
		TagID:      tag.TagID,
		ScanMethod: "NFC",
		Latitude:   ptr(-33.8688),
		Longitude:  ptr(151.2093),
	})
	require.NoError(t, err)
	require.True(t, marked.IsMember)

	_, err = taker.MarkAttendance(ctx, rollcallsdk.MarkAttendanceRequest{
		EventID:    openEventID,
		UserID:     memberID,
		ScanMethod: "QR",
	})
	assertAPIError(t, err, 409, rollcallsdk.ErrorCodeAlreadyMarked)

	// Takers may not remove records, owners may.
	err = taker.DeleteAttendance(ctx, marked.AttendanceID)
	assertAPIError(t, err, 403, rollcallsdk.ErrorCodeForbidden)
	require.NoError(t, owner.DeleteAttendance(ctx, marked.AttendanceID))

	remarked, err := taker.MarkAttendance(ctx, rollcallsdk.MarkAttendanceRequest{
		EventID:    openEventID,
		UserID:     memberID,
		ScanMethod: "Manual",
		Notes:      ptr("forgot tag"),
	})
	require.NoError(t, err)
	require.NotEqual(t, marked.AttendanceID, remarked.AttendanceID)

	corrected, err := owner.UpdateAttendance(ctx, remarked.AttendanceID, rollcallsdk.UpdateAttendanceRequest{
		ScanMethod: ptr("QR"),
	})
	require.NoError(t, err)
	require.Equal(t, "QR", corrected.ScanMethod)
	require.Equal(t, takerID, corrected.MarkedBy)

	event, err := taker.GetEventAttendance(ctx, openEventID)
	require.NoError(t, err)
	require.Equal(t, 1, event.Summary.Total)
	require.Equal(t, 1, event.Summary.ByMethod["QR"])
	require.Equal(t, 3, event.Summary.OrganizationSize)

	audit, err := sessionFor(t, client, memberID, "audit:read").ListAudit(ctx, "", 20)
	require.NoError(t, err)
	kinds := make([]string, 0, len(audit.Events))
	for _, e := range audit.Events {
		kinds = append(kinds, e.Kind)
	}
	require.Equal(t, []string{
		"attendance.corrected",
		"attendance.marked",
		"attendance.deleted",
		"attendance.marked",
		"tag.generated",
	}, kinds)
}

func TestAttendanceRules(t *testing.T) {
	baseURL, cleanup := setupRollcallContainer(t, nil)
	defer cleanup()

	client := rollcallsdk.NewSDKClient(baseURL)
	taker := sessionFor(t, client, takerID)
	ctx := t.Context()

	t.Run("members cannot take attendance", func(t *testing.T) {
		_, err := sessionFor(t, client, memberID).MarkAttendance(ctx, rollcallsdk.MarkAttendanceRequest{
			EventID: openEventID, UserID: ownerID, ScanMethod: "QR",
		})
		assertAPIError(t, err, 403, rollcallsdk.ErrorCodeForbidden)
	})

	t.Run("self scan is off by default", func(t *testing.T) {
		_, err := sessionFor(t, client, memberID).MarkAttendance(ctx, rollcallsdk.MarkAttendanceRequest{
			EventID: openEventID, UserID: memberID, ScanMethod: "QR",
		})
		assertAPIError(t, err, 403, rollcallsdk.ErrorCodeForbidden)
	})

	t.Run("outside the event window", func(t *testing.T) {
		_, err := taker.MarkAttendance(ctx, rollcallsdk.MarkAttendanceRequest{
			EventID: closedEventID, UserID: memberID, ScanMethod: "NFC",
		})
		assertAPIError(t, err, 422, rollcallsdk.ErrorCodeOutsideWindow)
	})

	t.Run("invalid scan method", func(t *testing.T) {
		_, err := taker.MarkAttendance(ctx, rollcallsdk.MarkAttendanceRequest{
			EventID: openEventID, UserID: memberID, ScanMethod: "Bluetooth",
		})
		assertAPIError(t, err, 400, rollcallsdk.ErrorCodeValidation)
		var apiErr *rollcallsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, "scan_method", apiErr.Field)
	})

	t.Run("unknown event", func(t *testing.T) {
		_, err := taker.MarkAttendance(ctx, rollcallsdk.MarkAttendanceRequest{
			EventID: "evt-missing", UserID: memberID, ScanMethod: "NFC",
		})
		assertAPIError(t, err, 404, rollcallsdk.ErrorCodeNotFound)
	})

	t.Run("non-members need the guest flag", func(t *testing.T) {
		_, err := taker.MarkAttendance(ctx, rollcallsdk.MarkAttendanceRequest{
			EventID: openEventID, UserID: outsiderID, ScanMethod: "Manual",
		})
		assertAPIError(t, err, 403, rollcallsdk.ErrorCodeForbidden)

		guest, err := taker.MarkAttendance(ctx, rollcallsdk.MarkAttendanceRequest{
			EventID: openEventID, UserID: outsiderID, ScanMethod: "Manual", AsGuest: true,
		})
		require.NoError(t, err)
		require.False(t, guest.IsMember)
	})

	t.Run("concurrent scans record once", func(t *testing.T) {
		const workers = 5

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			created int
			dupes   int
		)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := taker.MarkAttendance(ctx, rollcallsdk.MarkAttendanceRequest{
					EventID: openEventID, UserID: ownerID, ScanMethod: "NFC",
				})
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					created++
				case rollcallsdk.IsCode(err, rollcallsdk.ErrorCodeAlreadyMarked):
					dupes++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		require.Equal(t, 1, created)
		require.Equal(t, workers-1, dupes)
	})
}

func TestAttendanceSelfScan(t *testing.T) {
	baseURL, cleanup := setupRollcallContainer(t, map[string]string{
		"ROLLCALL_ALLOW_SELF_SCAN": "true",
	})
	defer cleanup()

	client := rollcallsdk.NewSDKClient(baseURL)
	member := sessionFor(t, client, memberID)

	marked, err := member.MarkAttendance(t.Context(), rollcallsdk.MarkAttendanceRequest{
		EventID: openEventID, UserID: memberID, ScanMethod: "QR",
	})
	require.NoError(t, err)
	require.True(t, marked.IsMember)

	_, err = member.MarkAttendance(t.Context(), rollcallsdk.MarkAttendanceRequest{
		EventID: openEventID, UserID: takerID, ScanMethod: "QR",
	})
	assertAPIError(t, err, 403, rollcallsdk.ErrorCodeForbidden)
}
