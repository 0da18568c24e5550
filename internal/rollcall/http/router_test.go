package http_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/rollcall/pkg/jwtx"
	"github.com/aussiebroadwan/rollcall/pkg/rollcallsdk"
	"github.com/stretchr/testify/require"
)

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/livez", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decode[rollcallsdk.HealthResponse](t, rec).Status)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = s.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ready := decode[rollcallsdk.HealthResponse](t, rec)
	require.Equal(t, "ok", ready.Checks.Database)
	require.Equal(t, "ok", ready.Checks.Verifier)

	require.ErrorIs(t, s.keys.ResetFromJWKS(jwtx.JWKS{}), jwtx.ErrNoUsableKeys)
	require.NoError(t, s.store.Close())

	rec = s.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "degraded", decode[rollcallsdk.HealthResponse](t, rec).Status)
}

func TestAuditEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/v1/tag/generate", memberID, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(t, http.MethodPost, "/v1/attendance", takerID, rollcallsdk.MarkAttendanceRequest{
		EventID: eventID, UserID: memberID, ScanMethod: "NFC",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("requires scope", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/v1/audit", memberID, nil)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, rollcallsdk.ErrorCodeInsufficientScope, decode[rollcallsdk.ErrorResponse](t, rec).Error)
	})

	t.Run("lists own entries", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/v1/audit", memberID, nil, "audit:read")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		got := decode[rollcallsdk.ListAuditResponse](t, rec)
		require.Len(t, got.Events, 2)
		for _, e := range got.Events {
			require.Equal(t, memberID, e.SubjectID)
		}
	})

	t.Run("filters by kind", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/v1/audit?kind=attendance.marked", memberID, nil, "audit:read")
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[rollcallsdk.ListAuditResponse](t, rec)
		require.Len(t, got.Events, 1)
		require.Equal(t, takerID, got.Events[0].ActorID)
		require.Equal(t, eventID, got.Events[0].Payload["event_id"])
	})

	t.Run("other callers see nothing of it", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/v1/audit", adminID, nil, "audit:read")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Empty(t, decode[rollcallsdk.ListAuditResponse](t, rec).Events)
	})

	t.Run("bad limit", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/v1/audit?limit=0", memberID, nil, "audit:read")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
