package http_test

import (
	"bytes"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/rollcall/pkg/rollcallsdk"
	"github.com/stretchr/testify/require"
)

func TestTagEndpointsRequireAuthentication(t *testing.T) {
	s := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/v1/tag/prepare"},
		{http.MethodPost, "/v1/tag/confirm"},
		{http.MethodPost, "/v1/tag/generate"},
		{http.MethodGet, "/v1/tag/can-write"},
		{http.MethodGet, "/v1/tag/qr"},
	} {
		t.Run(tc.path, func(t *testing.T) {
			rec := s.do(t, tc.method, tc.path, "", nil)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
		})
	}

	t.Run("token from an unknown key", func(t *testing.T) {
		other := newTestServer(t)
		req := httptest.NewRequest(http.MethodPost, "/v1/tag/prepare", nil)
		req.Header.Set("Authorization", "Bearer "+other.token(t, memberID))

		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestPrepareConfirmFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/v1/tag/prepare", memberID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	prepared := decode[rollcallsdk.PrepareTagResponse](t, rec)
	require.Len(t, prepared.TagID, 12)
	require.WithinDuration(t, s.clock.Now().Add(5*time.Minute), prepared.ExpiresAt, 0)

	s.clock.Advance(4 * time.Minute)

	rec = s.do(t, http.MethodPost, "/v1/tag/confirm", memberID, rollcallsdk.ConfirmTagRequest{PendingID: prepared.PendingID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	written := decode[rollcallsdk.TagWriteResponse](t, rec)
	require.True(t, written.Success)
	require.Equal(t, prepared.TagID, written.TagID)
	require.NotEmpty(t, written.WriteRecordID)

	rec = s.do(t, http.MethodPost, "/v1/tag/confirm", memberID, rollcallsdk.ConfirmTagRequest{PendingID: prepared.PendingID})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, rollcallsdk.ErrorCodeAlreadyConfirmed, decode[rollcallsdk.ErrorResponse](t, rec).Error)

	rec = s.do(t, http.MethodGet, "/v1/tag/can-write", memberID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	canWrite := decode[rollcallsdk.CanWriteResponse](t, rec)
	require.False(t, canWrite.CanWrite)
	require.Equal(t, 30, canWrite.CooldownDays)
	require.NotNil(t, canWrite.NextAvailableDate)
	require.WithinDuration(t, written.WrittenAt.Add(30*24*time.Hour), *canWrite.NextAvailableDate, 0)
}

func TestConfirmErrors(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/v1/tag/prepare", memberID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	prepared := decode[rollcallsdk.PrepareTagResponse](t, rec)

	t.Run("foreign pending id", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/v1/tag/confirm", takerID, rollcallsdk.ConfirmTagRequest{PendingID: prepared.PendingID})
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/v1/tag/confirm", memberID, map[string]string{"pendingId": "x"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, rollcallsdk.ErrorCodeInvalidRequest, decode[rollcallsdk.ErrorResponse](t, rec).Error)
	})

	t.Run("expired", func(t *testing.T) {
		s.clock.Advance(5 * time.Minute)
		rec := s.do(t, http.MethodPost, "/v1/tag/confirm", memberID, rollcallsdk.ConfirmTagRequest{PendingID: prepared.PendingID})
		require.Equal(t, http.StatusGone, rec.Code)
		require.Equal(t, rollcallsdk.ErrorCodeExpired, decode[rollcallsdk.ErrorResponse](t, rec).Error)
	})
}

func TestGenerateCooldown(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/v1/tag/generate", memberID, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[rollcallsdk.TagWriteResponse](t, rec)

	s.clock.Advance(24 * time.Hour)

	rec = s.do(t, http.MethodPost, "/v1/tag/generate", memberID, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errResp := decode[rollcallsdk.ErrorResponse](t, rec)
	require.Equal(t, rollcallsdk.ErrorCodeCooldown, errResp.Error)
	require.NotNil(t, errResp.NextAvailableDate)
	require.WithinDuration(t, first.WrittenAt.Add(30*24*time.Hour), *errResp.NextAvailableDate, 0)

	rec = s.do(t, http.MethodPost, "/v1/tag/prepare", memberID, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTagQRCode(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/v1/tag/qr", memberID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code, "no active tag yet")

	rec = s.do(t, http.MethodPost, "/v1/tag/generate", memberID, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/tag/qr?size=128", memberID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	require.Equal(t, 128, img.Bounds().Dx())
	require.Equal(t, 128, img.Bounds().Dy())

	for _, size := range []string{"10", "5000", "big"} {
		rec = s.do(t, http.MethodGet, "/v1/tag/qr?size="+size, memberID, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code, size)
	}
}
