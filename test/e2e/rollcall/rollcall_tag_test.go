package rollcall_test

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/aussiebroadwan/rollcall/pkg/rollcallsdk"
	"github.com/stretchr/testify/require"
)

func TestTagWriteFlow(t *testing.T) {
	baseURL, cleanup := setupRollcallContainer(t, nil)
	defer cleanup()

	client := rollcallsdk.NewSDKClient(baseURL)
	member := sessionFor(t, client, memberID)
	ctx := t.Context()

	// No tag yet, so nothing to render and nothing blocking a write.
	_, err := member.TagQRCode(ctx, 0)
	assertAPIError(t, err, 404, rollcallsdk.ErrorCodeNotFound)

	canWrite, err := member.CanWriteTag(ctx)
	require.NoError(t, err)
	require.True(t, canWrite.CanWrite)
	require.Equal(t, 30, canWrite.CooldownDays)

	prepared, err := member.PrepareTag(ctx)
	require.NoError(t, err)
	require.Len(t, prepared.TagID, 12)
	require.NotEmpty(t, prepared.PendingID)

	// Another user cannot confirm someone else's pending write.
	_, err = sessionFor(t, client, takerID).ConfirmTag(ctx, prepared.PendingID)
	assertAPIError(t, err, 404, rollcallsdk.ErrorCodeNotFound)

	written, err := member.ConfirmTag(ctx, prepared.PendingID)
	require.NoError(t, err)
	require.True(t, written.Success)
	require.Equal(t, prepared.TagID, written.TagID)

	_, err = member.ConfirmTag(ctx, prepared.PendingID)
	assertAPIError(t, err, 409, rollcallsdk.ErrorCodeAlreadyConfirmed)

	canWrite, err = member.CanWriteTag(ctx)
	require.NoError(t, err)
	require.False(t, canWrite.CanWrite)
	require.NotNil(t, canWrite.NextAvailableDate)

	_, err = member.GenerateTag(ctx)
	assertAPIError(t, err, 400, rollcallsdk.ErrorCodeCooldown)
	var apiErr *rollcallsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.NotNil(t, apiErr.NextAvailableDate)
	require.WithinDuration(t, *canWrite.NextAvailableDate, *apiErr.NextAvailableDate, 0)

	raw, err := member.TagQRCode(ctx, 200)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, 200, img.Bounds().Dx())

	audit, err := sessionFor(t, client, memberID, "audit:read").ListAudit(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, audit.Events, 2)
	require.Equal(t, "tag.confirmed", audit.Events[0].Kind)
	require.Equal(t, "tag.prepared", audit.Events[1].Kind)
}

func TestTagGenerate(t *testing.T) {
	baseURL, cleanup := setupRollcallContainer(t, map[string]string{
		"ROLLCALL_TAG_COOLDOWN": "1s",
	})
	defer cleanup()

	client := rollcallsdk.NewSDKClient(baseURL)
	member := sessionFor(t, client, memberID)

	first, err := member.GenerateTag(t.Context())
	require.NoError(t, err)

	_, err = member.GenerateTag(t.Context())
	assertAPIError(t, err, 400, rollcallsdk.ErrorCodeCooldown)

	time.Sleep(1500 * time.Millisecond)

	second, err := member.GenerateTag(t.Context())
	require.NoError(t, err, "cooldown elapsed")
	require.NotEqual(t, first.TagID, second.TagID)
}
