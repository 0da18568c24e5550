/*
Package rollcallsdk is a client for the rollcall tag and attendance service.

# Overview

Rollcall does not issue credentials. Callers obtain an access token from the
auth service and hand it to a Session:

	client := rollcallsdk.NewSDKClient("https://rollcall.example.com")
	session := client.NewSession(rollcallsdk.StaticToken(accessToken))

# Writing a tag

NFC tags are written in two phases. PrepareTag reserves a tag id, the
caller writes it to the physical tag, and ConfirmTag activates it:

	prepared, err := session.PrepareTag(ctx)
	// write prepared.TagID to the tag before prepared.ExpiresAt
	written, err := session.ConfirmTag(ctx, prepared.PendingID)

QR codes have nothing to write, so GenerateTag does both at once and
TagQRCode renders the result.

# Taking attendance

	res, err := session.MarkAttendance(ctx, rollcallsdk.MarkAttendanceRequest{
		EventID:    "evt-1",
		TagID:      scannedTag,
		ScanMethod: "NFC",
	})
	if rollcallsdk.IsCode(err, rollcallsdk.ErrorCodeAlreadyMarked) {
		// a second scan of the same attendee
	}

# Errors

Every non-2xx response becomes an *APIError. Cooldown errors carry
NextAvailableDate; validation errors carry the offending Field.
*/
package rollcallsdk
