package http

import (
	"bytes"
	"image/png"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/service"
	"github.com/aussiebroadwan/rollcall/pkg/httpx"
	"github.com/aussiebroadwan/rollcall/pkg/rollcallsdk"
	"github.com/aussiebroadwan/rollcall/pkg/slogx"
	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

const (
	defaultQRSize = 256
	minQRSize     = 64
	maxQRSize     = 1024
)

type TagHandler struct {
	TagService *service.TagService
}

// HandlePrepare godoc
//
//	@Summary		Prepare an NFC tag write
//	@Description	Reserves a new tag id for the caller. The tag id must be written to the physical tag and confirmed before expires_at. The caller's active tag is not changed.
//	@Tags			Tags
//	@Produce		json
//	@Success		200	{object}	rollcallsdk.PrepareTagResponse	"Reserved tag id and pending request"
//	@Failure		400	{object}	rollcallsdk.ErrorResponse		"Cooldown has not elapsed"
//	@Failure		401	{object}	rollcallsdk.ErrorResponse		"Missing or invalid token"
//	@Failure		503	{object}	rollcallsdk.ErrorResponse		"No unique tag id could be generated, retry"
//	@Security		BearerAuth
//	@Router			/v1/tag/prepare [post].
func (h *TagHandler) HandlePrepare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	prepared, err := h.TagService.Prepare(ctx, httpx.UserIDFromContext(ctx))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, rollcallsdk.PrepareTagResponse{
		TagID:     prepared.TagID,
		PendingID: prepared.PendingID,
		ExpiresAt: prepared.ExpiresAt,
	})
}

// HandleConfirm godoc
//
//	@Summary		Confirm an NFC tag write
//	@Description	Activates a prepared tag once the physical write succeeded.
//	@Tags			Tags
//	@Accept			json
//	@Produce		json
//	@Param			request	body		rollcallsdk.ConfirmTagRequest	true	"Pending request to confirm"
//	@Success		201		{object}	rollcallsdk.TagWriteResponse	"Tag activated"
//	@Failure		400		{object}	rollcallsdk.ErrorResponse		"Malformed body or cooldown has not elapsed"
//	@Failure		401		{object}	rollcallsdk.ErrorResponse		"Missing or invalid token"
//	@Failure		404		{object}	rollcallsdk.ErrorResponse		"Unknown pending request or it belongs to someone else"
//	@Failure		409		{object}	rollcallsdk.ErrorResponse		"Already confirmed"
//	@Failure		410		{object}	rollcallsdk.ErrorResponse		"Pending request expired"
//	@Security		BearerAuth
//	@Router			/v1/tag/confirm [post].
func (h *TagHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req rollcallsdk.ConfirmTagRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}

	res, err := h.TagService.Confirm(ctx, httpx.UserIDFromContext(ctx), req.PendingID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, tagWriteResponse(res))
}

// HandleGenerate godoc
//
//	@Summary		Generate a QR tag
//	@Description	Issues and activates a new tag id in one step. Used for QR codes, which have no physical write to confirm.
//	@Tags			Tags
//	@Produce		json
//	@Success		201	{object}	rollcallsdk.TagWriteResponse	"Tag activated"
//	@Failure		400	{object}	rollcallsdk.ErrorResponse		"Cooldown has not elapsed"
//	@Failure		401	{object}	rollcallsdk.ErrorResponse		"Missing or invalid token"
//	@Failure		503	{object}	rollcallsdk.ErrorResponse		"No unique tag id could be generated, retry"
//	@Security		BearerAuth
//	@Router			/v1/tag/generate [post].
func (h *TagHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	res, err := h.TagService.Generate(ctx, httpx.UserIDFromContext(ctx))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, tagWriteResponse(res))
}

// HandleCanWrite godoc
//
//	@Summary		Check the tag write cooldown
//	@Tags			Tags
//	@Produce		json
//	@Success		200	{object}	rollcallsdk.CanWriteResponse	"Whether a write is allowed now"
//	@Failure		401	{object}	rollcallsdk.ErrorResponse		"Missing or invalid token"
//	@Security		BearerAuth
//	@Router			/v1/tag/can-write [get].
func (h *TagHandler) HandleCanWrite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	res, err := h.TagService.CanWrite(ctx, httpx.UserIDFromContext(ctx))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := rollcallsdk.CanWriteResponse{
		CanWrite:     res.CanWrite,
		CooldownDays: h.TagService.CooldownDays(),
	}
	if res.NextAvailableAt != nil {
		next := res.NextAvailableAt.UTC()
		out.NextAvailableDate = &next
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleQR godoc
//
//	@Summary		Render the active tag as a QR code
//	@Tags			Tags
//	@Produce		png
//	@Param			size	query		int							false	"Edge length in pixels (64-1024, default 256)"
//	@Success		200		{file}		binary						"PNG image"
//	@Failure		400		{object}	rollcallsdk.ErrorResponse	"Invalid size"
//	@Failure		401		{object}	rollcallsdk.ErrorResponse	"Missing or invalid token"
//	@Failure		404		{object}	rollcallsdk.ErrorResponse	"No active tag"
//	@Security		BearerAuth
//	@Router			/v1/tag/qr [get].
func (h *TagHandler) HandleQR(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	size := defaultQRSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < minQRSize || n > maxQRSize {
			writeServiceError(w, r, &service.ValidationError{Field: "size", Reason: "must be between 64 and 1024"})
			return
		}
		size = n
	}

	tagID, err := h.TagService.ActiveTag(ctx, httpx.UserIDFromContext(ctx))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	code, err := qr.Encode(tagID, qr.M, qr.Auto)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	code, err = barcode.Scale(code, size, size)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, code); err != nil {
		writeServiceError(w, r, err)
		return
	}

	slogx.FromContext(ctx).Debug("qr rendered", "size", size)
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func tagWriteResponse(res service.TagWriteResult) rollcallsdk.TagWriteResponse {
	return rollcallsdk.TagWriteResponse{
		Success:       true,
		TagID:         res.TagID,
		WriteRecordID: res.WriteRecordID,
		WrittenAt:     res.WrittenAt,
	}
}
