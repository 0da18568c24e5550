package rollcallsdk

import (
	"context"
	"net/http"
	"strconv"
)

// PrepareTag reserves a new tag id for the caller.
func (s *Session) PrepareTag(ctx context.Context) (*PrepareTagResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/tag/prepare", nil)
	if err != nil {
		return nil, err
	}

	var out PrepareTagResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmTag activates a prepared tag once it has been written.
func (s *Session) ConfirmTag(ctx context.Context, pendingID string) (*TagWriteResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/tag/confirm", ConfirmTagRequest{PendingID: pendingID})
	if err != nil {
		return nil, err
	}

	var out TagWriteResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateTag issues and activates a new tag in one step, for QR codes.
func (s *Session) GenerateTag(ctx context.Context) (*TagWriteResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/v1/tag/generate", nil)
	if err != nil {
		return nil, err
	}

	var out TagWriteResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// CanWriteTag reports whether the caller's cooldown has elapsed.
func (s *Session) CanWriteTag(ctx context.Context) (*CanWriteResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/v1/tag/can-write", nil)
	if err != nil {
		return nil, err
	}

	var out CanWriteResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// TagQRCode returns the caller's active tag rendered as a PNG QR code. A
// size of 0 lets the server choose.
func (s *Session) TagQRCode(ctx context.Context, size int) ([]byte, error) {
	path := "/v1/tag/qr"
	if size > 0 {
		path += "?size=" + strconv.Itoa(size)
	}

	resp, err := s.doAuthRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return readBody(resp, http.StatusOK)
}
