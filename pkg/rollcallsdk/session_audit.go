package rollcallsdk

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ListAudit returns the caller's audit trail, newest first. Requires the
// audit:read scope. A limit of 0 uses the server default.
func (s *Session) ListAudit(ctx context.Context, kind string, limit int) (*ListAuditResponse, error) {
	q := url.Values{}
	if kind != "" {
		q.Set("kind", kind)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	path := "/v1/audit"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := s.doAuthRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var out ListAuditResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
