package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/service"
	"github.com/aussiebroadwan/rollcall/pkg/httpx"
	"github.com/aussiebroadwan/rollcall/pkg/rollcallsdk"
)

type AuditHandler struct {
	AuditTrail *service.AuditTrail
}

// ServeHTTP lists the caller's own audit trail
//
//	@Summary		List my audit trail
//	@Description	Returns audit entries whose subject is the caller, newest first. Requires audit:read scope.
//	@Tags			Audit
//	@Produce		json
//	@Param			kind	query		string							false	"Filter by kind, e.g. tag.confirmed"
//	@Param			limit	query		int								false	"Maximum entries (1-500, default 100)"
//	@Success		200		{object}	rollcallsdk.ListAuditResponse	"Audit entries"
//	@Failure		400		{object}	rollcallsdk.ErrorResponse		"Invalid limit"
//	@Failure		401		{object}	rollcallsdk.ErrorResponse		"Missing or invalid token"
//	@Failure		403		{object}	rollcallsdk.ErrorResponse		"Missing required scope"
//	@Security		BearerAuth
//	@Router			/v1/audit [get].
func (h *AuditHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := domain.AuditFilter{
		SubjectID: httpx.UserIDFromContext(ctx),
		Kind:      domain.AuditKind(r.URL.Query().Get("kind")),
		Limit:     100,
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			writeServiceError(w, r, &service.ValidationError{Field: "limit", Reason: "must be between 1 and 500"})
			return
		}
		filter.Limit = n
	}

	events, err := h.AuditTrail.List(ctx, filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := rollcallsdk.ListAuditResponse{Events: make([]rollcallsdk.AuditEvent, len(events))}
	for i, e := range events {
		payload := map[string]any{}
		_ = json.Unmarshal(e.Payload, &payload)

		out.Events[i] = rollcallsdk.AuditEvent{
			ID:         e.ID,
			Kind:       string(e.Kind),
			ActorID:    e.ActorID,
			SubjectID:  e.SubjectID,
			ResourceID: e.ResourceID,
			Payload:    payload,
			CreatedAt:  e.CreatedAt,
		}
	}

	httpx.WriteJSON(w, http.StatusOK, out)
}
