package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/service"
	"github.com/aussiebroadwan/rollcall/pkg/httpx"
	"github.com/aussiebroadwan/rollcall/pkg/rollcallsdk"
	"github.com/aussiebroadwan/rollcall/pkg/slogx"
)

// writeServiceError maps a service error to its HTTP status and error code.
// Anything that is not a domain error is logged and hidden behind a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		cooldown   *service.CooldownError
		validation *service.ValidationError
	)

	switch {
	case errors.As(err, &cooldown):
		next := cooldown.NextAvailableAt.UTC()
		httpx.WriteJSON(w, http.StatusBadRequest, rollcallsdk.ErrorResponse{
			Error:             rollcallsdk.ErrorCodeCooldown,
			ErrorDescription:  "tag write cooldown has not elapsed",
			NextAvailableDate: &next,
		})
	case errors.As(err, &validation):
		httpx.WriteJSON(w, http.StatusBadRequest, rollcallsdk.ErrorResponse{
			Error:            rollcallsdk.ErrorCodeValidation,
			ErrorDescription: validation.Error(),
			Field:            validation.Field,
		})
	case errors.Is(err, service.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, rollcallsdk.ErrorCodeUnauthorized, "authentication required")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, rollcallsdk.ErrorCodeForbidden, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, rollcallsdk.ErrorCodeNotFound, err.Error())
	case errors.Is(err, service.ErrExpired):
		writeError(w, http.StatusGone, rollcallsdk.ErrorCodeExpired, err.Error())
	case errors.Is(err, service.ErrAlreadyConfirmed):
		writeError(w, http.StatusConflict, rollcallsdk.ErrorCodeAlreadyConfirmed, err.Error())
	case errors.Is(err, service.ErrAlreadyMarked):
		writeError(w, http.StatusConflict, rollcallsdk.ErrorCodeAlreadyMarked, err.Error())
	case errors.Is(err, service.ErrOutsideWindow):
		writeError(w, http.StatusUnprocessableEntity, rollcallsdk.ErrorCodeOutsideWindow, err.Error())
	case errors.Is(err, service.ErrGenerationFailed):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, rollcallsdk.ErrorCodeGenerationFailed, err.Error())
	default:
		slogx.FromContext(r.Context()).Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, rollcallsdk.ErrorCodeServerError, "internal server error")
	}
}

func writeError(w http.ResponseWriter, code int, errCode, desc string) {
	httpx.WriteJSON(w, code, rollcallsdk.ErrorResponse{
		Error:            errCode,
		ErrorDescription: desc,
	})
}

func writeInvalidBody(w http.ResponseWriter) {
	writeError(w, http.StatusBadRequest, rollcallsdk.ErrorCodeInvalidRequest, "request body is not valid JSON")
}
