package rollcallsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Error codes carried in ErrorResponse.Error.
const (
	ErrorCodeInvalidRequest    = "invalid_request"
	ErrorCodeUnauthorized      = "unauthorized"
	ErrorCodeInsufficientScope = "insufficient_scope"
	ErrorCodeForbidden         = "forbidden"
	ErrorCodeNotFound          = "not_found"
	ErrorCodeExpired           = "expired"
	ErrorCodeAlreadyConfirmed  = "already_confirmed"
	ErrorCodeAlreadyMarked     = "already_marked"
	ErrorCodeCooldown          = "cooldown_active"
	ErrorCodeValidation        = "validation_error"
	ErrorCodeOutsideWindow     = "outside_window"
	ErrorCodeGenerationFailed  = "generation_failed"
	ErrorCodeRateLimited       = "rate_limit_exceeded"
	ErrorCodeServerError       = "server_error"
)

// APIError is a non-2xx response from the rollcall service.
type APIError struct {
	StatusCode        int
	Code              string
	Description       string
	Field             string
	NextAvailableDate *time.Time
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Retryable reports whether the same request may succeed if sent again
// unchanged.
func (e *APIError) Retryable() bool {
	switch e.StatusCode {
	case http.StatusServiceUnavailable, http.StatusTooManyRequests:
		return true
	}
	return false
}

// IsCode reports whether err is an *APIError with the given code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// parseErrorResponse turns a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:        resp.StatusCode,
			Code:              errResp.Error,
			Description:       errResp.ErrorDescription,
			Field:             errResp.Field,
			NextAvailableDate: errResp.NextAvailableDate,
		}
	}

	// Fallback: create generic error from status code
	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
