package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/botdash/pkg/httpx"
)

const (
	ErrorCodeInvalidRequest    = "invalid_request"
	ErrorCodeSessionNotFound   = "session_not_found"
	ErrorCodeSessionExpired    = "session_expired"
	ErrorCodeNotFound          = "not_found"
	ErrorCodeUpstreamError     = "upstream_error"
	ErrorCodeReauthRequired    = "reauth_required"
	ErrorCodeServerError       = "server_error"
	ErrorCodeRateLimitExceeded = "rate_limit_exceeded"
)

// APIError is the JSON error body every endpoint returns. It is used by the
// server to write responses and by the client to represent them.
type APIError struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes e as a non-cacheable JSON response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: e.Code, ErrorDescription: e.Description})
}

var (
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	// ErrSessionNotFound means no session cookie or an unknown one.
	ErrSessionNotFound = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeSessionNotFound,
		Description: "no valid session",
	}

	ErrSessionExpired = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeSessionExpired,
		Description: "the session has expired, log in again",
	}

	// ErrReauthRequired means the stored provider tokens can no longer be
	// used and the user must go through the login flow again.
	ErrReauthRequired = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeReauthRequired,
		Description: "provider authorization is missing or revoked, log in again",
	}

	ErrNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeNotFound,
		Description: "resource not found",
	}

	ErrUpstream = &APIError{
		StatusCode:  http.StatusBadGateway,
		Code:        ErrorCodeUpstreamError,
		Description: "an upstream service failed",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// NewAPIError creates an APIError with a custom description.
func NewAPIError(statusCode int, code, description string) *APIError {
	return &APIError{StatusCode: statusCode, Code: code, Description: description}
}

// parseErrorResponse converts a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
