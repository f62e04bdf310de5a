package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxUpstreamBody caps how much of an upstream response we buffer.
const MaxUpstreamBody = 1 << 20

// UpstreamError is a non-2xx answer from a service we call. The status and a
// bounded copy of the body are preserved for logging and mapping.
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: upstream returned status %d", e.Op, e.StatusCode)
}

// IsStatus reports whether err is an UpstreamError with the given status.
func IsStatus(err error, status int) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.StatusCode == status
}

// ReadUpstream reads at most MaxUpstreamBody bytes of resp and returns an
// UpstreamError for any status outside 2xx. It closes the body.
func ReadUpstream(op string, resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxUpstreamBody))
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, &UpstreamError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// DecodeUpstream is ReadUpstream followed by a JSON decode into out.
func DecodeUpstream(op string, resp *http.Response, out any) error {
	body, err := ReadUpstream(op, resp)
	if err != nil {
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
