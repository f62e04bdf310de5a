package authsdk

import (
	"net/http"
	"strings"
	"time"
)

// SessionCookieName is the cookie carrying the dashboard session token.
const SessionCookieName = "botdash_session"

// SDKClient is a client for the botdash API. Redirects are not followed so
// the login flow's 302s can be inspected.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a client for baseURL.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// WithSession returns a Session that presents token as the session cookie.
func (c *SDKClient) WithSession(token string) *Session {
	return &Session{client: c, token: token}
}
