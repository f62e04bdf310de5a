package authsdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// LoginRedirect is the answer to GET /v1/auth/login: where the browser is
// sent and the handshake cookies it must present on the callback.
type LoginRedirect struct {
	Location string
	Cookies  []*http.Cookie
}

// BeginLogin starts the login flow without following the redirect.
func (c *SDKClient) BeginLogin(ctx context.Context, redirect string) (*LoginRedirect, error) {
	path := "/v1/auth/login"
	if redirect != "" {
		path += "?redirect=" + url.QueryEscape(redirect)
	}

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		return nil, fmt.Errorf("login: unexpected status %d", resp.StatusCode)
	}
	return &LoginRedirect{
		Location: resp.Header.Get("Location"),
		Cookies:  resp.Cookies(),
	}, nil
}
