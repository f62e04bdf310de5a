package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/botdash/internal/auth/service"
	"github.com/aussiebroadwan/botdash/pkg/authsdk"
	"github.com/aussiebroadwan/botdash/pkg/httpx"
	"github.com/aussiebroadwan/botdash/pkg/slogx"
)

// Handshake cookies bind a browser to one login attempt.
const (
	StateCookie    = "oauth-state"
	VerifierCookie = "oauth-verifier"
	RedirectCookie = "oauth-redirect"

	handshakeTTL = 600 * time.Second
)

type LoginHandler struct {
	LoginService   *service.LoginService
	SessionService *service.SessionService
	Cookies        httpx.CookiePolicy
}

// HandleLogin starts the login flow.
//
//	@Summary		Start login
//	@Description	Creates a state and PKCE verifier, stores them in short-lived HttpOnly cookies and redirects to the identity provider.
//	@Tags			Auth
//	@Param			redirect	query	string	false	"Relative dashboard path to land on after login"
//	@Success		302			"Redirect to the provider consent page"
//	@Failure		500			{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/login [get].
func (h *LoginHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	start, err := h.LoginService.BeginLogin(r.URL.Query().Get("redirect"))
	if err != nil {
		slogx.FromContext(r.Context()).Error("failed to begin login", "error", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	h.Cookies.Set(w, StateCookie, start.State, handshakeTTL)
	h.Cookies.Set(w, VerifierCookie, start.Verifier, handshakeTTL)
	h.Cookies.Set(w, RedirectCookie, start.Redirect, handshakeTTL)

	httpx.NoCache(w)
	http.Redirect(w, r, start.URL, http.StatusFound)
}

// HandleCallback completes the login flow.
//
//	@Summary		OAuth2 callback
//	@Description	Validates the state against the handshake cookies, exchanges the code with the PKCE verifier, stores the user and issues a session cookie.
//	@Description	Always redirects; failures land on the login page with ?error=missing_code|invalid_state|callback_failed.
//	@Tags			Auth
//	@Param			code	query	string	false	"Authorization code"
//	@Param			state	query	string	false	"State echoed by the provider"
//	@Success		302		"Redirect into the dashboard or back to login"
//	@Router			/v1/auth/callback [get].
func (h *LoginHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res := h.LoginService.CompleteLogin(r.Context(), service.CallbackRequest{
		Code:           q.Get("code"),
		State:          q.Get("state"),
		StateCookie:    httpx.CookieValue(r, StateCookie),
		VerifierCookie: httpx.CookieValue(r, VerifierCookie),
		RedirectCookie: httpx.CookieValue(r, RedirectCookie),
	})

	h.Cookies.Clear(w, StateCookie)
	h.Cookies.Clear(w, VerifierCookie)
	h.Cookies.Clear(w, RedirectCookie)

	if res.Session != nil {
		h.Cookies.Set(w, authsdk.SessionCookieName, res.Session.Token, res.Session.MaxAge)
	}

	httpx.NoCache(w)
	http.Redirect(w, r, res.Location, http.StatusFound)
}

// HandleLogout ends the current session.
//
//	@Summary		Logout
//	@Description	Deletes the session behind the cookie, if any, and clears the cookie. Idempotent.
//	@Tags			Auth
//	@Success		204	"Logged out"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/logout [post].
func (h *LoginHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.SessionService.DeleteSession(r.Context(), httpx.CookieValue(r, authsdk.SessionCookieName)); err != nil {
		slogx.FromContext(r.Context()).Error("failed to delete session", "error", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	h.Cookies.Clear(w, authsdk.SessionCookieName)
	w.WriteHeader(http.StatusNoContent)
}
