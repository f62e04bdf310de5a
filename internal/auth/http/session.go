package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/botdash/internal/auth/service"
	"github.com/aussiebroadwan/botdash/pkg/authsdk"
	"github.com/aussiebroadwan/botdash/pkg/httpx"
	"github.com/aussiebroadwan/botdash/pkg/slogx"
)

// SessionMiddleware resolves the session cookie and puts the user on the
// request context. Unknown sessions get 401 session_not_found, expired ones
// 401 session_expired with the cookie cleared.
func SessionMiddleware(sessions *service.SessionService, cookies httpx.CookiePolicy) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			sess, err := sessions.ValidateSession(ctx, httpx.CookieValue(r, authsdk.SessionCookieName))
			switch {
			case errors.Is(err, service.ErrSessionNotFound):
				authsdk.ErrSessionNotFound.WriteError(w)
				return
			case errors.Is(err, service.ErrSessionExpired):
				cookies.Clear(w, authsdk.SessionCookieName)
				authsdk.ErrSessionExpired.WriteError(w)
				return
			case err != nil:
				slogx.FromContext(ctx).Error("session lookup failed", "error", err)
				authsdk.ErrServerError.WriteError(w)
				return
			}

			ctx = httpx.ContextWithSession(ctx, sess.UserID, sess.ID)
			ctx = slogx.WithContext(ctx, slogx.FromContext(ctx).With("user_id", sess.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
