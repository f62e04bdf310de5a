package httpx

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/botdash/pkg/jwtx"
	"github.com/aussiebroadwan/botdash/pkg/slogx"
)

// ServiceAuthMiddleware admits callers presenting a bearer service token that
// v accepts. The token subject and scopes are placed on the request context.
func ServiceAuthMiddleware(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(authz, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				writeBearerError(w, "missing bearer token")
				return
			}

			claims, err := v.Verify(strings.TrimSpace(raw))
			if err != nil {
				slogx.FromContext(r.Context()).Warn("service token rejected", "error", err)
				writeBearerError(w, "token verification failed")
				return
			}

			ctx := ContextWithService(r.Context(), claims.Subject, claims.Scopes)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RFC 6750 invalid_token response.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"error":             "invalid_token",
		"error_description": desc,
	})
}
