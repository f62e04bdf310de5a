package httpx

import (
	"net/http"
	"slices"
	"strings"
)

// RequireAnyScope admits service callers holding at least one of required.
// It must run after ServiceAuthMiddleware.
func RequireAnyScope(required ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			have := scopesFromCtx(r.Context())
			for _, s := range required {
				if slices.Contains(have, s) {
					next.ServeHTTP(w, r)
					return
				}
			}

			w.Header().Set("WWW-Authenticate",
				`Bearer error="insufficient_scope", scope="`+strings.Join(required, " ")+`"`)
			WriteJSON(w, http.StatusForbidden, map[string]string{
				"error":             "insufficient_scope",
				"error_description": "token lacks scope " + strings.Join(required, " or "),
			})
		})
	}
}
