package httpx

import "context"

type ctxKey string

const (
	CtxKeyUserID    ctxKey = "user_id"
	CtxKeySessionID ctxKey = "session_id"
	CtxKeyService   ctxKey = "service"
	CtxKeyScopes    ctxKey = "scopes"
)

// ContextWithSession records the authenticated user and session on ctx.
func ContextWithSession(ctx context.Context, userID, sessionID string) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, userID)
	return context.WithValue(ctx, CtxKeySessionID, sessionID)
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(CtxKeyUserID).(string)
	return v, ok && v != ""
}

// ContextWithService records a calling service and its granted scopes.
func ContextWithService(ctx context.Context, service string, scopes []string) context.Context {
	ctx = context.WithValue(ctx, CtxKeyService, service)
	return context.WithValue(ctx, CtxKeyScopes, scopes)
}

// ServiceFromContext returns the calling service set by ServiceAuthMiddleware.
func ServiceFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(CtxKeyService).(string)
	return v, ok && v != ""
}

func scopesFromCtx(ctx context.Context) []string {
	v, _ := ctx.Value(CtxKeyScopes).([]string)
	return v
}
