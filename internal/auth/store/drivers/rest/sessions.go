package rest

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/aussiebroadwan/botdash/internal/auth/domain"
	"github.com/aussiebroadwan/botdash/internal/auth/store"
	"github.com/aussiebroadwan/botdash/pkg/httpx"
)

type sessionRow struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	TokenDigest string    `json:"token_digest"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}

func (r sessionRow) toDomain() domain.Session {
	return domain.Session{
		ID:          r.ID,
		UserID:      r.UserID,
		TokenDigest: r.TokenDigest,
		ExpiresAt:   r.ExpiresAt.UTC(),
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

type sessionsRepo struct {
	s *Store
}

func (r *sessionsRepo) CreateSession(ctx context.Context, sess domain.Session) error {
	createdAt := sess.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.s.now()
	}

	body := sessionRow{
		ID:          sess.ID,
		UserID:      sess.UserID,
		TokenDigest: sess.TokenDigest,
		ExpiresAt:   sess.ExpiresAt.UTC(),
		CreatedAt:   createdAt.UTC(),
	}
	err := r.s.do(ctx, "create session", http.MethodPost, "sessions", nil, body, "", nil)
	if httpx.IsStatus(err, http.StatusConflict) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *sessionsRepo) GetSessionByDigest(ctx context.Context, digest string) (domain.Session, error) {
	var rows []sessionRow
	q := url.Values{"token_digest": {eq(digest)}, "select": {"*"}, "limit": {"1"}}
	if err := r.s.do(ctx, "get session", http.MethodGet, "sessions", q, nil, "", &rows); err != nil {
		return domain.Session{}, err
	}
	if len(rows) == 0 {
		return domain.Session{}, store.ErrNotFound
	}
	return rows[0].toDomain(), nil
}

func (r *sessionsRepo) DeleteSessionByDigest(ctx context.Context, digest string) error {
	q := url.Values{"token_digest": {eq(digest)}}
	return r.s.do(ctx, "delete session", http.MethodDelete, "sessions", q, nil, "", nil)
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	var rows []sessionRow
	q := url.Values{
		"expires_at": {"lte." + now.UTC().Format(time.RFC3339)},
		"select":     {"id"},
	}
	if err := r.s.do(ctx, "delete expired sessions", http.MethodDelete, "sessions", q, nil, preferReturn, &rows); err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

func (r *sessionsRepo) DeleteUserSessions(ctx context.Context, userID string) error {
	q := url.Values{"user_id": {eq(userID)}}
	return r.s.do(ctx, "delete user sessions", http.MethodDelete, "sessions", q, nil, "", nil)
}
