package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/botdash/internal/auth/domain"
	"github.com/aussiebroadwan/botdash/internal/auth/store"
	"github.com/aussiebroadwan/botdash/pkg/cryptox"
	"github.com/aussiebroadwan/botdash/pkg/idx"
	"github.com/aussiebroadwan/botdash/pkg/slogx"
)

var (
	ErrSessionNotFound = errors.New("session_not_found")
	ErrSessionExpired  = errors.New("session_expired")
	ErrEmptySecret     = errors.New("secret must not be empty")
)

// SessionService issues and validates opaque session tokens. The raw token
// only ever lives in the client's cookie; the store holds its HMAC digest.
type SessionService struct {
	Store  store.Store
	Secret []byte
	Now    func() time.Time
}

// NewSessionService returns a ConfigError when secret is empty.
func NewSessionService(st store.Store, secret string) (*SessionService, error) {
	if secret == "" {
		return nil, &cryptox.ConfigError{Setting: "SESSION_SECRET", Err: ErrEmptySecret}
	}
	return &SessionService{Store: st, Secret: []byte(secret), Now: time.Now}, nil
}

// CreateSession stores a new session for userID and returns the raw token.
func (s *SessionService) CreateSession(ctx context.Context, userID string, expiresAt time.Time) (string, error) {
	raw, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	sess := domain.Session{
		ID:          idx.New().String(),
		UserID:      userID,
		TokenDigest: cryptox.DigestToken(s.Secret, raw),
		ExpiresAt:   expiresAt,
		CreatedAt:   s.Now(),
	}
	if err := s.Store.Sessions().CreateSession(ctx, sess); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	slogx.FromContext(ctx).Debug("session created", "session_id", sess.ID, "user_id", userID, "expires_at", expiresAt)
	return raw, nil
}

// ValidateSession resolves a raw token to its session. An expired session is
// deleted before ErrSessionExpired is returned.
func (s *SessionService) ValidateSession(ctx context.Context, raw string) (domain.Session, error) {
	if raw == "" {
		return domain.Session{}, ErrSessionNotFound
	}

	digest := cryptox.DigestToken(s.Secret, raw)
	sess, err := s.Store.Sessions().GetSessionByDigest(ctx, digest)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("lookup session: %w", err)
	}

	if sess.Expired(s.Now()) {
		if err := s.Store.Sessions().DeleteSessionByDigest(ctx, digest); err != nil {
			slogx.FromContext(ctx).Warn("failed to delete expired session", "session_id", sess.ID, "error", err)
		}
		return domain.Session{}, ErrSessionExpired
	}

	return sess, nil
}

// DeleteSession removes the session for raw, if any.
func (s *SessionService) DeleteSession(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	return s.Store.Sessions().DeleteSessionByDigest(ctx, cryptox.DigestToken(s.Secret, raw))
}
