package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/botdash/internal/auth/domain"
	"github.com/aussiebroadwan/botdash/internal/auth/store"
	"github.com/aussiebroadwan/botdash/pkg/cryptox"
	"github.com/aussiebroadwan/botdash/pkg/slogx"
)

const (
	// RefreshMargin is how close to expiry a token may get before we refresh.
	RefreshMargin = 30 * time.Second

	// DefaultTokenLifetime applies when the provider omits expires_in.
	DefaultTokenLifetime = 3600 * time.Second
)

var (
	ErrMissingTokens       = errors.New("missing_tokens")
	ErrMissingRefreshToken = errors.New("missing_refresh_token")
)

// TokenRefresher hands out a usable provider access token for a user,
// refreshing and re-sealing it when it is close to expiry.
type TokenRefresher struct {
	Store    store.Store
	Cipher   *cryptox.SecretCipher
	Provider IdentityProvider
	Now      func() time.Time
}

// EnsureValidAccessToken returns a plaintext access token valid for at least
// RefreshMargin. A token that cannot be decrypted or has no recorded expiry
// is refreshed rather than treated as fatal.
func (r *TokenRefresher) EnsureValidAccessToken(ctx context.Context, user domain.User) (string, error) {
	log := slogx.FromContext(ctx).With("user_id", user.ID)

	if user.AccessTokenEnc == "" {
		return "", ErrMissingTokens
	}

	now := r.Now()
	access, err := r.Cipher.Decrypt(user.AccessTokenEnc)
	switch {
	case err != nil:
		log.Warn("stored access token unreadable, refreshing", "error", err)
	case user.TokenExpiresAt == nil:
		log.Debug("access token has no expiry, refreshing")
	case user.TokenExpiresAt.After(now.Add(RefreshMargin)):
		return access, nil
	}

	if user.RefreshTokenEnc == "" {
		return "", ErrMissingRefreshToken
	}
	refresh, err := r.Cipher.Decrypt(user.RefreshTokenEnc)
	if err != nil {
		return "", fmt.Errorf("decrypt refresh token: %w", err)
	}

	tok, err := r.Provider.RefreshToken(ctx, refresh)
	if err != nil {
		return "", fmt.Errorf("refresh access token: %w", err)
	}

	// Providers may rotate the refresh token or leave it out; keep the old one
	// in the latter case.
	if tok.RefreshToken == "" {
		tok.RefreshToken = refresh
	}

	if err := sealTokens(r.Cipher, &user, tok, now); err != nil {
		return "", err
	}
	if _, err := r.Store.Users().UpsertUser(ctx, user); err != nil {
		return "", fmt.Errorf("store refreshed tokens: %w", err)
	}

	log.Info("provider access token refreshed", "expires_at", user.TokenExpiresAt)
	return tok.AccessToken, nil
}

// TokenLifetime converts expires_in seconds to a duration, falling back to
// DefaultTokenLifetime when the provider did not say.
func TokenLifetime(expiresIn int64) time.Duration {
	if expiresIn <= 0 {
		return DefaultTokenLifetime
	}
	return time.Duration(expiresIn) * time.Second
}

// sealTokens encrypts both provider tokens onto u and stamps the expiry.
func sealTokens(c *cryptox.SecretCipher, u *domain.User, tok domain.ProviderToken, now time.Time) error {
	access, err := c.Encrypt(tok.AccessToken)
	if err != nil {
		return fmt.Errorf("encrypt access token: %w", err)
	}
	refresh, err := c.Encrypt(tok.RefreshToken)
	if err != nil {
		return fmt.Errorf("encrypt refresh token: %w", err)
	}

	expiresAt := now.Add(TokenLifetime(tok.ExpiresIn)).UTC()
	u.AccessTokenEnc = access
	u.RefreshTokenEnc = refresh
	u.TokenExpiresAt = &expiresAt
	return nil
}
