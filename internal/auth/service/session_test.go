package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/botdash/internal/auth/domain"
	"github.com/aussiebroadwan/botdash/pkg/cryptox"
	"github.com/aussiebroadwan/botdash/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func newTestSessions(t *testing.T) *SessionService {
	t.Helper()

	st := newTestStore(t)
	_, err := st.Users().UpsertUser(context.Background(), domain.User{ID: "1001", Username: "alice"})
	require.NoError(t, err)

	svc, err := NewSessionService(st, "session-secret")
	require.NoError(t, err)
	svc.Now = fixedClock(testNow)
	return svc
}

func TestNewSessionService_EmptySecret(t *testing.T) {
	_, err := NewSessionService(nil, "")
	var cfgErr *cryptox.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "SESSION_SECRET", cfgErr.Setting)
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newTestSessions(t)

	raw, err := svc.CreateSession(ctx, "1001", testNow.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, raw, 43)

	t.Run("valid token resolves", func(t *testing.T) {
		sess, err := svc.ValidateSession(ctx, raw)
		require.NoError(t, err)
		require.Equal(t, "1001", sess.UserID)
		require.NotEqual(t, raw, sess.TokenDigest, "raw token is never stored")
		require.Equal(t, cryptox.DigestToken([]byte("session-secret"), raw), sess.TokenDigest)
	})

	t.Run("unknown token is not found", func(t *testing.T) {
		_, err := svc.ValidateSession(ctx, "garbage")
		require.ErrorIs(t, err, ErrSessionNotFound)

		_, err = svc.ValidateSession(ctx, "")
		require.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("expired token is deleted", func(t *testing.T) {
		svc.Now = fixedClock(testNow.Add(2 * time.Hour))

		_, err := svc.ValidateSession(ctx, raw)
		require.ErrorIs(t, err, ErrSessionExpired)

		_, err = svc.ValidateSession(ctx, raw)
		require.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestSessionDelete(t *testing.T) {
	ctx := context.Background()
	svc := newTestSessions(t)

	raw, err := svc.CreateSession(ctx, "1001", testNow.Add(time.Hour))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSession(ctx, raw))
	require.NoError(t, svc.DeleteSession(ctx, raw))
	require.NoError(t, svc.DeleteSession(ctx, ""))

	_, err = svc.ValidateSession(ctx, raw)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionSecretBindsDigest(t *testing.T) {
	ctx := context.Background()
	svc := newTestSessions(t)

	raw, err := svc.CreateSession(ctx, "1001", testNow.Add(time.Hour))
	require.NoError(t, err)

	other := *svc
	other.Secret = []byte("another-secret")
	_, err = other.ValidateSession(ctx, raw)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestHousekeepingSweep(t *testing.T) {
	ctx := context.Background()
	svc := newTestSessions(t)

	_, err := svc.CreateSession(ctx, "1001", testNow.Add(-time.Minute))
	require.NoError(t, err)
	live, err := svc.CreateSession(ctx, "1001", testNow.Add(time.Hour))
	require.NoError(t, err)

	hk := NewHousekeepingService(svc.Store, slogx.Discard(), 0)
	require.Equal(t, time.Hour, hk.Interval)
	hk.Now = fixedClock(testNow)

	require.Equal(t, int64(1), hk.Sweep(ctx))
	require.Equal(t, int64(0), hk.Sweep(ctx))

	_, err = svc.ValidateSession(ctx, live)
	require.NoError(t, err)
}
