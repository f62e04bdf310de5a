package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/botdash/internal/auth/domain"
	"github.com/aussiebroadwan/botdash/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func newTestLogin(t *testing.T, provider *fakeProvider, guilds GuildMembership) *LoginService {
	t.Helper()

	st := newTestStore(t)
	sessions, err := NewSessionService(st, "session-secret")
	require.NoError(t, err)
	sessions.Now = fixedClock(testNow)

	return &LoginService{
		Provider: provider,
		Guilds:   guilds,
		Store:    st,
		Cipher:   newTestCipher(t),
		Sessions: sessions,
		Now:      fixedClock(testNow),
	}
}

func happyProvider() *fakeProvider {
	return &fakeProvider{
		token:   domain.ProviderToken{AccessToken: "access-1", RefreshToken: "refresh-1", ExpiresIn: 604800},
		profile: domain.Profile{ID: "1001", Username: "alice", Email: "alice@example.com"},
	}
}

func validCallback() CallbackRequest {
	return CallbackRequest{
		Code:           "abc",
		State:          "S",
		StateCookie:    "S",
		VerifierCookie: "V",
	}
}

func TestBeginLogin(t *testing.T) {
	svc := newTestLogin(t, happyProvider(), nil)

	start, err := svc.BeginLogin("/bots/42")
	require.NoError(t, err)
	require.Len(t, start.State, 43)
	require.Len(t, start.Verifier, 43)
	require.Equal(t, "/bots/42", start.Redirect)

	u, err := url.Parse(start.URL)
	require.NoError(t, err)
	require.Equal(t, start.State, u.Query().Get("state"))
	require.Equal(t, cryptox.S256Challenge(start.Verifier), u.Query().Get("code_challenge"))

	again, err := svc.BeginLogin("")
	require.NoError(t, err)
	require.NotEqual(t, start.State, again.State)
	require.NotEqual(t, start.Verifier, again.Verifier)
	require.Equal(t, "/dashboard", again.Redirect)
}

func TestCompleteLogin_RejectsBeforeExchange(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CallbackRequest)
		code   string
	}{
		{"missing code", func(r *CallbackRequest) { r.Code = "" }, CallbackErrMissingCode},
		{"missing state", func(r *CallbackRequest) { r.State = "" }, CallbackErrMissingCode},
		{"state mismatch", func(r *CallbackRequest) { r.StateCookie = "S2" }, CallbackErrInvalidState},
		{"no state cookie", func(r *CallbackRequest) { r.StateCookie = "" }, CallbackErrInvalidState},
		{"no verifier cookie", func(r *CallbackRequest) { r.VerifierCookie = "" }, CallbackErrInvalidState},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			provider := happyProvider()
			svc := newTestLogin(t, provider, nil)

			req := validCallback()
			tc.mutate(&req)
			res := svc.CompleteLogin(context.Background(), req)

			require.Equal(t, "/login?error="+tc.code, res.Location)
			require.Nil(t, res.Session)
			require.Empty(t, provider.exchanges, "no provider call before the state check passes")
			require.Zero(t, provider.profileCalls)
		})
	}
}

func TestCompleteLogin_Success(t *testing.T) {
	ctx := context.Background()
	provider := happyProvider()
	svc := newTestLogin(t, provider, &fakeGuilds{member: true})

	res := svc.CompleteLogin(ctx, validCallback())
	require.NoError(t, res.Err)
	require.Equal(t, []exchangeCall{{"abc", "V"}}, provider.exchanges)
	require.Equal(t, 1, provider.profileCalls)

	require.NotNil(t, res.Session)
	require.Equal(t, 604800*time.Second, res.Session.MaxAge)
	require.Equal(t, "/select-server", res.Location, "first login goes to onboarding")

	sess, err := svc.Sessions.ValidateSession(ctx, res.Session.Token)
	require.NoError(t, err)
	require.Equal(t, "1001", sess.UserID)
	require.True(t, testNow.Add(604800*time.Second).Equal(sess.ExpiresAt))

	u, err := svc.Store.Users().GetUserByID(ctx, "1001")
	require.NoError(t, err)
	require.Equal(t, "alice", u.Username)
	require.True(t, u.InGuild)
	require.False(t, u.NeedsInvite)
	require.NotContains(t, u.AccessTokenEnc, "access-1")

	access, err := svc.Cipher.Decrypt(u.AccessTokenEnc)
	require.NoError(t, err)
	require.Equal(t, "access-1", access)
}

func TestCompleteLogin_NextPath(t *testing.T) {
	ctx := context.Background()

	t.Run("needs invite wins over everything", func(t *testing.T) {
		svc := newTestLogin(t, happyProvider(), &fakeGuilds{addErr: errors.New("forbidden")})
		seedSelection(t, svc)

		req := validCallback()
		req.RedirectCookie = "/bots/1"
		res := svc.CompleteLogin(ctx, req)
		require.Equal(t, "/join", res.Location)
		require.NotNil(t, res.Session)

		u, err := svc.Store.Users().GetUserByID(ctx, "1001")
		require.NoError(t, err)
		require.True(t, u.NeedsInvite)
	})

	t.Run("membership check failure needs invite", func(t *testing.T) {
		svc := newTestLogin(t, happyProvider(), &fakeGuilds{checkErr: errors.New("503")})
		res := svc.CompleteLogin(ctx, validCallback())
		require.Equal(t, "/join", res.Location)
	})

	t.Run("auto join succeeds", func(t *testing.T) {
		guilds := &fakeGuilds{}
		svc := newTestLogin(t, happyProvider(), guilds)
		seedSelection(t, svc)

		res := svc.CompleteLogin(ctx, validCallback())
		require.Equal(t, []string{"1001"}, guilds.added)
		require.Equal(t, "/dashboard", res.Location)
	})

	t.Run("honors requested target", func(t *testing.T) {
		svc := newTestLogin(t, happyProvider(), nil)
		seedSelection(t, svc)

		req := validCallback()
		req.RedirectCookie = "/bots/42?tab=logs"
		require.Equal(t, "/bots/42?tab=logs", svc.CompleteLogin(ctx, req).Location)
	})

	t.Run("never returns to server selection", func(t *testing.T) {
		svc := newTestLogin(t, happyProvider(), nil)
		seedSelection(t, svc)

		for _, target := range []string{"/select-server", "select-server"} {
			req := validCallback()
			req.RedirectCookie = target
			require.Equal(t, "/dashboard", svc.CompleteLogin(ctx, req).Location)
		}
	})
}

// seedSelection stores the user with an onboarding choice already made.
func seedSelection(t *testing.T, svc *LoginService) {
	t.Helper()
	ctx := context.Background()
	_, err := svc.Store.Users().UpsertUser(ctx, domain.User{ID: "1001", Username: "alice"})
	require.NoError(t, err)
	require.NoError(t, svc.Store.Users().SetSelectedGuild(ctx, "1001", "guild-1"))
}

func TestCompleteLogin_UpstreamFailures(t *testing.T) {
	t.Run("exchange fails", func(t *testing.T) {
		provider := happyProvider()
		provider.exchangeErr = errors.New("invalid_grant")
		svc := newTestLogin(t, provider, nil)

		res := svc.CompleteLogin(context.Background(), validCallback())
		require.Equal(t, "/login?error=callback_failed", res.Location)
		require.Nil(t, res.Session)
		require.ErrorIs(t, res.Err, provider.exchangeErr)
		require.Zero(t, provider.profileCalls)
	})

	t.Run("profile fails", func(t *testing.T) {
		provider := happyProvider()
		provider.profileErr = errors.New("401")
		svc := newTestLogin(t, provider, nil)

		res := svc.CompleteLogin(context.Background(), validCallback())
		require.Equal(t, "/login?error=callback_failed", res.Location)

		_, err := svc.Store.Users().GetUserByID(context.Background(), "1001")
		require.Error(t, err, "nothing is stored before the profile is known")
	})
}

func TestSanitizeRedirect(t *testing.T) {
	svc := &LoginService{Paths: LoginPaths{Dashboard: "/home"}}

	tests := map[string]string{
		"":                     "/home",
		"/bots":                "/bots",
		"/bots?x=1#frag":       "/bots?x=1#frag",
		"//evil.example":       "/home",
		"https://evil.example": "/home",
		"/\\evil.example":      "/home",
		"bots":                 "/home",
		"/ok\r\nSet-Cookie: x": "/home",
		"javascript:alert(1)":  "/home",
	}
	for in, want := range tests {
		t.Run(strings.ReplaceAll(in, "/", "_"), func(t *testing.T) {
			require.Equal(t, want, svc.SanitizeRedirect(in))
		})
	}
}
