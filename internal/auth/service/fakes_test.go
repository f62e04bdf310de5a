package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/botdash/internal/auth/domain"
	"github.com/aussiebroadwan/botdash/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/botdash/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

const testEncryptionKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "botdash.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

func newTestCipher(t *testing.T) *cryptox.SecretCipher {
	t.Helper()

	c, err := cryptox.NewSecretCipher(testEncryptionKey)
	require.NoError(t, err)
	return c
}

type exchangeCall struct{ code, verifier string }

// fakeProvider records every call and answers from its fields.
type fakeProvider struct {
	mu sync.Mutex

	token     domain.ProviderToken
	refreshed domain.ProviderToken
	profile   domain.Profile
	guilds    []domain.ProviderGuild

	exchangeErr error
	profileErr  error
	refreshErr  error

	exchanges    []exchangeCall
	profileCalls int
	refreshCalls []string
}

func (p *fakeProvider) AuthCodeURL(state, challenge string) string {
	return "https://idp.test/authorize?state=" + state + "&code_challenge=" + challenge
}

func (p *fakeProvider) ExchangeCode(_ context.Context, code, verifier string) (domain.ProviderToken, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exchanges = append(p.exchanges, exchangeCall{code, verifier})
	return p.token, p.exchangeErr
}

func (p *fakeProvider) RefreshToken(_ context.Context, refreshToken string) (domain.ProviderToken, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refreshCalls = append(p.refreshCalls, refreshToken)
	return p.refreshed, p.refreshErr
}

func (p *fakeProvider) FetchProfile(_ context.Context, accessToken string) (domain.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profileCalls++
	if accessToken != p.token.AccessToken {
		return domain.Profile{}, errors.New("unexpected access token")
	}
	return p.profile, p.profileErr
}

func (p *fakeProvider) ListUserGuilds(_ context.Context, accessToken string) ([]domain.ProviderGuild, error) {
	if accessToken == "" {
		return nil, errors.New("no token")
	}
	return p.guilds, nil
}

type fakeGuilds struct {
	member   bool
	checkErr error
	addErr   error
	added    []string
}

func (g *fakeGuilds) IsMember(context.Context, string) (bool, error) {
	return g.member, g.checkErr
}

func (g *fakeGuilds) AddMember(_ context.Context, userID, _ string) error {
	g.added = append(g.added, userID)
	return g.addErr
}
