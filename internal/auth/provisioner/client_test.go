package provisioner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/aussiebroadwan/botdash/pkg/httpx"
	"github.com/aussiebroadwan/botdash/pkg/jwtx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "provisioner-shared-secret"

func newTestProvisioner(t *testing.T) (*Client, *atomic.Int32) {
	t.Helper()

	verifier := jwtx.NewVerifierHS256([]byte(testSecret), Issuer, []string{Audience})
	var calls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/tenants/{tenant}/bot", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		claims, err := verifier.Verify(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, []string{"bots:read"}, claims.Scopes)
		assert.Equal(t, jwtx.DefaultServiceTokenTTL, claims.ExpiresAt.Sub(claims.IssuedAt.Time))

		switch r.PathValue("tenant") {
		case "t1":
			httpx.WriteJSON(w, http.StatusOK, map[string]any{
				"tenant_id": "t1", "application_id": "app-1", "username": "Helper",
				"token": "sealed-token", "updated_at": "2025-03-01T12:00:00Z",
			})
		case "broken":
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream sad"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	mux.HandleFunc("GET /v1/guilds/{guild}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("guild") != "g1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"id": "g1", "name": "Guild", "member_count": 42, "bot_present": true})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL+"/", testSecret, srv.Client())
	require.NoError(t, err)
	return c, &calls
}

func TestNewClient_EmptySecret(t *testing.T) {
	_, err := NewClient("http://localhost", "", nil)
	require.Error(t, err)
}

func TestGetBotIdentity(t *testing.T) {
	ctx := context.Background()
	c, calls := newTestProvisioner(t)

	bot, err := c.GetBotIdentity(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, "Helper", bot.Username)
	require.Equal(t, "sealed-token", bot.Token)
	require.Equal(t, 2025, bot.UpdatedAt.Year())

	bot, err = c.GetBotIdentity(ctx, "nobody")
	require.NoError(t, err)
	require.Nil(t, bot)

	_, err = c.GetBotIdentity(ctx, "broken")
	var ue *httpx.UpstreamError
	require.ErrorAs(t, err, &ue)
	require.Equal(t, http.StatusBadGateway, ue.StatusCode)
	require.Equal(t, "upstream sad", ue.Body)

	require.Equal(t, int32(3), calls.Load())
}

func TestGetGuild(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestProvisioner(t)

	g, err := c.GetGuild(ctx, "g1")
	require.NoError(t, err)
	require.Equal(t, 42, g.MemberCount)
	require.True(t, g.BotPresent)

	g, err = c.GetGuild(ctx, "g2")
	require.NoError(t, err)
	require.Nil(t, g)
}
