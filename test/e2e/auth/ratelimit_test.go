package auth_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/botdash/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestLoginRateLimit relies on the default strict limit of ten handshakes
// per minute per IP.
func TestLoginRateLimit(t *testing.T) {
	client := setupContainerWithDefaultRateLimits(t)

	for i := range 10 {
		_, err := client.BeginLogin(t.Context(), "")
		require.NoError(t, err, "login %d should be allowed", i+1)
	}

	_, err := client.BeginLogin(t.Context(), "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")

	// Health checks are not behind the login limiter.
	health, err := client.GetLiveness(t.Context())
	assertHealthy(t, health, err)

	_, err = client.WithSession("").GetMe(t.Context())
	assertAPIError(t, err, http.StatusUnauthorized, authsdk.ErrorCodeSessionNotFound)
}
