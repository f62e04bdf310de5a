package auth_test

import (
	"context"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/aussiebroadwan/botdash/pkg/authsdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testImageName = "botdash-test:latest"

	discordClientID = "123456789012345678"
	publicURL       = "http://localhost:8080"
)

// baseEnv configures the service with a throwaway SQLite file, no guild
// checks and no provisioner.
var baseEnv = map[string]string{
	"ENV":                   "test",
	"LOG_LEVEL":             "info",
	"LOG_FORMAT":            "json",
	"PUBLIC_URL":            publicURL,
	"DATABASE_FILE":         "/data/botdash.db",
	"ENCRYPTION_KEY":        "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f",
	"SESSION_SECRET":        "e2e-session-secret",
	"DISCORD_CLIENT_ID":     discordClientID,
	"DISCORD_CLIENT_SECRET": "e2e-client-secret",
}

// relaxedLimits keeps the login rate limiter out of the way of tests that
// start many handshakes.
var relaxedLimits = map[string]string{
	"RATELIMIT_STRICT_REQUESTS":   "1000",
	"RATELIMIT_STRICT_WINDOW_SEC": "60",
	"RATELIMIT_STRICT_BURST":      "1000",
}

// TestMain builds the image once for every test in the package and removes
// it afterwards.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building botdash Docker image...")
	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up botdash Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	cmd := exec.CommandContext(context.Background(), "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/botdash/Dockerfile",
		"../../../")
	cmd.Stdout = os.Stdout
	return cmd.Run()
}

func cleanupDockerImage() {
	_ = exec.CommandContext(context.Background(), "docker", "rmi", "-f", testImageName).Run()
}

// setupContainer starts botdash with relaxed rate limits and returns a client
// for it.
func setupContainer(t *testing.T) *authsdk.SDKClient {
	t.Helper()
	env := maps.Clone(baseEnv)
	maps.Copy(env, relaxedLimits)
	return startContainer(t, env)
}

// setupContainerWithDefaultRateLimits is for tests that exercise the limiter
// itself.
func setupContainerWithDefaultRateLimits(t *testing.T) *authsdk.SDKClient {
	t.Helper()
	return startContainer(t, maps.Clone(baseEnv))
}

func startContainer(t *testing.T, env map[string]string) *authsdk.SDKClient {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        testImageName,
			ExposedPorts: []string{"8080/tcp"},
			Env:          env,
			WaitingFor: wait.ForHTTP("/livez").
				WithPort("8080/tcp").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)
	host, err := container.Host(ctx)
	require.NoError(t, err)

	return authsdk.NewSDKClient(fmt.Sprintf("http://%s:%s", host, mappedPort.Port()))
}

// assertAPIError checks err is an API error with the given status and code.
func assertAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	require.Error(t, err)

	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.StatusCode)
	require.Equal(t, code, apiErr.Code)
}

func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
