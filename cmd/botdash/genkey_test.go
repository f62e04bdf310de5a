package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aussiebroadwan/botdash/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestGenKey_PrintsUsableSecrets(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"genkey", "--env-file", ""})
	require.NoError(t, cmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, len(generatedSettings))

	values := map[string]string{}
	for _, line := range lines {
		name, value, ok := strings.Cut(line, "=")
		require.True(t, ok, line)
		values[name] = value
	}

	_, err := cryptox.NewSecretCipher(values["ENCRYPTION_KEY"])
	require.NoError(t, err)
	require.NotEqual(t, values["SESSION_SECRET"], values["PROVISIONER_SECRET"])
}

func TestLoadEnvFile(t *testing.T) {
	require.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("BOTDASH_TEST_SETTING=from-file\n"), 0o600))

	t.Setenv("BOTDASH_TEST_SETTING", "")
	require.NoError(t, os.Unsetenv("BOTDASH_TEST_SETTING"))
	require.NoError(t, loadEnvFile(path))
	require.Equal(t, "from-file", os.Getenv("BOTDASH_TEST_SETTING"))

	t.Setenv("BOTDASH_TEST_SETTING", "from-env")
	require.NoError(t, loadEnvFile(path))
	require.Equal(t, "from-env", os.Getenv("BOTDASH_TEST_SETTING"))
}
