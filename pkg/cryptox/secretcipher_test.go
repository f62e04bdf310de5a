package cryptox_test

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/aussiebroadwan/botdash/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

const testHexKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newTestCipher(t *testing.T) *cryptox.SecretCipher {
	t.Helper()
	c, err := cryptox.NewSecretCipher(testHexKey)
	require.NoError(t, err)
	return c
}

func TestSecretCipher_RoundTrip(t *testing.T) {
	c := newTestCipher(t)

	for _, plaintext := range []string{"", "hello", "access-token-with-ünïcode", strings.Repeat("x", 4096)} {
		token, err := c.Encrypt(plaintext)
		require.NoError(t, err)
		require.Len(t, strings.Split(token, "."), 3)

		got, err := c.Decrypt(token)
		require.NoError(t, err)
		require.Equal(t, plaintext, got)
	}
}

func TestSecretCipher_FreshNonce(t *testing.T) {
	c := newTestCipher(t)

	a, err := c.Encrypt("same")
	require.NoError(t, err)
	b, err := c.Encrypt("same")
	require.NoError(t, err)

	require.NotEqual(t, a, b, "each call should use a new nonce")
}

func TestSecretCipher_Tamper(t *testing.T) {
	c := newTestCipher(t)

	token, err := c.Encrypt("hello")
	require.NoError(t, err)
	parts := strings.Split(token, ".")

	flip := func(field string) string {
		raw, err := base64.RawURLEncoding.DecodeString(field)
		require.NoError(t, err)
		raw[0] ^= 0x01
		return base64.RawURLEncoding.EncodeToString(raw)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"nonce", strings.Join([]string{flip(parts[0]), parts[1], parts[2]}, ".")},
		{"tag", strings.Join([]string{parts[0], flip(parts[1]), parts[2]}, ".")},
		{"ciphertext", strings.Join([]string{parts[0], parts[1], flip(parts[2])}, ".")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Decrypt(tt.token)
			require.ErrorIs(t, err, cryptox.ErrDecrypt)
			require.Empty(t, got)
		})
	}
}

func TestSecretCipher_MalformedToken(t *testing.T) {
	c := newTestCipher(t)

	token, err := c.Encrypt("hello")
	require.NoError(t, err)
	parts := strings.Split(token, ".")

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"two fields", parts[0] + "." + parts[1]},
		{"four fields", token + ".extra"},
		{"bad base64", "!!!." + parts[1] + "." + parts[2]},
		{"short nonce", "AAAA." + parts[1] + "." + parts[2]},
		{"short tag", parts[0] + ".AAAA." + parts[2]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Decrypt(tt.token)
			require.ErrorIs(t, err, cryptox.ErrInvalidToken)
		})
	}
}

func TestSecretCipher_WrongKey(t *testing.T) {
	c := newTestCipher(t)
	token, err := c.Encrypt("hello")
	require.NoError(t, err)

	other, err := cryptox.NewSecretCipher(strings.Repeat("ab", 32))
	require.NoError(t, err)

	_, err = other.Decrypt(token)
	require.ErrorIs(t, err, cryptox.ErrDecrypt)
}

func TestNewSecretCipher_KeyFormats(t *testing.T) {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i)
	}

	valid := map[string]string{
		"hex":        testHexKey,
		"std base64": base64.StdEncoding.EncodeToString(raw),
		"url base64": base64.URLEncoding.EncodeToString(raw),
		"raw url":    base64.RawURLEncoding.EncodeToString(raw),
	}
	for name, key := range valid {
		t.Run(name, func(t *testing.T) {
			_, err := cryptox.NewSecretCipher(key)
			require.NoError(t, err)
		})
	}

	invalid := map[string]string{
		"empty":        "",
		"short hex":    "abcd",
		"16 byte b64":  base64.StdEncoding.EncodeToString(raw[:16]),
		"not encoded":  "this is definitely not a key!!",
		"odd hex char": strings.Repeat("z", 64),
	}
	for name, key := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := cryptox.NewSecretCipher(key)
			require.ErrorIs(t, err, cryptox.ErrInvalidKey)

			var cfgErr *cryptox.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			require.Equal(t, "ENCRYPTION_KEY", cfgErr.Setting)
		})
	}
}
