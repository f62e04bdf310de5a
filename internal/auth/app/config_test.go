package app

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/botdash/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		StoreDriver:         StoreDriverSQLite,
		PublicURL:           "https://dash.example.com",
		EncryptionKey:       "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f",
		SessionSecret:       "secret",
		DiscordClientID:     "id",
		DiscordClientSecret: "shh",
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("PUBLIC_URL", "https://dash.example.com/")
	t.Setenv("DISCORD_SCOPES", "identify  guilds")
	t.Setenv("GUILD_CACHE_TTL", "30")
	t.Setenv("IDENTITY_CACHE_TTL", "2m")

	cfg := LoadConfig()
	require.Equal(t, "https://dash.example.com", cfg.PublicURL)
	require.Equal(t, "https://dash.example.com/v1/auth/callback", cfg.DiscordRedirectURL)
	require.Equal(t, []string{"identify", "guilds"}, cfg.DiscordScopes)
	require.Equal(t, 30*time.Second, cfg.GuildCacheTTL)
	require.Equal(t, 2*time.Minute, cfg.IdentityCacheTTL)
	require.Equal(t, StoreDriverSQLite, cfg.StoreDriver)
	require.True(t, cfg.SecureCookies())
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name    string
		mutate  func(*Config)
		setting string
	}{
		{"missing encryption key", func(c *Config) { c.EncryptionKey = "" }, "ENCRYPTION_KEY"},
		{"missing session secret", func(c *Config) { c.SessionSecret = "" }, "SESSION_SECRET"},
		{"missing client id", func(c *Config) { c.DiscordClientID = "" }, "DISCORD_CLIENT_ID"},
		{"rest without url", func(c *Config) { c.StoreDriver = StoreDriverREST }, "STORE_REST_URL"},
		{"unknown driver", func(c *Config) { c.StoreDriver = "mongo" }, "STORE_DRIVER"},
		{"guild without bot token", func(c *Config) { c.DiscordGuildID = "g" }, "DISCORD_BOT_TOKEN"},
		{"provisioner without secret", func(c *Config) { c.ProvisionerURL = "http://p" }, "PROVISIONER_SECRET"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)

			var cfgErr *cryptox.ConfigError
			require.ErrorAs(t, cfg.Validate(), &cfgErr)
			require.Equal(t, tc.setting, cfgErr.Setting)
		})
	}
}

func TestNew_RejectsBadEncryptionKey(t *testing.T) {
	cfg := validConfig()
	cfg.DatabaseFile = t.TempDir() + "/botdash.db"
	cfg.EncryptionKey = "too-short"
	cfg.LogLevel = "error"

	_, err := New(cfg)
	var cfgErr *cryptox.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "ENCRYPTION_KEY", cfgErr.Setting)
}
