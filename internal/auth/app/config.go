package app

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/botdash/pkg/cryptox"
	"github.com/aussiebroadwan/botdash/pkg/httpx"
)

const (
	StoreDriverSQLite = "sqlite"
	StoreDriverREST   = "rest"
)

var errRequired = errors.New("must be set")

type Config struct {
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired session sweep interval (default: 1h)
	PublicURL            string        // Public base URL; https turns on Secure cookies (default: http://localhost:8080)

	StoreDriver  string // sqlite or rest (default: sqlite)
	DatabaseFile string // SQLite database file (default: ./botdash.db)
	StoreRESTURL string // Required for the rest driver
	StoreRESTKey string // Service key for the rest driver

	EncryptionKey string // Required: 32-byte key sealing provider tokens at rest
	SessionSecret string // Required: HMAC key for session token digests
	BotSecretKey  string // Optional: key of sealed bot credentials handed over by the provisioner

	DiscordClientID     string   // Required
	DiscordClientSecret string   // Required
	DiscordRedirectURL  string   // Default: {PublicURL}/v1/auth/callback
	DiscordScopes       []string // Space delimited (default: identify email guilds guilds.join)
	DiscordBotToken     string   // Needed for guild membership checks
	DiscordGuildID      string   // Community guild; membership checks are skipped when empty
	DiscordAPIURL       string
	DiscordAuthURL      string
	DiscordTokenURL     string

	ProvisionerURL    string // Optional: bot and guild lookups are disabled when empty
	ProvisionerSecret string // Shared HS256 secret for provisioner service tokens

	IdentityCacheTTL time.Duration // Bot identity cache lifetime (default: 5m)
	GuildCacheTTL    time.Duration // Guild metadata cache lifetime (default: 15s)
	UpstreamTimeout  time.Duration // Timeout for calls to Discord and the provisioner (default: 10s)

	DashboardPath  string
	OnboardingPath string
	JoinPath       string
	LoginPath      string
}

func LoadConfig() Config {
	cfg := Config{
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
		PublicURL:            strings.TrimRight(getEnvOrDefault("PUBLIC_URL", "http://localhost:8080"), "/"),

		StoreDriver:  getEnvOrDefault("STORE_DRIVER", StoreDriverSQLite),
		DatabaseFile: getEnvOrDefault("DATABASE_FILE", "botdash.db"),
		StoreRESTURL: os.Getenv("STORE_REST_URL"),
		StoreRESTKey: os.Getenv("STORE_REST_KEY"),

		EncryptionKey: os.Getenv("ENCRYPTION_KEY"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		BotSecretKey:  os.Getenv("BOT_SECRET_KEY"),

		DiscordClientID:     os.Getenv("DISCORD_CLIENT_ID"),
		DiscordClientSecret: os.Getenv("DISCORD_CLIENT_SECRET"),
		DiscordRedirectURL:  os.Getenv("DISCORD_REDIRECT_URL"),
		DiscordScopes:       httpx.ParseSpaceDelimitedFields(os.Getenv("DISCORD_SCOPES")),
		DiscordBotToken:     os.Getenv("DISCORD_BOT_TOKEN"),
		DiscordGuildID:      os.Getenv("DISCORD_GUILD_ID"),
		DiscordAPIURL:       os.Getenv("DISCORD_API_URL"),
		DiscordAuthURL:      os.Getenv("DISCORD_AUTH_URL"),
		DiscordTokenURL:     os.Getenv("DISCORD_TOKEN_URL"),

		ProvisionerURL:    os.Getenv("PROVISIONER_URL"),
		ProvisionerSecret: os.Getenv("PROVISIONER_SECRET"),

		IdentityCacheTTL: getEnvDurationOrDefault("IDENTITY_CACHE_TTL", 5*time.Minute),
		GuildCacheTTL:    getEnvDurationOrDefault("GUILD_CACHE_TTL", 15*time.Second),
		UpstreamTimeout:  getEnvDurationOrDefault("UPSTREAM_TIMEOUT", 10*time.Second),

		DashboardPath:  getEnvOrDefault("DASHBOARD_PATH", "/dashboard"),
		OnboardingPath: getEnvOrDefault("ONBOARDING_PATH", "/select-server"),
		JoinPath:       getEnvOrDefault("JOIN_PATH", "/join"),
		LoginPath:      getEnvOrDefault("LOGIN_PATH", "/login"),
	}

	if cfg.DiscordRedirectURL == "" {
		cfg.DiscordRedirectURL = cfg.PublicURL + "/v1/auth/callback"
	}

	return cfg
}

// Validate reports the first missing or malformed setting as a
// *cryptox.ConfigError. Keys are checked for shape when the services that
// use them are built.
func (c Config) Validate() error {
	required := []struct{ name, value string }{
		{"ENCRYPTION_KEY", c.EncryptionKey},
		{"SESSION_SECRET", c.SessionSecret},
		{"DISCORD_CLIENT_ID", c.DiscordClientID},
		{"DISCORD_CLIENT_SECRET", c.DiscordClientSecret},
	}
	for _, r := range required {
		if r.value == "" {
			return &cryptox.ConfigError{Setting: r.name, Err: errRequired}
		}
	}

	switch c.StoreDriver {
	case StoreDriverSQLite:
	case StoreDriverREST:
		if c.StoreRESTURL == "" {
			return &cryptox.ConfigError{Setting: "STORE_REST_URL", Err: errRequired}
		}
	default:
		return &cryptox.ConfigError{Setting: "STORE_DRIVER", Err: errors.New("must be sqlite or rest")}
	}

	if c.DiscordGuildID != "" && c.DiscordBotToken == "" {
		return &cryptox.ConfigError{Setting: "DISCORD_BOT_TOKEN", Err: errors.New("required when DISCORD_GUILD_ID is set")}
	}
	if c.ProvisionerURL != "" && c.ProvisionerSecret == "" {
		return &cryptox.ConfigError{Setting: "PROVISIONER_SECRET", Err: errors.New("required when PROVISIONER_URL is set")}
	}

	if _, err := url.Parse(c.PublicURL); err != nil {
		return &cryptox.ConfigError{Setting: "PUBLIC_URL", Err: err}
	}
	return nil
}

// SecureCookies reports whether cookies must carry the Secure attribute.
func (c Config) SecureCookies() bool {
	return strings.HasPrefix(strings.ToLower(c.PublicURL), "https://")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
