// Package discord talks to Discord as the dashboard's identity provider and
// as the community guild's membership authority.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/botdash/internal/auth/domain"
	"github.com/aussiebroadwan/botdash/pkg/cryptox"
	"github.com/aussiebroadwan/botdash/pkg/httpx"
	"golang.org/x/oauth2"
)

const (
	DefaultAPIURL   = "https://discord.com/api/v10"
	DefaultAuthURL  = "https://discord.com/oauth2/authorize"
	DefaultTokenURL = "https://discord.com/api/oauth2/token"
)

// DefaultScopes covers the profile, the guild list and auto-joining the
// community guild.
var DefaultScopes = []string{"identify", "email", "guilds", "guilds.join"}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// BotToken and GuildID are only needed for membership calls.
	BotToken string
	GuildID  string

	APIURL   string
	AuthURL  string
	TokenURL string

	HTTPClient *http.Client
}

// Client implements the login provider and guild membership contracts.
type Client struct {
	oauth    *oauth2.Config
	api      string
	botToken string
	guildID  string
	http     *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		api:      strings.TrimRight(cfg.APIURL, "/"),
		botToken: cfg.BotToken,
		guildID:  cfg.GuildID,
		http:     cfg.HTTPClient,
	}
}

// AuthCodeURL builds the consent URL with an S256 code challenge.
func (c *Client) AuthCodeURL(state, challenge string) string {
	return c.oauth.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", cryptox.PKCEMethodS256),
	)
}

// ExchangeCode redeems an authorization code together with its verifier.
func (c *Client) ExchangeCode(ctx context.Context, code, verifier string) (domain.ProviderToken, error) {
	tok, err := c.oauth.Exchange(c.oauthContext(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		return domain.ProviderToken{}, fmt.Errorf("discord token exchange: %w", mapRetrieveError(err))
	}
	return providerToken(tok), nil
}

// RefreshToken runs the refresh_token grant.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (domain.ProviderToken, error) {
	src := c.oauth.TokenSource(c.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return domain.ProviderToken{}, fmt.Errorf("discord token refresh: %w", mapRetrieveError(err))
	}
	return providerToken(tok), nil
}

// FetchProfile loads the user behind an access token.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (domain.Profile, error) {
	var p domain.Profile
	err := c.do(ctx, "discord profile", http.MethodGet, "/users/@me", "Bearer "+accessToken, nil, &p)
	return p, err
}

// ListUserGuilds lists the guilds the user is in.
func (c *Client) ListUserGuilds(ctx context.Context, accessToken string) ([]domain.ProviderGuild, error) {
	var guilds []domain.ProviderGuild
	err := c.do(ctx, "discord user guilds", http.MethodGet, "/users/@me/guilds", "Bearer "+accessToken, nil, &guilds)
	return guilds, err
}

// IsMember reports whether userID belongs to the configured guild.
func (c *Client) IsMember(ctx context.Context, userID string) (bool, error) {
	err := c.do(ctx, "discord guild member", http.MethodGet, c.memberPath(userID), "Bot "+c.botToken, nil, nil)
	switch {
	case err == nil:
		return true, nil
	case httpx.IsStatus(err, http.StatusNotFound):
		return false, nil
	default:
		return false, err
	}
}

// AddMember joins userID to the configured guild using their own access
// token, which must carry the guilds.join scope.
func (c *Client) AddMember(ctx context.Context, userID, accessToken string) error {
	body := map[string]string{"access_token": accessToken}
	return c.do(ctx, "discord add guild member", http.MethodPut, c.memberPath(userID), "Bot "+c.botToken, body, nil)
}

func (c *Client) memberPath(userID string) string {
	return "/guilds/" + url.PathEscape(c.guildID) + "/members/" + url.PathEscape(userID)
}

func (c *Client) do(ctx context.Context, op, method, path, authorization string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.api+path, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", authorization)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return httpx.DecodeUpstream(op, resp, out)
}

// oauthContext hands our http.Client to x/oauth2.
func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.http)
}

func providerToken(tok *oauth2.Token) domain.ProviderToken {
	expiresIn := tok.ExpiresIn
	if expiresIn <= 0 && !tok.Expiry.IsZero() {
		expiresIn = int64(time.Until(tok.Expiry).Round(time.Second) / time.Second)
	}
	return domain.ProviderToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    expiresIn,
	}
}

// mapRetrieveError turns x/oauth2's error into our UpstreamError so callers
// see one error shape for every Discord call.
func mapRetrieveError(err error) error {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) || re.Response == nil {
		return err
	}
	return &httpx.UpstreamError{Op: "discord oauth2", StatusCode: re.Response.StatusCode, Body: string(re.Body)}
}
