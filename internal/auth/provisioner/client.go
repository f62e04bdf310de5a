// Package provisioner reads bot and guild records from the provisioner
// service that owns them.
package provisioner

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/botdash/internal/auth/domain"
	"github.com/aussiebroadwan/botdash/pkg/httpx"
	"github.com/aussiebroadwan/botdash/pkg/jwtx"
)

const (
	// Issuer and Audience of the service tokens we mint.
	Issuer   = "botdash"
	Audience = "provisioner"

	// ScopeCacheInvalidate lets the provisioner evict cached bot and guild
	// records after it changes them. Its tokens carry the reverse
	// issuer and audience.
	ScopeCacheInvalidate = "cache:invalidate"
)

// NewCallbackVerifier verifies tokens the provisioner signs when it calls
// back into botdash.
func NewCallbackVerifier(secret string) *jwtx.HS256Verifier {
	return jwtx.NewVerifierHS256([]byte(secret), Audience, []string{Issuer})
}

// Client calls the provisioner with a short-lived HS256 token per request.
type Client struct {
	baseURL string
	signer  jwtx.Signer
	http    *http.Client
	now     func() time.Time
}

// NewClient fails when the shared secret is empty.
func NewClient(baseURL, secret string, hc *http.Client) (*Client, error) {
	signer, err := jwtx.NewSignerHS256([]byte(secret))
	if err != nil {
		return nil, err
	}
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		signer:  signer,
		http:    hc,
		now:     time.Now,
	}, nil
}

// botRecord is the provisioner's wire shape; the credential is carried as
// sent, usually sealed.
type botRecord struct {
	TenantID      string    `json:"tenant_id"`
	ApplicationID string    `json:"application_id"`
	Username      string    `json:"username"`
	Avatar        string    `json:"avatar"`
	Token         string    `json:"token"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// GetBotIdentity returns nil, nil when the tenant has no bot.
func (c *Client) GetBotIdentity(ctx context.Context, tenantID string) (*domain.BotIdentity, error) {
	var rec botRecord
	found, err := c.get(ctx, "provisioner bot identity", "/v1/tenants/"+url.PathEscape(tenantID)+"/bot", []string{"bots:read"}, &rec)
	if err != nil || !found {
		return nil, err
	}
	return &domain.BotIdentity{
		TenantID:      rec.TenantID,
		ApplicationID: rec.ApplicationID,
		Username:      rec.Username,
		Avatar:        rec.Avatar,
		Token:         rec.Token,
		UpdatedAt:     rec.UpdatedAt,
	}, nil
}

// GetGuild returns nil, nil for an unknown guild.
func (c *Client) GetGuild(ctx context.Context, guildID string) (*domain.GuildInfo, error) {
	var g domain.GuildInfo
	found, err := c.get(ctx, "provisioner guild", "/v1/guilds/"+url.PathEscape(guildID), []string{"guilds:read"}, &g)
	if err != nil || !found {
		return nil, err
	}
	return &g, nil
}

// Ping checks the provisioner answers at all.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx, "provisioner health", "/healthz", nil, nil)
	return err
}

func (c *Client) get(ctx context.Context, op, path string, scopes []string, out any) (bool, error) {
	token, err := c.signer.Sign(jwtx.NewServiceClaims(Issuer, Audience, scopes, jwtx.DefaultServiceTokenTTL, c.now()))
	if err != nil {
		return false, fmt.Errorf("%s: sign service token: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	err = httpx.DecodeUpstream(op, resp, out)
	if httpx.IsStatus(err, http.StatusNotFound) {
		return false, nil
	}
	return err == nil, err
}
