package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Session calls the API as a logged in dashboard user.
type Session struct {
	client *SDKClient
	token  string
}

// GetMe returns the logged in user.
func (s *Session) GetMe(ctx context.Context) (*UserResponse, error) {
	var u UserResponse
	if err := s.getJSON(ctx, "/v1/me", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListMyGuilds lists the user's guilds at the identity provider.
func (s *Session) ListMyGuilds(ctx context.Context) ([]UserGuildResponse, error) {
	var guilds []UserGuildResponse
	if err := s.getJSON(ctx, "/v1/me/guilds", &guilds); err != nil {
		return nil, err
	}
	return guilds, nil
}

// SelectGuild records the user's onboarding guild choice.
func (s *Session) SelectGuild(ctx context.Context, guildID string) error {
	body, err := json.Marshal(SelectGuildRequest{GuildID: guildID})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := s.do(ctx, http.MethodPut, "/v1/me/guild", body)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// GetBot returns a tenant's bot.
func (s *Session) GetBot(ctx context.Context, tenantID string) (*BotResponse, error) {
	var b BotResponse
	if err := s.getJSON(ctx, "/v1/tenants/"+url.PathEscape(tenantID)+"/bot", &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetGuild returns guild metadata.
func (s *Session) GetGuild(ctx context.Context, guildID string) (*GuildResponse, error) {
	var g GuildResponse
	if err := s.getJSON(ctx, "/v1/guilds/"+url.PathEscape(guildID), &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Logout ends the session server side.
func (s *Session) Logout(ctx context.Context) error {
	resp, err := s.do(ctx, http.MethodPost, "/v1/auth/logout", nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

func (s *Session) getJSON(ctx context.Context, path string, out any) error {
	resp, err := s.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out, http.StatusOK)
}

func (s *Session) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	headers := map[string]string{
		"Cookie": (&http.Cookie{Name: SessionCookieName, Value: s.token}).String(),
	}
	if body == nil {
		return s.client.doRequest(ctx, method, path, nil, headers)
	}
	headers["Content-Type"] = "application/json"
	return s.client.doRequest(ctx, method, path, bytes.NewReader(body), headers)
}
