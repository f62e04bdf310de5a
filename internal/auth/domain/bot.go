package domain

import "time"

// BotIdentity is the bot provisioned for a tenant. Token holds the bot
// credential after decoding and is never serialized.
type BotIdentity struct {
	TenantID      string    `json:"tenant_id"`
	ApplicationID string    `json:"application_id"`
	Username      string    `json:"username"`
	Avatar        string    `json:"avatar,omitempty"`
	Token         string    `json:"-"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// GuildInfo is guild metadata served by the provisioner.
type GuildInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon,omitempty"`
	MemberCount int    `json:"member_count"`
	BotPresent  bool   `json:"bot_present"`
}
