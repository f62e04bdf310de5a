package authsdk

import "time"

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	// Error is a machine readable code, e.g. "session_expired".
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error.
	ErrorDescription string `json:"error_description"`
}

// ============================================================================
// User Types
// ============================================================================

// UserResponse is the dashboard's view of the logged in user. Provider
// tokens never leave the server.
type UserResponse struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email,omitempty"`
	Avatar          string     `json:"avatar,omitempty"`
	InGuild         bool       `json:"in_guild"`
	NeedsInvite     bool       `json:"needs_invite"`
	SelectedGuildID string     `json:"selected_guild_id,omitempty"`
	TokenExpiresAt  *time.Time `json:"token_expires_at,omitempty"`
}

// SelectGuildRequest is the body of PUT /v1/me/guild.
type SelectGuildRequest struct {
	GuildID string `json:"guild_id"`
}

// UserGuildResponse is one guild from the user's provider guild list.
type UserGuildResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon,omitempty"`
	Owner       bool   `json:"owner"`
	Permissions string `json:"permissions,omitempty"`
}

// ============================================================================
// Bot Types
// ============================================================================

// BotResponse describes a tenant's bot. The credential is only ever shown
// masked.
type BotResponse struct {
	TenantID      string    `json:"tenant_id"`
	ApplicationID string    `json:"application_id"`
	Username      string    `json:"username"`
	Avatar        string    `json:"avatar,omitempty"`
	TokenHint     string    `json:"token_hint,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// GuildResponse is guild metadata as known to the provisioner.
type GuildResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon,omitempty"`
	MemberCount int    `json:"member_count"`
	BotPresent  bool   `json:"bot_present"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz (readyz adds Checks).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the status of each dependency in /readyz.
type HealthChecks struct {
	Database    string `json:"database"`
	Provisioner string `json:"provisioner,omitempty"`
}
