package domain

import "time"

// User is a dashboard user keyed by their identity provider id. Provider
// tokens are only ever held in sealed form.
type User struct {
	ID       string
	Username string
	Email    string
	Avatar   string

	AccessTokenEnc  string
	RefreshTokenEnc string
	TokenExpiresAt  *time.Time

	InGuild     bool
	NeedsInvite bool

	// SelectedGuildID is set by onboarding. Upserts from login never touch it.
	SelectedGuildID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GuildStatus is the outcome of the membership check run on every login.
type GuildStatus struct {
	InGuild     bool
	NeedsInvite bool
}
