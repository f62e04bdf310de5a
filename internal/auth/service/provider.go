package service

import (
	"context"

	"github.com/aussiebroadwan/botdash/internal/auth/domain"
)

// IdentityProvider is the OAuth2 identity provider users log in with.
type IdentityProvider interface {
	// AuthCodeURL builds the authorization URL carrying state and an S256
	// code challenge.
	AuthCodeURL(state, challenge string) string
	ExchangeCode(ctx context.Context, code, verifier string) (domain.ProviderToken, error)
	RefreshToken(ctx context.Context, refreshToken string) (domain.ProviderToken, error)
	FetchProfile(ctx context.Context, accessToken string) (domain.Profile, error)
}

// GuildMembership checks and manages membership of the community guild.
type GuildMembership interface {
	IsMember(ctx context.Context, userID string) (bool, error)
	AddMember(ctx context.Context, userID, accessToken string) error
}

// GuildLister lists the guilds visible to a user's access token.
type GuildLister interface {
	ListUserGuilds(ctx context.Context, accessToken string) ([]domain.ProviderGuild, error)
}

// BotDirectory is the provisioner's read API. A nil result with a nil error
// means the record does not exist.
type BotDirectory interface {
	GetBotIdentity(ctx context.Context, tenantID string) (*domain.BotIdentity, error)
	GetGuild(ctx context.Context, guildID string) (*domain.GuildInfo, error)
}
