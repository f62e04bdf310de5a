package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/botdash/internal/auth/domain"
	"github.com/aussiebroadwan/botdash/pkg/cryptox"
	"github.com/aussiebroadwan/botdash/pkg/slogx"
	"github.com/aussiebroadwan/botdash/pkg/ttlcache"
)

const (
	DefaultIdentityTTL = 5 * time.Minute
	DefaultGuildTTL    = 15 * time.Second
)

var (
	ErrBotNotFound   = errors.New("bot_not_found")
	ErrGuildNotFound = errors.New("guild_not_found")
)

// BotService serves provisioner lookups through per-instance caches. Bot
// credentials arrive sealed with the provisioner's key and are opened here.
type BotService struct {
	Directory   BotDirectory
	Decoder     *cryptox.FernetDecoder
	IdentityTTL time.Duration
	GuildTTL    time.Duration

	identities *ttlcache.Cache[*domain.BotIdentity]
	guilds     *ttlcache.Cache[*domain.GuildInfo]
}

// NewBotService builds a BotService. Non-positive TTLs fall back to the
// defaults.
func NewBotService(dir BotDirectory, decoder *cryptox.FernetDecoder, identityTTL, guildTTL time.Duration) *BotService {
	if identityTTL <= 0 {
		identityTTL = DefaultIdentityTTL
	}
	if guildTTL <= 0 {
		guildTTL = DefaultGuildTTL
	}
	return &BotService{
		Directory:   dir,
		Decoder:     decoder,
		IdentityTTL: identityTTL,
		GuildTTL:    guildTTL,
		identities:  ttlcache.New[*domain.BotIdentity](),
		guilds:      ttlcache.New[*domain.GuildInfo](),
	}
}

// GetBotIdentity returns the tenant's bot with its credential decoded.
func (s *BotService) GetBotIdentity(ctx context.Context, tenantID string) (*domain.BotIdentity, error) {
	bot, err := s.identities.Get(ctx, tenantID, s.IdentityTTL, func(ctx context.Context) (*domain.BotIdentity, error) {
		slogx.FromContext(ctx).Debug("bot identity cache miss", "tenant_id", tenantID)

		bot, err := s.Directory.GetBotIdentity(ctx, tenantID)
		if err != nil || bot == nil {
			return nil, err
		}
		if s.Decoder != nil {
			bot.Token = s.Decoder.DecodeOrPlain(bot.Token)
		}
		return bot, nil
	})
	if err != nil {
		return nil, err
	}
	if bot == nil {
		return nil, ErrBotNotFound
	}
	return bot, nil
}

// GetGuild returns guild metadata.
func (s *BotService) GetGuild(ctx context.Context, guildID string) (*domain.GuildInfo, error) {
	g, err := s.guilds.Get(ctx, guildID, s.GuildTTL, func(ctx context.Context) (*domain.GuildInfo, error) {
		return s.Directory.GetGuild(ctx, guildID)
	})
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGuildNotFound
	}
	return g, nil
}

// InvalidateBot drops the cached identity for a tenant.
func (s *BotService) InvalidateBot(tenantID string) {
	s.identities.Invalidate(tenantID)
}

// InvalidateGuild drops the cached metadata for a guild.
func (s *BotService) InvalidateGuild(guildID string) {
	s.guilds.Invalidate(guildID)
}

// MaskToken hides all but the last four characters of a credential.
func MaskToken(token string) string {
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", 8) + token[len(token)-4:]
}
