package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/botdash/internal/auth/domain"
	"github.com/aussiebroadwan/botdash/internal/auth/store"
	"github.com/aussiebroadwan/botdash/pkg/slogx"
)

var ErrUserNotFound = errors.New("user_not_found")

type UserService struct {
	Store     store.Store
	Refresher *TokenRefresher
	Guilds    GuildLister
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	return u, err
}

// SelectGuild records the guild the user picked during onboarding.
func (s *UserService) SelectGuild(ctx context.Context, userID, guildID string) error {
	err := s.Store.Users().SetSelectedGuild(ctx, userID, guildID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("guild selected", "user_id", userID, "guild_id", guildID)
	return nil
}

// ListProviderGuilds lists the guilds the user belongs to at the identity
// provider, refreshing their access token first if needed.
func (s *UserService) ListProviderGuilds(ctx context.Context, userID string) ([]domain.ProviderGuild, error) {
	u, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	access, err := s.Refresher.EnsureValidAccessToken(ctx, u)
	if err != nil {
		return nil, err
	}

	guilds, err := s.Guilds.ListUserGuilds(ctx, access)
	if err != nil {
		return nil, fmt.Errorf("list user guilds: %w", err)
	}
	return guilds, nil
}
