package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/aussiebroadwan/botdash/internal/auth/domain"
	"github.com/aussiebroadwan/botdash/internal/auth/store"
)

// userRow is the wire form of a users row.
type userRow struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	Avatar          string     `json:"avatar"`
	AccessTokenEnc  string     `json:"access_token_enc"`
	RefreshTokenEnc string     `json:"refresh_token_enc"`
	TokenExpiresAt  *time.Time `json:"token_expires_at"`
	InGuild         bool       `json:"in_guild"`
	NeedsInvite     bool       `json:"needs_invite"`
	SelectedGuildID *string    `json:"selected_guild_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// userUpsert omits created_at and selected_guild_id so a merge never
// overwrites them; the datastore fills their defaults on insert.
type userUpsert struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	Avatar          string     `json:"avatar"`
	AccessTokenEnc  string     `json:"access_token_enc"`
	RefreshTokenEnc string     `json:"refresh_token_enc"`
	TokenExpiresAt  *time.Time `json:"token_expires_at"`
	InGuild         bool       `json:"in_guild"`
	NeedsInvite     bool       `json:"needs_invite"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (r userRow) toDomain() domain.User {
	u := domain.User{
		ID:              r.ID,
		Username:        r.Username,
		Email:           r.Email,
		Avatar:          r.Avatar,
		AccessTokenEnc:  r.AccessTokenEnc,
		RefreshTokenEnc: r.RefreshTokenEnc,
		InGuild:         r.InGuild,
		NeedsInvite:     r.NeedsInvite,
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
	}
	if r.TokenExpiresAt != nil {
		t := r.TokenExpiresAt.UTC()
		u.TokenExpiresAt = &t
	}
	if r.SelectedGuildID != nil {
		u.SelectedGuildID = *r.SelectedGuildID
	}
	return u
}

type usersRepo struct {
	s *Store
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	var rows []userRow
	q := url.Values{"id": {eq(id)}, "select": {"*"}, "limit": {"1"}}
	if err := r.s.do(ctx, "get user", http.MethodGet, "users", q, nil, "", &rows); err != nil {
		return domain.User{}, err
	}
	if len(rows) == 0 {
		return domain.User{}, store.ErrNotFound
	}
	return rows[0].toDomain(), nil
}

func (r *usersRepo) UpsertUser(ctx context.Context, u domain.User) (domain.User, error) {
	body := []userUpsert{{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		Avatar:          u.Avatar,
		AccessTokenEnc:  u.AccessTokenEnc,
		RefreshTokenEnc: u.RefreshTokenEnc,
		TokenExpiresAt:  u.TokenExpiresAt,
		InGuild:         u.InGuild,
		NeedsInvite:     u.NeedsInvite,
		UpdatedAt:       r.s.now().UTC(),
	}}

	var rows []userRow
	q := url.Values{"on_conflict": {"id"}}
	if err := r.s.do(ctx, "upsert user", http.MethodPost, "users", q, body, preferUpsert, &rows); err != nil {
		return domain.User{}, err
	}
	if len(rows) == 0 {
		return domain.User{}, fmt.Errorf("upsert user: empty representation")
	}
	return rows[0].toDomain(), nil
}

func (r *usersRepo) UpdateGuildStatus(ctx context.Context, userID string, status domain.GuildStatus) error {
	return r.patch(ctx, "update guild status", userID, map[string]any{
		"in_guild":     status.InGuild,
		"needs_invite": status.NeedsInvite,
		"updated_at":   r.s.now().UTC(),
	})
}

func (r *usersRepo) SetSelectedGuild(ctx context.Context, userID, guildID string) error {
	return r.patch(ctx, "set selected guild", userID, map[string]any{
		"selected_guild_id": guildID,
		"updated_at":        r.s.now().UTC(),
	})
}

func (r *usersRepo) patch(ctx context.Context, op, userID string, fields map[string]any) error {
	var rows []userRow
	q := url.Values{"id": {eq(userID)}}
	if err := r.s.do(ctx, op, http.MethodPatch, "users", q, fields, preferReturn, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return store.ErrNotFound
	}
	return nil
}
