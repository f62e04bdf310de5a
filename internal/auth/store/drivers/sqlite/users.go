package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aussiebroadwan/botdash/internal/auth/domain"
	"github.com/aussiebroadwan/botdash/internal/auth/store"
)

type usersRepo struct {
	db  *sql.DB
	now func() time.Time
}

const userColumns = `id, username, email, avatar, access_token_enc, refresh_token_enc,
	token_expires_at, in_guild, needs_invite, selected_guild_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u         domain.User
		expiresAt sql.NullInt64
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.Avatar,
		&u.AccessTokenEnc, &u.RefreshTokenEnc, &expiresAt,
		&u.InGuild, &u.NeedsInvite, &u.SelectedGuildID,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	u.TokenExpiresAt = mapNullUnixPtr(expiresAt)
	u.CreatedAt = unixToTime(createdAt)
	u.UpdatedAt = unixToTime(updatedAt)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) UpsertUser(ctx context.Context, u domain.User) (domain.User, error) {
	now := r.now().Unix()

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (
			id, username, email, avatar, access_token_enc, refresh_token_enc,
			token_expires_at, in_guild, needs_invite, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username          = excluded.username,
			email             = excluded.email,
			avatar            = excluded.avatar,
			access_token_enc  = excluded.access_token_enc,
			refresh_token_enc = excluded.refresh_token_enc,
			token_expires_at  = excluded.token_expires_at,
			in_guild          = excluded.in_guild,
			needs_invite      = excluded.needs_invite,
			updated_at        = excluded.updated_at
		RETURNING `+userColumns,
		u.ID, u.Username, u.Email, u.Avatar, u.AccessTokenEnc, u.RefreshTokenEnc,
		mapOptionalUnix(u.TokenExpiresAt), boolToInt(u.InGuild), boolToInt(u.NeedsInvite),
		now, now,
	)

	stored, err := scanUser(row)
	if err != nil {
		return domain.User{}, fmt.Errorf("upsert user: %w", err)
	}
	return stored, nil
}

func (r *usersRepo) UpdateGuildStatus(ctx context.Context, userID string, status domain.GuildStatus) error {
	return r.exec(ctx,
		`UPDATE users SET in_guild = ?, needs_invite = ?, updated_at = ? WHERE id = ?`,
		boolToInt(status.InGuild), boolToInt(status.NeedsInvite), r.now().Unix(), userID,
	)
}

func (r *usersRepo) SetSelectedGuild(ctx context.Context, userID, guildID string) error {
	return r.exec(ctx,
		`UPDATE users SET selected_guild_id = ?, updated_at = ? WHERE id = ?`,
		guildID, r.now().Unix(), userID,
	)
}

// exec runs a single-row update and maps zero affected rows to ErrNotFound.
func (r *usersRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
