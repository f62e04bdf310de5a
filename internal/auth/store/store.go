package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/botdash/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, rest)
// implement this and expose sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Users() Users
	Sessions() Sessions

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the backing datastore is reachable.
	Ping(ctx context.Context) error
}

type Users interface {
	// GetUserByID returns a user by provider id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// UpsertUser inserts or updates the user keyed by id and returns the
	// stored row. Profile, sealed tokens, token expiry and guild flags are
	// overwritten; created_at and selected_guild_id are preserved.
	UpsertUser(ctx context.Context, u domain.User) (domain.User, error)

	// UpdateGuildStatus records the result of the guild membership check.
	UpdateGuildStatus(ctx context.Context, userID string, status domain.GuildStatus) error

	// SetSelectedGuild stores the guild chosen during onboarding.
	SetSelectedGuild(ctx context.Context, userID, guildID string) error
}

type Sessions interface {
	// CreateSession stores a new session. Digests are unique.
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByDigest looks up a session by exact digest match. Expired
	// sessions are still returned; callers decide what expiry means.
	GetSessionByDigest(ctx context.Context, digest string) (domain.Session, error)

	// DeleteSessionByDigest removes a session. Deleting a missing session is
	// not an error.
	DeleteSessionByDigest(ctx context.Context, digest string) error

	// DeleteExpiredSessions removes sessions whose expiry is at or before now
	// and returns how many were removed.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)

	// DeleteUserSessions removes every session for a user.
	DeleteUserSessions(ctx context.Context, userID string) error
}
