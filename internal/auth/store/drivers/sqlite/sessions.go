package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/botdash/internal/auth/domain"
	"github.com/aussiebroadwan/botdash/internal/auth/store"
)

type sessionsRepo struct {
	db  *sql.DB
	now func() time.Time
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	createdAt := s.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, token_digest, expires_at, created_at) VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.TokenDigest, s.ExpiresAt.Unix(), createdAt.Unix(),
	)
	if err != nil && isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *sessionsRepo) GetSessionByDigest(ctx context.Context, digest string) (domain.Session, error) {
	var (
		s         domain.Session
		expiresAt int64
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, token_digest, expires_at, created_at FROM sessions WHERE token_digest = ?`,
		digest,
	).Scan(&s.ID, &s.UserID, &s.TokenDigest, &expiresAt, &createdAt)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}

	s.ExpiresAt = unixToTime(expiresAt)
	s.CreatedAt = unixToTime(createdAt)
	return s, nil
}

func (r *sessionsRepo) DeleteSessionByDigest(ctx context.Context, digest string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_digest = ?`, digest)
	return err
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *sessionsRepo) DeleteUserSessions(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	return err
}

func isUniqueViolation(err error) bool {
	var coded interface{ Code() int }
	if errors.As(err, &coded) {
		// SQLITE_CONSTRAINT_UNIQUE and SQLITE_CONSTRAINT_PRIMARYKEY
		return coded.Code() == 2067 || coded.Code() == 1555
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
