package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/botdash/internal/auth/store"
	_ "modernc.org/sqlite"
)

type Store struct {
	db  *sql.DB
	dsn string

	// now stamps created_at/updated_at. Tests may pin it.
	now func() time.Time
}

// NewStore opens the sqlite database at path. Foreign keys and a busy
// timeout are enabled on every pooled connection.
func NewStore(path string) (*Store, error) {
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &Store{db: db, dsn: dsn, now: time.Now}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Users() store.Users       { return &usersRepo{db: s.db, now: s.now} }
func (s *Store) Sessions() store.Sessions { return &sessionsRepo{db: s.db, now: s.now} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func unixToTime(n int64) time.Time {
	return time.Unix(n, 0).UTC()
}

func mapNullUnixPtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := unixToTime(n.Int64)
	return &t
}

func mapOptionalUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
