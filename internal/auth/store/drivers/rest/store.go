// Package rest implements the store against a PostgREST-style HTTP datastore.
// Tables are addressed as /{table}, rows are filtered with column=op.value
// query parameters and upserts use the merge-duplicates preference.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/botdash/internal/auth/store"
	"github.com/aussiebroadwan/botdash/pkg/httpx"
)

const (
	preferUpsert = "resolution=merge-duplicates,return=representation"
	preferReturn = "return=representation"
)

type Store struct {
	baseURL string
	apiKey  string
	client  *http.Client
	now     func() time.Time
}

// NewStore returns a store talking to baseURL. apiKey is sent both as the
// apikey header and as a bearer token; it may be empty for open datastores.
func NewStore(baseURL, apiKey string, client *http.Client) (*Store, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("rest store: invalid base url %q", baseURL)
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Store{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
		now:     time.Now,
	}, nil
}

func (s *Store) Users() store.Users       { return &usersRepo{s: s} }
func (s *Store) Sessions() store.Sessions { return &sessionsRepo{s: s} }

// ApplyMigrations is a no-op: the remote datastore owns its schema.
func (s *Store) ApplyMigrations() error { return nil }

func (s *Store) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// Ping issues a minimal read against the users table.
func (s *Store) Ping(ctx context.Context) error {
	q := url.Values{"select": {"id"}, "limit": {"1"}}
	return s.do(ctx, "ping", http.MethodGet, "users", q, nil, "", nil)
}

// do performs one request. body is JSON encoded when non-nil; out receives the
// decoded response when non-nil.
func (s *Store) do(ctx context.Context, op, method, table string, q url.Values, body any, prefer string, out any) error {
	endpoint := s.baseURL + "/" + table
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}
	if s.apiKey != "" {
		req.Header.Set("apikey", s.apiKey)
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return httpx.DecodeUpstream(op, resp, out)
}

func eq(v string) string { return "eq." + v }
