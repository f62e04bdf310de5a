// Package idx mints the sortable identifiers used for session rows.
package idx

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID is a canonical 26 character ULID string.
type ID string

// ErrInvalid reports a malformed ULID string.
var ErrInvalid = errors.New("idx: invalid ulid")

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New returns an ID stamped with the current UTC time. IDs minted in the
// same millisecond still sort in creation order.
func New() ID {
	return NewAt(time.Now().UTC())
}

// NewAt returns an ID stamped with t.
func NewAt(t time.Time) ID {
	mu.Lock()
	defer mu.Unlock()
	return ID(ulid.MustNew(ulid.Timestamp(t), entropy).String())
}

// Parse validates s as a ULID.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if _, err := ulid.ParseStrict(s); err != nil {
		return "", ErrInvalid
	}
	return ID(s), nil
}

func (id ID) IsZero() bool   { return id == "" }
func (id ID) String() string { return string(id) }

// Time returns the millisecond timestamp embedded in id, or the zero time
// when id is not a valid ULID.
func (id ID) Time() time.Time {
	u, err := ulid.ParseStrict(string(id))
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time()).UTC()
}
