package idx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/botdash/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNewAndParse(t *testing.T) {
	id := idx.New()
	require.Len(t, id.String(), 26)
	require.False(t, id.IsZero())

	parsed, err := idx.Parse(" " + id.String() + "\n")
	require.NoError(t, err)
	require.Equal(t, id, parsed)
}

func TestParse_Rejects(t *testing.T) {
	for _, s := range []string{"", "not-a-ulid", "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3Z"} {
		_, err := idx.Parse(s)
		require.ErrorIs(t, err, idx.ErrInvalid, s)
	}
}

func TestMonotonicWithinMillisecond(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	prev := idx.NewAt(at)
	for range 100 {
		next := idx.NewAt(at)
		require.Less(t, prev.String(), next.String())
		prev = next
	}
}

func TestTime(t *testing.T) {
	tm := time.Unix(1700000000, 0).UTC()
	require.Equal(t, tm, idx.NewAt(tm).Time())
	require.True(t, idx.ID("garbage").Time().IsZero())
}
