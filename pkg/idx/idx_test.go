package idx_test

import (
	"sort"
	"strings"
	"testing"
	"time"

	"mernlog/pkg/idx"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IsMonotonic(t *testing.T) {
	ids := make([]string, 0, 500)
	for i := 0; i < 500; i++ {
		ids = append(ids, idx.New())
	}
	assert.True(t, sort.StringsAreSorted(ids), "ids generated in sequence must sort in sequence")
}

func TestNewAt_EmbedsTime(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	id := idx.NewAt(at)

	u, err := ulid.ParseStrict(id)
	require.NoError(t, err)
	assert.Equal(t, at, ulid.Time(u.Time()).UTC())
	assert.Less(t, idx.NewAt(at.Add(-time.Millisecond)), id)
}

func TestParse(t *testing.T) {
	id := idx.New()

	parsed, err := idx.Parse("  " + id + " ")
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	parsed, err = idx.Parse(strings.ToLower(id))
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = idx.Parse("not-a-ulid")
	assert.ErrorIs(t, err, idx.ErrInvalid)
	assert.False(t, idx.Valid(""))
	assert.True(t, idx.Valid(id))
}
