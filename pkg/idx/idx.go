// Package idx generates the sortable identifiers used for posts and comments.
//
// Identifiers are ULIDs drawn from a monotonic entropy source, so two ids
// created in the same millisecond still compare in creation order. Stores
// order by (createdAt, id) and rely on that for deterministic pagination.
package idx

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrInvalid reports a malformed identifier.
var ErrInvalid = errors.New("idx: invalid ulid")

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New returns a new identifier stamped with the current UTC time.
func New() string {
	return NewAt(time.Now().UTC())
}

// NewAt returns an identifier stamped with t.
func NewAt(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// Valid reports whether s is a well-formed identifier.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// Parse normalizes s and checks that it is a ULID.
func Parse(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if _, err := ulid.ParseStrict(s); err != nil {
		return "", ErrInvalid
	}
	return s, nil
}
