package services

import (
	"errors"
	"fmt"

	"mernlog/internal/repositories"
	"mernlog/pkg/idx"
)

// Errors returned by the services. Handlers map them to HTTP statuses with
// errors.Is; anything else is an internal failure.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation failed")
)

// translate maps repository errors onto service errors, keeping the
// original message for logs.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, repositories.ErrDuplicate):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	default:
		return err
	}
}

// parseID normalizes a post or comment id. Malformed ids cannot match a
// stored record, so they are reported as ErrNotFound without a store lookup.
func parseID(kind, id string) (string, error) {
	parsed, err := idx.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w: %s %q", ErrNotFound, kind, id)
	}
	return parsed, nil
}
