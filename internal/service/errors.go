package service

import (
	"errors"
	"fmt"

	"github.com/mmynk/dormmess/internal/storage"
)

var (
	// ErrInvalidArgument marks input that failed validation.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUserNotFound is returned when an entry references an unknown user.
	ErrUserNotFound = errors.New("Invalid user_id, user not found")

	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = storage.ErrNotFound
)

// invalidf returns an ErrInvalidArgument with a client-facing message.
func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
