package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is matched by every *InputError.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoActiveCase is returned when a use case needs a tracked case and
	// none exists.
	ErrNoActiveCase = errors.New("no tracked case")
	// ErrUnknownPath is returned when a requested path is not admissible for
	// the profile.
	ErrUnknownPath = errors.New("path not admissible for profile")
)

// InputError reports a rejected field.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}
