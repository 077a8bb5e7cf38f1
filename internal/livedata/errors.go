package livedata

import "errors"

var (
	// ErrUnavailable indicates the live data endpoint is unreachable or
	// answered with a non-success status after all retries.
	ErrUnavailable = errors.New("live data unavailable")

	// ErrTimeout indicates the fetch exceeded the configured timeout.
	ErrTimeout = errors.New("live data request timed out")

	// ErrInvalidPayload indicates the response body is not a snapshot document.
	ErrInvalidPayload = errors.New("invalid live data payload")

	// ErrNotConfigured is returned by a refresh when no endpoint is set.
	ErrNotConfigured = errors.New("live data endpoint not configured")

	// ErrCacheMiss is returned by a Cache holding nothing for a key.
	ErrCacheMiss = errors.New("snapshot cache miss")
)
