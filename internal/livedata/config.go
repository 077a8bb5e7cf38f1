package livedata

import "time"

// Config holds the live data client settings.
type Config struct {
	Endpoint   string
	Timeout    time.Duration
	MaxRetries int
	// CacheTTL is how long a cached payload is served without refetching.
	CacheTTL time.Duration
}

// DefaultConfig returns a Config without an endpoint.
func DefaultConfig() Config {
	return Config{
		Timeout:    8 * time.Second,
		MaxRetries: 2,
		CacheTTL:   6 * time.Hour,
	}
}
