package livedata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"

	"github.com/alexanderramin/greenpath/internal/processing"
)

// Payload is a decoded snapshot plus the exact bytes it came from, which is
// what the cache stores.
type Payload struct {
	Raw  processing.RawSnapshot
	Body []byte
}

// Fetcher retrieves the raw snapshot document.
type Fetcher interface {
	// Fetch retrieves the current document. force asks every cache on the
	// way, including HTTP intermediaries, to be bypassed.
	Fetch(ctx context.Context, force bool) (*Payload, error)
}

// httpFetcher implements Fetcher over plain HTTP GET.
type httpFetcher struct {
	cfg      Config
	http     *http.Client
	observer Observer
}

// NewHTTPFetcher creates a Fetcher for cfg.Endpoint.
func NewHTTPFetcher(cfg Config, observer Observer) Fetcher {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &httpFetcher{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		observer: observer,
	}
}

// statusError is a non-2xx answer. 5xx and 429 are retried.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("live data endpoint returned status %d: %s", e.code, e.body)
}

func (e *statusError) retryable() bool {
	return e.code >= 500 || e.code == http.StatusTooManyRequests
}

func (f *httpFetcher) Fetch(ctx context.Context, force bool) (*Payload, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	var lastErr error
	attempts := 0
	for i := 0; i < 1+f.cfg.MaxRetries; i++ {
		attempts++
		p, err := f.doRequest(ctx, force)
		if err == nil {
			f.observer.OnFetch(FetchEvent{
				Endpoint:  f.cfg.Endpoint,
				Forced:    force,
				Attempts:  attempts,
				LatencyMs: time.Since(start).Milliseconds(),
				Success:   true,
			})
			return p, nil
		}
		lastErr = err

		if ctx.Err() != nil || errors.Is(err, ErrInvalidPayload) {
			break
		}
		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			break
		}
	}

	err := classify(ctx, lastErr)
	f.observer.OnFetch(FetchEvent{
		Endpoint:  f.cfg.Endpoint,
		Forced:    force,
		Attempts:  attempts,
		LatencyMs: time.Since(start).Milliseconds(),
		ErrorCode: errorCode(err),
	})
	return nil, err
}

func (f *httpFetcher) doRequest(ctx context.Context, force bool) (*Payload, error) {
	u, err := url.Parse(f.cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint: %w", err)
	}
	if force {
		q := u.Query()
		q.Set("refresh", "1")
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if force {
		req.Header.Set("Cache-Control", "no-cache")
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode, body: truncate(string(body), 200)}
	}
	return Decode(body)
}

// Decode parses a snapshot document.
func Decode(body []byte) (*Payload, error) {
	var raw processing.RawSnapshot
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return &Payload{Raw: raw, Body: body}, nil
}

func classify(ctx context.Context, err error) error {
	switch {
	case ctx.Err() != nil:
		return ErrTimeout
	case errors.Is(err, ErrInvalidPayload):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrInvalidPayload):
		return "INVALID_PAYLOAD"
	case errors.Is(err, ErrUnavailable):
		return "UNAVAILABLE"
	default:
		return "UNKNOWN"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
