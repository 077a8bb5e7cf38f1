package livedata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/alexanderramin/greenpath/internal/domain"
	"github.com/alexanderramin/greenpath/internal/processing"
)

// Source reports where a snapshot came from.
type Source string

const (
	SourceLive     Source = "live"
	SourceCache    Source = "cache"
	SourceStale    Source = "stale_cache"
	SourceDefaults Source = "defaults"
)

// Result is a normalized snapshot plus provenance.
type Result struct {
	Snapshot domain.Snapshot
	Source   Source
	// FetchErr is the fetch failure that forced a fallback, if any.
	FetchErr error
}

// Provider serves the canonical snapshot: fresh cache, then a fetch, then
// the last-known cache marked stale, then catalog defaults.
type Provider struct {
	fetcher  Fetcher
	cache    Cache
	defaults processing.Defaults
	ttl      time.Duration
	log      *zap.Logger
	now      func() time.Time
	group    singleflight.Group
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ProviderOption {
	return func(p *Provider) {
		p.now = now
	}
}

// NewProvider wires a provider. fetcher may be nil when no endpoint is
// configured; cache may be nil to disable caching.
func NewProvider(fetcher Fetcher, cache Cache, defaults processing.Defaults, ttl time.Duration, log *zap.Logger, opts ...ProviderOption) *Provider {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Provider{
		fetcher:  fetcher,
		cache:    cache,
		defaults: defaults,
		ttl:      ttl,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Snapshot never fails on data unavailability; the fallback is reported
// through Result.Source and the snapshot's Stale/UsingDefaults flags. Only
// context cancellation by the caller is returned as an error.
func (p *Provider) Snapshot(ctx context.Context) (Result, error) {
	cached, cacheErr := p.readCache(ctx)
	if cacheErr == nil && p.now().Sub(cached.FetchedAt) < p.ttl {
		if snap, err := p.normalize(cached); err == nil {
			return Result{Snapshot: snap, Source: SourceCache}, nil
		}
	}
	if p.fetcher == nil {
		return p.fallback(cached, cacheErr, nil), nil
	}
	res, err := p.fetch(ctx, false)
	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, ctxErr
	}
	return p.fallback(cached, cacheErr, err), nil
}

// Refresh fetches bypassing the local cache and every HTTP cache on the way.
// On failure it still returns the best fallback alongside the error.
func (p *Provider) Refresh(ctx context.Context) (Result, error) {
	cached, cacheErr := p.readCache(ctx)
	if p.fetcher == nil {
		return p.fallback(cached, cacheErr, nil), ErrNotConfigured
	}
	res, err := p.fetch(ctx, true)
	if err == nil {
		return res, nil
	}
	return p.fallback(cached, cacheErr, err), fmt.Errorf("refreshing live data: %w", err)
}

// fetch coalesces concurrent callers into one request per mode.
func (p *Provider) fetch(ctx context.Context, force bool) (Result, error) {
	key := "fetch"
	if force {
		key = "refresh"
	}
	v, err, _ := p.group.Do(key, func() (interface{}, error) {
		payload, err := p.fetcher.Fetch(ctx, force)
		if err != nil {
			return nil, err
		}
		entry := Entry{Body: payload.Body, FetchedAt: p.now()}
		if p.cache != nil {
			if err := p.cache.Put(ctx, CacheKey, entry); err != nil {
				p.log.Warn("snapshot cache write failed", zap.Error(err))
			}
		}
		snap := processing.Normalize(&payload.Raw, p.defaults)
		snap.FetchedAt = entry.FetchedAt
		return Result{Snapshot: snap, Source: SourceLive}, nil
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

func (p *Provider) readCache(ctx context.Context) (Entry, error) {
	if p.cache == nil {
		return Entry{}, ErrCacheMiss
	}
	e, err := p.cache.Get(ctx, CacheKey)
	if err != nil && !errors.Is(err, ErrCacheMiss) {
		p.log.Warn("snapshot cache read failed", zap.Error(err))
	}
	return e, err
}

func (p *Provider) normalize(e Entry) (domain.Snapshot, error) {
	payload, err := Decode(e.Body)
	if err != nil {
		return domain.Snapshot{}, err
	}
	snap := processing.Normalize(&payload.Raw, p.defaults)
	snap.FetchedAt = e.FetchedAt
	return snap, nil
}

func (p *Provider) fallback(cached Entry, cacheErr, fetchErr error) Result {
	if cacheErr == nil {
		if snap, err := p.normalize(cached); err == nil {
			if fetchErr != nil {
				snap.Stale = true
				p.log.Warn("serving stale snapshot",
					zap.Time("fetched_at", cached.FetchedAt),
					zap.Error(fetchErr))
				return Result{Snapshot: snap, Source: SourceStale, FetchErr: fetchErr}
			}
			return Result{Snapshot: snap, Source: SourceCache}
		}
	}
	snap := processing.Normalize(nil, p.defaults)
	snap.FetchedAt = p.now()
	if fetchErr != nil {
		p.log.Warn("serving default snapshot", zap.Error(fetchErr))
	}
	return Result{Snapshot: snap, Source: SourceDefaults, FetchErr: fetchErr}
}
