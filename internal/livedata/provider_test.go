package livedata

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/alexanderramin/greenpath/internal/catalog"
	"github.com/alexanderramin/greenpath/internal/domain"
	"github.com/alexanderramin/greenpath/internal/processing"
)

type stubFetcher struct {
	calls  atomic.Int32
	forced atomic.Int32
	body   string
	err    error
	delay  time.Duration
}

func (f *stubFetcher) Fetch(ctx context.Context, force bool) (*Payload, error) {
	f.calls.Add(1)
	if force {
		f.forced.Add(1)
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return Decode([]byte(f.body))
}

type memCache struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func newMemCache() *memCache { return &memCache{entries: map[string]Entry{}} }

func (c *memCache) Get(_ context.Context, key string) (Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Entry{}, ErrCacheMiss
	}
	return e, nil
}

func (c *memCache) Put(_ context.Context, key string, e Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
	return nil
}

var providerNow = time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

func newTestProvider(t *testing.T, f Fetcher, c Cache) *Provider {
	t.Helper()
	return NewProvider(f, c, processing.DefaultsFrom(catalog.Default()), time.Hour, zaptest.NewLogger(t),
		WithClock(func() time.Time { return providerNow }))
}

func eb2India(s domain.Snapshot) domain.Cutoff {
	return s.FinalAction.Lookup(domain.CategoryEB2, domain.ChargeIndia)
}

func TestProvider_Snapshot_FetchesAndCaches(t *testing.T) {
	f := &stubFetcher{body: sampleDoc}
	cache := newMemCache()
	p := newTestProvider(t, f, cache)

	res, err := p.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceLive, res.Source)
	assert.Equal(t, domain.CutoffAt(domain.MonthAt(2013, time.January)), eb2India(res.Snapshot))
	assert.False(t, res.Snapshot.UsingDefaults)
	assert.Contains(t, res.Snapshot.DefaultedFields, "processingTimes.PERM")
	assert.Equal(t, providerNow, res.Snapshot.FetchedAt)

	entry, err := cache.Get(context.Background(), CacheKey)
	require.NoError(t, err)
	assert.Equal(t, providerNow, entry.FetchedAt)
}

func TestProvider_Snapshot_ServesFreshCacheWithoutFetching(t *testing.T) {
	f := &stubFetcher{body: sampleDoc}
	cache := newMemCache()
	require.NoError(t, cache.Put(context.Background(), CacheKey, Entry{Body: []byte(sampleDoc), FetchedAt: providerNow.Add(-30 * time.Minute)}))
	p := newTestProvider(t, f, cache)

	res, err := p.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceCache, res.Source)
	assert.False(t, res.Snapshot.Stale)
	assert.Equal(t, int32(0), f.calls.Load())
}

func TestProvider_Snapshot_FallsBackToStaleCache(t *testing.T) {
	f := &stubFetcher{err: ErrUnavailable}
	cache := newMemCache()
	fetchedAt := providerNow.Add(-72 * time.Hour)
	require.NoError(t, cache.Put(context.Background(), CacheKey, Entry{Body: []byte(sampleDoc), FetchedAt: fetchedAt}))
	p := newTestProvider(t, f, cache)

	res, err := p.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceStale, res.Source)
	assert.True(t, res.Snapshot.Stale)
	assert.ErrorIs(t, res.FetchErr, ErrUnavailable)
	assert.Equal(t, fetchedAt, res.Snapshot.FetchedAt)
	assert.Equal(t, domain.CutoffAt(domain.MonthAt(2013, time.January)), eb2India(res.Snapshot))
}

func TestProvider_Snapshot_FallsBackToDefaults(t *testing.T) {
	p := newTestProvider(t, &stubFetcher{err: ErrTimeout}, newMemCache())

	res, err := p.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceDefaults, res.Source)
	assert.True(t, res.Snapshot.UsingDefaults)
	assert.ErrorIs(t, res.FetchErr, ErrTimeout)
	assert.Equal(t, catalog.Default().DefaultFinalAction().Lookup(domain.CategoryEB2, domain.ChargeIndia), eb2India(res.Snapshot))
}

func TestProvider_Snapshot_NoEndpointUsesDefaults(t *testing.T) {
	p := newTestProvider(t, nil, nil)

	res, err := p.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceDefaults, res.Source)
	assert.True(t, res.Snapshot.UsingDefaults)
	assert.NoError(t, res.FetchErr)
}

func TestProvider_Snapshot_CorruptCacheIsIgnored(t *testing.T) {
	cache := newMemCache()
	require.NoError(t, cache.Put(context.Background(), CacheKey, Entry{Body: []byte(`{{`), FetchedAt: providerNow}))
	p := newTestProvider(t, &stubFetcher{err: ErrUnavailable}, cache)

	res, err := p.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceDefaults, res.Source)
}

func TestProvider_Refresh_BypassesFreshCache(t *testing.T) {
	f := &stubFetcher{body: sampleDoc}
	cache := newMemCache()
	require.NoError(t, cache.Put(context.Background(), CacheKey, Entry{Body: []byte(`{}`), FetchedAt: providerNow}))
	p := newTestProvider(t, f, cache)

	res, err := p.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceLive, res.Source)
	assert.Equal(t, int32(1), f.forced.Load())
}

func TestProvider_Refresh_FailureReturnsFallbackAndError(t *testing.T) {
	cache := newMemCache()
	require.NoError(t, cache.Put(context.Background(), CacheKey, Entry{Body: []byte(sampleDoc), FetchedAt: providerNow.Add(-time.Minute)}))
	p := newTestProvider(t, &stubFetcher{err: ErrUnavailable}, cache)

	res, err := p.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, SourceStale, res.Source)
	assert.True(t, res.Snapshot.Stale)
}

func TestProvider_Refresh_NotConfigured(t *testing.T) {
	p := newTestProvider(t, nil, newMemCache())

	res, err := p.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, SourceDefaults, res.Source)
}

func TestProvider_Snapshot_CancelledContext(t *testing.T) {
	p := newTestProvider(t, &stubFetcher{err: context.Canceled}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Snapshot(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProvider_Snapshot_CoalescesConcurrentFetches(t *testing.T) {
	f := &stubFetcher{body: sampleDoc, delay: 100 * time.Millisecond}
	p := newTestProvider(t, f, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := p.Snapshot(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, SourceLive, res.Source)
		}()
	}
	wg.Wait()

	assert.Less(t, f.calls.Load(), int32(8))
}
