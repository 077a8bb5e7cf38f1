package livedata

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/alexanderramin/greenpath/internal/repository"
)

// CacheKey is the single slot the live snapshot is stored under.
const CacheKey = "live_snapshot"

// Entry is one cached payload.
type Entry struct {
	Body      []byte
	FetchedAt time.Time
}

// Cache stores the last fetched payload. Get returns ErrCacheMiss when empty.
type Cache interface {
	Get(ctx context.Context, key string) (Entry, error)
	Put(ctx context.Context, key string, e Entry) error
}

// SQLCache stores payloads in the snapshot_cache table.
type SQLCache struct {
	repo repository.SnapshotCacheRepo
}

func NewSQLCache(repo repository.SnapshotCacheRepo) *SQLCache {
	return &SQLCache{repo: repo}
}

func (c *SQLCache) Get(ctx context.Context, key string) (Entry, error) {
	s, err := c.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Entry{}, ErrCacheMiss
		}
		return Entry{}, err
	}
	return Entry{Body: s.Payload, FetchedAt: s.FetchedAt}, nil
}

func (c *SQLCache) Put(ctx context.Context, key string, e Entry) error {
	return c.repo.Put(ctx, repository.CachedSnapshot{Key: key, Payload: e.Body, FetchedAt: e.FetchedAt})
}

const redisKeyPrefix = "greenpath:snapshot:"

// RedisCache shares the payload between processes. Entries expire after
// retention so a long-dead feed eventually falls through to defaults.
type RedisCache struct {
	client    *redis.Client
	retention time.Duration
}

// RedisCacheOption configures a RedisCache.
type RedisCacheOption func(*RedisCache)

// WithRetention overrides the default 30 day expiry.
func WithRetention(d time.Duration) RedisCacheOption {
	return func(c *RedisCache) {
		c.retention = d
	}
}

func NewRedisCache(client *redis.Client, opts ...RedisCacheOption) *RedisCache {
	c := &RedisCache{client: client, retention: 30 * 24 * time.Hour}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// NewRedisClient parses url and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

type redisEntry struct {
	Body      json.RawMessage `json:"body"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

func (c *RedisCache) Get(ctx context.Context, key string) (Entry, error) {
	data, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrCacheMiss
	}
	if err != nil {
		return Entry{}, fmt.Errorf("reading redis cache: %w", err)
	}
	var e redisEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("decoding redis cache entry: %w", err)
	}
	return Entry{Body: []byte(e.Body), FetchedAt: e.FetchedAt}, nil
}

func (c *RedisCache) Put(ctx context.Context, key string, e Entry) error {
	data, err := json.Marshal(redisEntry{Body: json.RawMessage(e.Body), FetchedAt: e.FetchedAt.UTC()})
	if err != nil {
		return fmt.Errorf("encoding redis cache entry: %w", err)
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, data, c.retention).Err(); err != nil {
		return fmt.Errorf("writing redis cache: %w", err)
	}
	return nil
}
