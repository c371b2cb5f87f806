package articles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"penalcode-ai/internal/contextutil"
	"penalcode-ai/internal/patterns"
)

// Cache is a second-level article store shared across processes.
type Cache interface {
	// Get returns the cached text; ok is false on a miss.
	Get(ctx context.Context, key string) (text string, ok bool, err error)
	// Set stores the text for key.
	Set(ctx context.Context, key, text string) error
}

const cacheKeyPrefix = "articulo:"

// cachedArticle is the JSON value stored in Redis.
type cachedArticle struct {
	Number string `json:"numero"`
	Text   string `json:"texto"`
}

// RedisCache stores articles as JSON under "articulo:<key>" with a TTL.
type RedisCache struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewRedisCache connects to Redis at addr and verifies the connection.
func NewRedisCache(ctx context.Context, addr string, ttl time.Duration) (*RedisCache, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisCache{rdb: rdb, ttl: ttl}, nil
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	raw, err := c.rdb.Get(ctx, cacheKey(key)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	text, err := decodeCached(raw)
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key, text string) error {
	raw, err := encodeCached(key, text)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, cacheKey(key), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

func cacheKey(key string) string {
	return cacheKeyPrefix + patterns.NormalizeKey(key)
}

func encodeCached(key, text string) (string, error) {
	raw, err := json.Marshal(cachedArticle{Number: patterns.NormalizeKey(key), Text: text})
	if err != nil {
		return "", fmt.Errorf("failed to encode cached article: %w", err)
	}
	return string(raw), nil
}

func decodeCached(raw string) (string, error) {
	var a cachedArticle
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return "", fmt.Errorf("failed to decode cached article: %w", err)
	}
	return a.Text, nil
}

// Resolution is the outcome of an exact article lookup.
type Resolution struct {
	Key    string
	Text   string
	Source Source
}

// Resolver chains the in-memory index, the optional shared cache and the regex fallback.
type Resolver struct {
	index *Index
	cache Cache
}

// NewResolver creates a Resolver. cache may be nil.
func NewResolver(index *Index, cache Cache) *Resolver {
	return &Resolver{index: index, cache: cache}
}

// Index returns the underlying article index.
func (r *Resolver) Index() *Index {
	return r.index
}

// Resolve looks the key up in memory, then in the cache, then with the regex fallback.
// Cache failures are logged and treated as misses.
func (r *Resolver) Resolve(ctx context.Context, key string) (Resolution, bool) {
	logger := contextutil.LoggerFromContext(ctx)
	k := patterns.NormalizeKey(key)

	if text, ok := r.index.Get(k); ok {
		return Resolution{Key: k, Text: text, Source: SourceMemory}, true
	}

	if r.cache != nil {
		text, ok, err := r.cache.Get(ctx, k)
		if err != nil {
			logger.WarnContext(ctx, "article cache read failed", "key", k, "error", err)
		} else if ok && text != "" {
			stored := text
			if r.index.Available() {
				stored = r.index.Insert(k, text)
			}
			return Resolution{Key: k, Text: stored, Source: SourceRedis}, true
		}
	}

	text, src, ok := r.index.LookupSource(k)
	if !ok {
		return Resolution{Key: k}, false
	}
	if r.cache != nil && src == SourceRegex {
		if err := r.cache.Set(ctx, k, text); err != nil {
			logger.WarnContext(ctx, "article cache write failed", "key", k, "error", err)
		}
	}
	return Resolution{Key: k, Text: text, Source: src}, true
}
