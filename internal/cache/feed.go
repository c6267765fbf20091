// feed.go provides a Valkey-backed cache for rendered feed documents
// (RSS and the sitemap). Feeds are rebuilt from the database at most once
// per TTL window; every other request is served straight from Valkey.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// feedKeyPrefix is the Valkey key prefix for cached feed documents.
	feedKeyPrefix = "feed:"

	// DefaultFeedTTL is how long a rendered feed stays cached.
	DefaultFeedTTL = 5 * time.Minute
)

// FeedCache manages rendered feed caching in Valkey.
type FeedCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFeedCache creates a new feed cache backed by the given Valkey client.
func NewFeedCache(client *redis.Client, ttl time.Duration) *FeedCache {
	if ttl == 0 {
		ttl = DefaultFeedTTL
	}
	return &FeedCache{client: client, ttl: ttl}
}

// Get retrieves a cached feed document. Returns false on miss.
func (fc *FeedCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := fc.client.Get(ctx, feedKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("feed cache get error", "key", key, "error", err)
		return nil, false
	}
	return val, true
}

// Set stores a rendered feed document with the configured TTL.
func (fc *FeedCache) Set(ctx context.Context, key string, doc []byte) {
	if err := fc.client.Set(ctx, feedKeyPrefix+key, doc, fc.ttl).Err(); err != nil {
		slog.Warn("feed cache set error", "key", key, "error", err)
	}
}

// Invalidate removes cached feed documents by scanning for the prefix.
// Called when a post is created, updated, deleted, or auto-published,
// since any feed could be affected.
func (fc *FeedCache) Invalidate(ctx context.Context) {
	var cursor uint64
	for {
		keys, nextCursor, err := fc.client.Scan(ctx, cursor, feedKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("feed cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := fc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("feed cache delete error", "error", err)
			}
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
}
