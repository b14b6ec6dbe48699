package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keys
const (
	PublicPageKeyFmt = "public:%s:%s"
	ActivityStatsKey = "activity:stats"
	SettingsKeyFmt   = "settings:%s"
)

const (
	PublicPageTTL = 2 * time.Minute
	StatsTTL      = 30 * time.Second
	SettingsTTL   = time.Minute
)

var client *redis.Client

// Init connects to Redis. On failure the client stays nil and every helper in
// this package becomes a no-op, so the service runs uncached.
func Init(addr, password string, db int) error {
	if addr == "" {
		return fmt.Errorf("redis address not configured")
	}
	client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		// Close the failed client and set to nil for graceful degradation
		client.Close()
		client = nil
		return err
	}
	return nil
}

// GetClient returns the Redis client, nil when Redis is unavailable.
func GetClient() *redis.Client {
	return client
}

// SetClient installs an already connected client.
func SetClient(c *redis.Client) {
	client = c
}

func Close() error {
	if client == nil {
		return nil
	}
	return client.Close()
}

func PublicPageKey(kind, code string) string {
	return fmt.Sprintf(PublicPageKeyFmt, kind, code)
}

func SettingsKey(name string) string {
	return fmt.Sprintf(SettingsKeyFmt, name)
}

// GetCached returns cached data for a key
func GetCached(ctx context.Context, key string) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetCached stores data with a TTL
func SetCached(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if client == nil {
		return
	}
	client.Set(ctx, key, data, ttl)
}

// InvalidatePattern removes all keys matching a glob pattern
func InvalidatePattern(ctx context.Context, pattern string) {
	if client == nil {
		return
	}
	iter := client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if iter.Err() == nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateKeys removes specific cache keys
func InvalidateKeys(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}

// InvalidatePublicPages drops the cached public detail pages of the given
// entities. A box page shows its pallet and shipment, so callers pass every
// code whose page changed.
func InvalidatePublicPages(ctx context.Context, kind string, codes ...string) {
	keys := make([]string, 0, len(codes))
	for _, c := range codes {
		if c != "" {
			keys = append(keys, PublicPageKey(kind, c))
		}
	}
	InvalidateKeys(ctx, keys...)
}

// InvalidateAllPublicPages is used after a cascade touched many entities.
func InvalidateAllPublicPages(ctx context.Context) {
	InvalidatePattern(ctx, "public:*")
}

// InvalidateSettingCaches clears all setting-related caches
// Called when: any singleton setting is saved
func InvalidateSettingCaches(ctx context.Context) {
	InvalidatePattern(ctx, "settings:*")
}
