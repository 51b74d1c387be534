package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// cacheFormatVersion is bumped whenever the shape of cached scheduling
// responses changes; entries written by other versions read as misses.
const cacheFormatVersion = 1

type cacheEntry struct {
	Version  int             `json:"v"`
	StoredAt time.Time       `json:"storedAt"`
	Payload  json.RawMessage `json:"payload"`
}

// CacheRepository stores JSON encoded scheduling outcomes in Redis.
type CacheRepository struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewCacheRepository constructs a cache repository. A nil client behaves as
// an always-empty cache.
func NewCacheRepository(client redis.Cmdable) *CacheRepository {
	return &CacheRepository{client: client, now: time.Now}
}

// Get loads key into dest. Missing, expired and foreign-version entries
// return appErrors.ErrCacheMiss.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	return decodeCacheEntry(raw, dest)
}

// Set stores value under key for ttl.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	payload, err := encodeCacheEntry(value, r.now())
	if err != nil {
		return fmt.Errorf("encode cache value for %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func encodeCacheEntry(value interface{}, storedAt time.Time) ([]byte, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(cacheEntry{Version: cacheFormatVersion, StoredAt: storedAt.UTC(), Payload: payload})
}

func decodeCacheEntry(raw []byte, dest interface{}) error {
	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil || entry.Version != cacheFormatVersion || len(entry.Payload) == 0 {
		return appErrors.ErrCacheMiss
	}
	if err := json.Unmarshal(entry.Payload, dest); err != nil {
		return fmt.Errorf("decode cached payload: %w", err)
	}
	return nil
}
