// Package roundcache optionally memoizes a full round's result behind
// Redis, keyed by a hash of the inputs that determine it. It is
// correctness-neutral: a disabled cache, a miss, or a Redis error all fall
// through to recomputation, never block it.
package roundcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps an optional Redis client. A nil *Cache (or one built with a
// nil client) behaves as disabled: Get always misses, Put is a no-op.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New returns a Cache backed by client. Passing a nil client yields a
// disabled cache.
func New(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

// Key hashes the inputs that fully determine a round's output: the option
// universe's fingerprint together with the request parameters. Two rounds
// with an identical key are guaranteed to produce an identical result.
func Key(universeFingerprint string, params interface{}) (string, error) {
	payload, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("roundcache: marshal params: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(universeFingerprint))
	h.Write(payload)
	return "optstrat:round:" + hex.EncodeToString(h.Sum(nil)), nil
}

// Get looks up key, unmarshaling into dst on a hit. It returns (false, nil)
// on any miss or error — callers always fall back to recomputing.
func (c *Cache) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	if c == nil || c.client == nil {
		return false, nil
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, nil
	}
	return true, nil
}

// Put stores value under key with the cache's configured TTL. Errors are
// swallowed: memoization is an optimization, never a dependency.
func (c *Cache) Put(ctx context.Context, key string, value interface{}) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key, raw, c.ttl).Err()
}
