package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rgehrsitz/bufferplan/internal/cache"
	"github.com/rgehrsitz/bufferplan/internal/domain"
)

// DefaultTTL applies when NewResponseCache is given a non-positive TTL.
const DefaultTTL = 24 * time.Hour

// ResponseCache implements cache.ResponseCache with JSON string values.
//
// Key schema:
//
//	plan:resp:{fingerprint} - JSON-encoded domain.PlanResponse
type ResponseCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewResponseCache creates a ResponseCache backed by the given Client.
func NewResponseCache(c *Client, ttl time.Duration) *ResponseCache {
	return newResponseCache(c.Underlying(), ttl)
}

func newResponseCache(rdb redis.Cmdable, ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResponseCache{rdb: rdb, ttl: ttl}
}

func responseKey(fingerprint string) string { return "plan:resp:" + fingerprint }

// Get returns cache.ErrMiss when the key does not exist.
func (rc *ResponseCache) Get(ctx context.Context, key string) (*domain.PlanResponse, error) {
	data, err := rc.rdb.Get(ctx, responseKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cache.ErrMiss
		}
		return nil, fmt.Errorf("redis: get response %s: %w", key, err)
	}

	var resp domain.PlanResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("redis: unmarshal response %s: %w", key, err)
	}
	return &resp, nil
}

// Set stores the response with the configured TTL.
func (rc *ResponseCache) Set(ctx context.Context, key string, resp *domain.PlanResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("redis: marshal response %s: %w", key, err)
	}
	if err := rc.rdb.Set(ctx, responseKey(key), data, rc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set response %s: %w", key, err)
	}
	return nil
}

// Compile-time interface check.
var _ cache.ResponseCache = (*ResponseCache)(nil)
