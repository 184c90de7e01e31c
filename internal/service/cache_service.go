package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coreconnect/backend/pkg/logger"
	"github.com/coreconnect/backend/pkg/redis"
)

// CacheService is a thin JSON cache over Redis. A nil client disables
// caching entirely; every method degrades to a miss or a no-op so callers
// never branch on whether Redis is configured.
type CacheService struct {
	client *redis.Client
}

func NewCacheService(client *redis.Client) *CacheService {
	return &CacheService{client: client}
}

func (s *CacheService) Enabled() bool {
	return s != nil && s.client != nil
}

// GetJSON unmarshals a cached value into dest; returns false on miss or error
func (s *CacheService) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}

	raw, err := s.client.Get(ctx, key)
	if err != nil || raw == "" {
		return false
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		logger.WarnWithContext(ctx, "Corrupt cache entry dropped").
			String("key", key).
			Err(err).
			Log()
		_ = s.client.Delete(ctx, key)
		return false
	}
	return true
}

// SetJSON marshals and stores a value; failures are logged and swallowed
func (s *CacheService) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !s.Enabled() {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		logger.WarnWithContext(ctx, "Failed to marshal cache value").
			String("key", key).
			Err(err).
			Log()
		return
	}
	if err := s.client.Set(ctx, key, string(raw), ttl); err != nil {
		logger.WarnWithContext(ctx, "Failed to store cache value").
			String("key", key).
			Err(err).
			Log()
	}
}

// Invalidate drops every key matching the pattern
func (s *CacheService) Invalidate(ctx context.Context, pattern string) {
	if !s.Enabled() {
		return
	}
	if err := s.client.DeleteByPattern(ctx, pattern); err != nil {
		logger.WarnWithContext(ctx, "Cache invalidation failed").
			String("pattern", pattern).
			Err(err).
			Log()
	}
}

// Ping reports cache backend health for the health endpoint
func (s *CacheService) Ping(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	return s.client.Ping(ctx)
}
