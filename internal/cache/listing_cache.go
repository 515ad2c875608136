package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/cheese-market/internal/domain"
)

const listingKeyPrefix = "listing:"

// ListingCache is a read-through cache for single-listing reads. A nil client
// disables caching; all operations become no-ops.
type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewListingCache constructs the cache.
func NewListingCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ListingCache {
	return &ListingCache{client: client, ttl: ttl, logger: logger}
}

// Get returns a cached listing, or nil on miss or cache error.
func (c *ListingCache) Get(ctx context.Context, id string) *domain.CheeseListing {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := c.client.Get(ctx, listingKeyPrefix+id).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("listing cache get failed", zap.String("id", id), zap.Error(err))
		}
		return nil
	}
	var listing domain.CheeseListing
	if err := json.Unmarshal(raw, &listing); err != nil {
		c.logger.Warn("listing cache entry corrupt", zap.String("id", id), zap.Error(err))
		return nil
	}
	return &listing
}

// Set stores a listing. Cache failures are logged, never surfaced.
func (c *ListingCache) Set(ctx context.Context, listing *domain.CheeseListing) {
	if c == nil || c.client == nil || listing == nil {
		return
	}
	raw, err := json.Marshal(listing)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, listingKeyPrefix+listing.ID, raw, c.ttl).Err(); err != nil {
		c.logger.Debug("listing cache set failed", zap.String("id", listing.ID), zap.Error(err))
	}
}

// Invalidate drops the cache entry for a listing.
func (c *ListingCache) Invalidate(ctx context.Context, id string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, listingKeyPrefix+id).Err(); err != nil {
		c.logger.Debug("listing cache invalidate failed", zap.String("id", id), zap.Error(err))
	}
}
