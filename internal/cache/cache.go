// Package cache provides a Redis-backed caching decorator for the
// upstream campaign API. Option lookups (network list, filters,
// live-filters) are cached with a TTL; report endpoints pass through so
// KPI and table data stay fresh.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adpulse/campaign-dashboard/internal/dashboard"
	"github.com/adpulse/campaign-dashboard/internal/pkg/logger"
	"github.com/adpulse/campaign-dashboard/internal/upstream"
)

const keyPrefix = "dashboard:"

// Cached decorates a dashboard.API with Redis caching. Redis failures are
// never fatal: a miss or a broken connection falls through to upstream.
type Cached struct {
	inner dashboard.API
	rdb   *redis.Client
	ttl   time.Duration
}

// New wraps api with a Redis cache using the given TTL.
func New(api dashboard.API, rdb *redis.Client, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cached{inner: api, rdb: rdb, ttl: ttl}
}

// lookup reads key into dst. Returns true on a usable hit.
func (c *Cached) lookup(ctx context.Context, key string, dst interface{}) bool {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("cache: redis get failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		logger.Warn("cache: corrupt entry dropped", "key", key, "error", err)
		c.rdb.Del(ctx, key)
		return false
	}
	return true
}

// store writes val under key with the configured TTL. Failures are logged
// and ignored.
func (c *Cached) store(ctx context.Context, key string, val interface{}) {
	data, err := json.Marshal(val)
	if err != nil {
		logger.Warn("cache: marshal failed", "key", key, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logger.Warn("cache: redis set failed", "key", key, "error", err)
	}
}

// ListNetworks serves the network list from cache when possible.
func (c *Cached) ListNetworks(ctx context.Context) (*upstream.NetworksListResponse, error) {
	key := keyPrefix + "networks"
	var cached upstream.NetworksListResponse
	if c.lookup(ctx, key, &cached) {
		return &cached, nil
	}
	resp, err := c.inner.ListNetworks(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, resp)
	return resp, nil
}

// GetFilters serves the unscoped filter options from cache when possible.
func (c *Cached) GetFilters(ctx context.Context) (*upstream.FiltersResponse, error) {
	key := keyPrefix + "filters"
	var cached upstream.FiltersResponse
	if c.lookup(ctx, key, &cached) {
		return &cached, nil
	}
	resp, err := c.inner.GetFilters(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, resp)
	return resp, nil
}

// liveFiltersKey derives the cache key from the request components.
// Each component is written with a NUL terminator and the whole thing
// hashed, so a network id containing a separator character can never
// collide with a different selection.
func liveFiltersKey(req upstream.LiveFiltersRequest) string {
	h := sha256.New()
	for _, part := range req.Networks {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	h.Write([]byte(req.StartDate))
	h.Write([]byte{0})
	h.Write([]byte(req.EndDate))
	return keyPrefix + "live-filters:" + hex.EncodeToString(h.Sum(nil)[:16])
}

// GetLiveFilters caches per (date window, network selection).
func (c *Cached) GetLiveFilters(ctx context.Context, req upstream.LiveFiltersRequest) (*upstream.FiltersResponse, error) {
	key := liveFiltersKey(req)
	var cached upstream.FiltersResponse
	if c.lookup(ctx, key, &cached) {
		return &cached, nil
	}
	resp, err := c.inner.GetLiveFilters(ctx, req)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, resp)
	return resp, nil
}

// GetSummary passes through uncached.
func (c *Cached) GetSummary(ctx context.Context, req upstream.SummaryRequest) (*upstream.SummaryResponse, error) {
	return c.inner.GetSummary(ctx, req)
}

// GetClicks passes through uncached.
func (c *Cached) GetClicks(ctx context.Context, req upstream.TableRequest) (*upstream.ClicksResponse, error) {
	return c.inner.GetClicks(ctx, req)
}

// GetConversions passes through uncached.
func (c *Cached) GetConversions(ctx context.Context, req upstream.TableRequest) (*upstream.ConversionsResponse, error) {
	return c.inner.GetConversions(ctx, req)
}
