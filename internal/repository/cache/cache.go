// Package cache implements the cache-aside result cache. All failures of the
// backing store degrade to a miss: the cache never becomes authoritative and
// never fails the enclosing request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/paperbase/semsearch/internal/db"
	"github.com/paperbase/semsearch/internal/metrics"
)

// store is the consumer interface for the result cache.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	Ping(ctx context.Context) error
}

// Cache is a cache-aside layer over the key-value store.
type Cache struct {
	store  store
	logger *zap.Logger
}

// New creates a result cache.
func New(s store, logger *zap.Logger) *Cache {
	return &Cache{store: s, logger: logger}
}

// Get unmarshals the entry at key into v. Returns false on miss, on a store
// failure, or on an undecodable entry.
func (c *Cache) Get(ctx context.Context, namespace, key string, v any) bool {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		metrics.ResultCacheTotal.WithLabelValues(namespace, "miss").Inc()
		return false
	}

	if err := json.Unmarshal(data, v); err != nil {
		c.logger.Warn("Cache entry undecodable", zap.String("key", key), zap.Error(err))
		metrics.ResultCacheTotal.WithLabelValues(namespace, "miss").Inc()
		return false
	}

	metrics.ResultCacheTotal.WithLabelValues(namespace, "hit").Inc()
	return true
}

// Set stores v at key. ttl <= 0 stores without expiration. Failures are
// logged and swallowed; two concurrent fills may race and last-write-wins.
func (c *Cache) Set(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("Cache value not serializable", zap.String("key", key), zap.Error(err))
		return
	}

	if ttl > 0 {
		err = c.store.SetWithTTL(ctx, key, data, ttl)
	} else {
		err = c.store.Set(ctx, key, data)
	}
	if err != nil {
		c.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete evicts specific keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if err := c.store.Del(ctx, keys...); err != nil {
		c.logger.Warn("Cache eviction failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// DeleteByPattern evicts every key matching pattern.
func (c *Cache) DeleteByPattern(ctx context.Context, pattern string) {
	keys, err := c.store.Scan(ctx, pattern)
	if err != nil {
		c.logger.Warn("Cache pattern scan failed", zap.String("pattern", pattern), zap.Error(err))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.store.Del(ctx, keys...); err != nil {
		c.logger.Warn("Cache pattern eviction failed", zap.String("pattern", pattern), zap.Error(err))
	}
}

// InvalidateDocument evicts everything a document write can stale: the detail
// entry, the owner's listing pages, cached search results, and aggregates.
// Content-hash namespaces (OCR, classification) are deliberately untouched.
func (c *Cache) InvalidateDocument(ctx context.Context, docID, ownerID string) {
	c.Delete(ctx, DocumentKey(docID))
	c.DeleteByPattern(ctx, UserDocumentsPattern(ownerID))
	c.DeleteByPattern(ctx, SearchResultsPattern())
	c.DeleteByPattern(ctx, StatsPattern())
}

// InvalidateUserProfile evicts a user's profile entry.
func (c *Cache) InvalidateUserProfile(ctx context.Context, userID string) {
	c.Delete(ctx, UserProfileKey(userID))
}

// Clear evicts the whole cache, content-hash namespaces included.
func (c *Cache) Clear(ctx context.Context) {
	c.DeleteByPattern(ctx, AllPattern())
}

// Healthy reports whether the backing store answers. A connectivity failure
// reports down instead of raising so callers can bypass the cache.
func (c *Cache) Healthy(ctx context.Context) bool {
	if err := c.store.Ping(ctx); err != nil {
		c.logger.Warn("Cache backend down", zap.Error(err))
		return false
	}
	return true
}
