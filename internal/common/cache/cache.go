// Package cache implements the get-or-compute aggregate cache used for catalog
// counts and derived suggestion lists.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"grant-engine/internal/common/logger"
	"grant-engine/internal/common/metrics"
)

const (
	GroupGrantCounts = "grant_counts"
	GroupSuggestions = "grant_suggestions"

	DefaultCountTTL      = time.Hour
	DefaultSuggestionTTL = 30 * time.Minute
)

// ComputeFunc produces the value for a missing key. It must be idempotent and
// must not mutate the catalog.
type ComputeFunc func(ctx context.Context) ([]byte, error)

// AggregateCache is the contract consumed by the catalog aggregates.
type AggregateCache interface {
	GetOrCompute(ctx context.Context, key, group string, ttl time.Duration, compute ComputeFunc) ([]byte, error)
	InvalidateGroup(ctx context.Context, group string) error
	InvalidateKey(ctx context.Context, key, group string) error
}

// Cache is the default AggregateCache over an injectable Store.
// Two concurrent misses on one key may both compute unless WithSingleFlight is set.
type Cache struct {
	store  Store
	clock  Clock
	logger logger.Logger
	flight *singleflight.Group
}

type Option func(*Cache)

func WithClock(clock Clock) Option {
	return func(c *Cache) { c.clock = clock }
}

// WithSingleFlight collapses concurrent misses on the same key into one compute.
func WithSingleFlight() Option {
	return func(c *Cache) { c.flight = &singleflight.Group{} }
}

// New builds a Cache. A nil store is allowed and makes every call compute directly.
func New(store Store, log logger.Logger, opts ...Option) *Cache {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	c := &Cache{
		store:  store,
		clock:  SystemClock,
		logger: log.WithFields(map[string]interface{}{"component": "aggregate-cache"}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) GetOrCompute(ctx context.Context, key, group string, ttl time.Duration, compute ComputeFunc) ([]byte, error) {
	if c.store == nil {
		metrics.CacheRequests.WithLabelValues(group, metrics.CacheFallback).Inc()
		return compute(ctx)
	}

	entry, err := c.store.Get(ctx, key, group)
	switch {
	case err == nil && c.fresh(entry):
		metrics.CacheRequests.WithLabelValues(group, metrics.CacheHit).Inc()
		return entry.Value, nil
	case err == nil || errors.Is(err, ErrNotFound):
		metrics.CacheRequests.WithLabelValues(group, metrics.CacheMiss).Inc()
		return c.computeAndStore(ctx, key, group, ttl, compute)
	default:
		// Store down: serve straight from the source, never from stale data.
		metrics.CacheRequests.WithLabelValues(group, metrics.CacheFallback).Inc()
		c.logger.Warn("cache store unavailable, computing directly", map[string]interface{}{
			"key":   key,
			"group": group,
			"error": err,
		})
		return compute(ctx)
	}
}

func (c *Cache) computeAndStore(ctx context.Context, key, group string, ttl time.Duration, compute ComputeFunc) ([]byte, error) {
	run := func() ([]byte, error) {
		value, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		entry := Entry{
			Key:       key,
			Group:     group,
			Value:     value,
			ExpiresAt: c.clock.Now().Add(ttl),
		}
		if err := c.store.Set(ctx, entry); err != nil {
			c.logger.Warn("failed to store aggregate", map[string]interface{}{
				"key":   key,
				"group": group,
				"error": err,
			})
		}
		return value, nil
	}

	if c.flight == nil {
		return run()
	}
	v, err, _ := c.flight.Do(group+"|"+key, func() (interface{}, error) {
		return run()
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *Cache) fresh(e Entry) bool {
	return e.ExpiresAt.IsZero() || c.clock.Now().Before(e.ExpiresAt)
}

func (c *Cache) InvalidateGroup(ctx context.Context, group string) error {
	if c.store == nil {
		return nil
	}
	n, err := c.store.DeleteGroup(ctx, group)
	if err != nil {
		return fmt.Errorf("invalidate group %s: %w", group, err)
	}
	metrics.CacheInvalidations.WithLabelValues(group).Inc()
	c.logger.Debug("cache group invalidated", map[string]interface{}{
		"group":   group,
		"removed": n,
	})
	return nil
}

func (c *Cache) InvalidateKey(ctx context.Context, key, group string) error {
	if c.store == nil {
		return nil
	}
	if err := c.store.Delete(ctx, key, group); err != nil {
		return fmt.Errorf("invalidate key %s: %w", key, err)
	}
	return nil
}

// GetOrComputeJSON is GetOrCompute for JSON-encodable values. A cached value
// that no longer decodes into T is dropped and recomputed.
func GetOrComputeJSON[T any](ctx context.Context, c AggregateCache, key, group string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	var zero T
	encode := func(ctx context.Context) ([]byte, error) {
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	}

	data, err := c.GetOrCompute(ctx, key, group, ttl, encode)
	if err != nil {
		return zero, err
	}

	var out T
	if err := json.Unmarshal(data, &out); err == nil {
		return out, nil
	}

	if err := c.InvalidateKey(ctx, key, group); err != nil {
		if src, ok := c.(logSource); ok {
			src.log().Warn("failed to drop undecodable aggregate", map[string]interface{}{
				"key":   key,
				"group": group,
				"error": err,
			})
		}
	}
	return compute(ctx)
}

type logSource interface {
	log() logger.Logger
}

func (c *Cache) log() logger.Logger { return c.logger }
