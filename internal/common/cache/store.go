// internal/common/cache/store.go
package cache

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned by a Store when no unexpired entry exists for a key.
	ErrNotFound = errors.New("cache entry not found")
	// ErrUnavailable wraps any backing-store failure other than a miss.
	ErrUnavailable = errors.New("cache store unavailable")
)

// Entry is one cached aggregate tagged with its invalidation group.
type Entry struct {
	Key       string
	Group     string
	Value     []byte
	ExpiresAt time.Time
}

// Store is the key-value service behind the aggregate cache.
// Implementations give no transactional guarantee across keys.
type Store interface {
	Get(ctx context.Context, key, group string) (Entry, error)
	Set(ctx context.Context, entry Entry) error
	Delete(ctx context.Context, key, group string) error
	DeleteGroup(ctx context.Context, group string) (int, error)
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// ManualClock is a Clock that only moves when told to.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
