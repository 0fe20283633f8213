// internal/catalog/memory.go
package catalog

import (
	"context"
	"sort"
	"sync"

	"grant-engine/internal/models"
)

// MemoryCatalog serves a fixed set of published grants. It backs tests and
// the "memory" catalog backend.
type MemoryCatalog struct {
	mu     sync.RWMutex
	grants map[string]models.GrantRecord
}

func NewMemoryCatalog(grants ...models.GrantRecord) *MemoryCatalog {
	c := &MemoryCatalog{grants: make(map[string]models.GrantRecord, len(grants))}
	for _, g := range grants {
		c.grants[g.ID] = g
	}
	return c
}

// Put creates or replaces a grant.
func (c *MemoryCatalog) Put(g models.GrantRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.grants[g.ID] = g
}

func (c *MemoryCatalog) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.grants, id)
}

// Find returns matches ordered by ID.
func (c *MemoryCatalog) Find(ctx context.Context, filter Filter) ([]models.GrantRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.GrantRecord, 0, len(c.grants))
	for _, g := range c.grants {
		if filter.Matches(g) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *MemoryCatalog) CountMatching(ctx context.Context, filter Filter) (int, error) {
	grants, err := c.Find(ctx, filter)
	if err != nil {
		return 0, err
	}
	return len(grants), nil
}
