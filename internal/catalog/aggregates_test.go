package catalog

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grant-engine/internal/common/cache"
	"grant-engine/internal/common/logger"
	"grant-engine/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

// countingCatalog records how often the backing catalog is hit.
type countingCatalog struct {
	Catalog
	finds  atomic.Int32
	counts atomic.Int32
}

func (c *countingCatalog) Find(ctx context.Context, f Filter) ([]models.GrantRecord, error) {
	c.finds.Add(1)
	return c.Catalog.Find(ctx, f)
}

func (c *countingCatalog) CountMatching(ctx context.Context, f Filter) (int, error) {
	c.counts.Add(1)
	return c.Catalog.CountMatching(ctx, f)
}

// featuredFirst is a minimal Ranker: featured grants first, then ID.
type featuredFirst struct{}

func (featuredFirst) Rank(results []models.ScoredGrant, topN int) []models.ScoredGrant {
	out := append([]models.ScoredGrant(nil), results...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsFeatured != out[j].IsFeatured {
			return out[i].IsFeatured
		}
		return out[i].GrantID < out[j].GrantID
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string, string) (cache.Entry, error) {
	return cache.Entry{}, cache.ErrUnavailable
}

func (brokenStore) Set(context.Context, cache.Entry) error {
	return cache.ErrUnavailable
}

func (brokenStore) Delete(context.Context, string, string) error {
	return cache.ErrUnavailable
}

func (brokenStore) DeleteGroup(context.Context, string) (int, error) {
	return 0, cache.ErrUnavailable
}

func newTestAggregates(t *testing.T) (*Aggregates, *countingCatalog, *MemoryCatalog, *cache.ManualClock) {
	mem := NewMemoryCatalog(sampleGrants()...)
	counting := &countingCatalog{Catalog: mem}
	clock := cache.NewManualClock(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	log := logger.NewTestLogger(t)
	ac := cache.New(cache.NewMemoryStore(clock), log, cache.WithClock(clock))
	return NewAggregates(counting, ac, featuredFirst{}, AggregatesConfig{}, log), counting, mem, clock
}

// ==========================
// Core Functionality Tests
// ==========================

func TestAggregates_CountsAreCached(t *testing.T) {
	agg, counting, _, _ := newTestAggregates(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		n, err := agg.CategoryCount(ctx, "it-digital")
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	}
	assert.Equal(t, int32(1), counting.counts.Load())

	n, err := agg.PrefectureCount(ctx, "tokyo")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = agg.TotalCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, int32(3), counting.counts.Load())
}

func TestAggregates_ZeroCountsAreCached(t *testing.T) {
	agg, counting, _, _ := newTestAggregates(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		n, err := agg.CategoryCount(ctx, "does-not-exist")
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	}
	assert.Equal(t, int32(1), counting.counts.Load())
}

func TestAggregates_CountsKeepSlugCase(t *testing.T) {
	agg, counting, _, _ := newTestAggregates(t)
	ctx := context.Background()

	n, err := agg.CategoryCount(ctx, "IT-Digital")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = agg.CategoryCount(ctx, "it-digital")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int32(2), counting.counts.Load())
}

func TestAggregates_CountsExpireAfterTTL(t *testing.T) {
	agg, counting, _, clock := newTestAggregates(t)
	ctx := context.Background()

	_, err := agg.TotalCount(ctx)
	require.NoError(t, err)
	clock.Advance(cache.DefaultCountTTL)
	_, err = agg.TotalCount(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(2), counting.counts.Load())
}

func TestAggregates_OnGrantChanged(t *testing.T) {
	agg, counting, mem, _ := newTestAggregates(t)
	ctx := context.Background()

	n, err := agg.CategoryCount(ctx, "it-digital")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = agg.PopularGrants(ctx, 5)
	require.NoError(t, err)

	mem.Put(models.GrantRecord{ID: "g-9", CategorySlugs: []string{"it-digital"}, IsFeatured: true})

	// Stale until the change is announced.
	n, err = agg.CategoryCount(ctx, "it-digital")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, agg.OnGrantChanged(ctx, GrantChange{GrantID: "g-9", Kind: ChangeCreated}))

	n, err = agg.CategoryCount(ctx, "it-digital")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, int32(2), counting.counts.Load())

	popular, err := agg.PopularGrants(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int32(2), counting.finds.Load())
	assert.Equal(t, "g-2", popular[0].GrantID)
	assert.Equal(t, "g-9", popular[1].GrantID)
}

func TestAggregates_OnGrantChanged_UnknownKind(t *testing.T) {
	agg, _, _, _ := newTestAggregates(t)

	err := agg.OnGrantChanged(context.Background(), GrantChange{GrantID: "g-1", Kind: "archived"})
	assert.ErrorIs(t, err, ErrUnknownChange)
}

func TestAggregates_PopularGrants(t *testing.T) {
	agg, counting, _, _ := newTestAggregates(t)
	ctx := context.Background()

	popular, err := agg.PopularGrants(ctx, 2)
	require.NoError(t, err)
	require.Len(t, popular, 2)
	assert.Equal(t, "g-2", popular[0].GrantID)
	assert.Equal(t, []string{"Featured grant"}, popular[0].Reasons)
	assert.Equal(t, "g-1", popular[1].GrantID)
	require.NotNil(t, popular[1].Deadline)

	_, err = agg.PopularGrants(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(1), counting.finds.Load())
}

func TestAggregates_StoreDown(t *testing.T) {
	log := logger.NewTestLogger(t)
	counting := &countingCatalog{Catalog: NewMemoryCatalog(sampleGrants()...)}
	agg := NewAggregates(counting, cache.New(brokenStore{}, log), featuredFirst{}, AggregatesConfig{}, log)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		n, err := agg.TotalCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	}
	assert.Equal(t, int32(2), counting.counts.Load(), "computed directly every time")

	err := agg.OnGrantChanged(ctx, GrantChange{GrantID: "g-1", Kind: ChangeUpdated})
	assert.ErrorIs(t, err, cache.ErrUnavailable)
}

func TestAggregates_CatalogErrorIsNotCached(t *testing.T) {
	log := logger.NewTestLogger(t)
	catalogErr := errors.New("catalog timeout")
	clock := cache.NewManualClock(time.Now())
	agg := NewAggregates(failing{err: catalogErr}, cache.New(cache.NewMemoryStore(clock), log, cache.WithClock(clock)), featuredFirst{}, AggregatesConfig{}, log)

	_, err := agg.TotalCount(context.Background())
	assert.ErrorIs(t, err, catalogErr)
}

type failing struct{ err error }

func (f failing) Find(context.Context, Filter) ([]models.GrantRecord, error) {
	return nil, f.err
}

func (f failing) CountMatching(context.Context, Filter) (int, error) {
	return 0, f.err
}
