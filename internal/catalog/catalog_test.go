package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grant-engine/internal/models"
)

func sampleGrants() []models.GrantRecord {
	deadline := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	return []models.GrantRecord{
		{
			ID:              "g-1",
			Title:           "Tokyo IT grant",
			CategorySlugs:   []string{"it-digital"},
			PrefectureSlugs: []string{"tokyo"},
			AmountMin:       500_000,
			AmountMax:       3_000_000,
			TargetIndustry:  "it-digital",
			Deadline:        &deadline,
		},
		{
			ID:              "g-2",
			Title:           "Nationwide equipment grant",
			CategorySlugs:   []string{"equipment"},
			PrefectureSlugs: []string{models.NationwidePrefecture},
			AmountMin:       5_000_000,
			AmountMax:       20_000_000,
			IsFeatured:      true,
		},
		{
			ID:              "g-3",
			Title:           "Osaka retail grant",
			CategorySlugs:   []string{"it-digital", "sales"},
			PrefectureSlugs: []string{"osaka"},
			TargetIndustry:  "retail",
		},
	}
}

func TestFilter_Matches(t *testing.T) {
	tests := []struct {
		name     string
		filter   Filter
		expected []string
	}{
		{name: "empty filter", filter: Filter{}, expected: []string{"g-1", "g-2", "g-3"}},
		{name: "category", filter: Filter{CategorySlug: "it-digital"}, expected: []string{"g-1", "g-3"}},
		{name: "prefecture includes nationwide", filter: Filter{PrefectureSlug: "tokyo"}, expected: []string{"g-1", "g-2"}},
		{
			name:     "amount overlap skips grants without amounts",
			filter:   Filter{AmountRange: &models.AmountRange{Min: 1_000_000, Max: 5_000_000}},
			expected: []string{"g-1", "g-2"},
		},
		{name: "industry keeps unrestricted grants", filter: Filter{Industry: "retail"}, expected: []string{"g-2", "g-3"}},
		{
			name:     "fields are ANDed",
			filter:   Filter{CategorySlug: "it-digital", PrefectureSlug: "osaka", Industry: "retail"},
			expected: []string{"g-3"},
		},
		{name: "no match", filter: Filter{CategorySlug: "does-not-exist"}, expected: []string{}},
	}

	c := NewMemoryCatalog(sampleGrants()...)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grants, err := c.Find(context.Background(), tt.filter)
			require.NoError(t, err)

			got := []string{}
			for _, g := range grants {
				got = append(got, g.ID)
			}
			assert.Equal(t, tt.expected, got)

			count, err := c.CountMatching(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, len(tt.expected), count)
		})
	}
}

func TestFilter_CacheKey(t *testing.T) {
	assert.Equal(t, "count:all", Filter{}.CacheKey("count"))
	assert.Equal(t, "count:category=it-digital", Filter{CategorySlug: "it-digital"}.CacheKey("count"))
	assert.NotEqual(t, Filter{CategorySlug: "it-digital"}.CacheKey("count"), Filter{CategorySlug: "IT-Digital"}.CacheKey("count"))
	assert.Equal(t, Filter{Industry: "retail"}.CacheKey("count"), Filter{Industry: "Retail"}.CacheKey("count"))
	assert.Equal(t,
		"count:amount=1000000-5000000:prefecture=tokyo",
		Filter{PrefectureSlug: "tokyo", AmountRange: &models.AmountRange{Min: 1_000_000, Max: 5_000_000}}.CacheKey("count"),
	)
	assert.True(t, Filter{}.IsEmpty())
	assert.False(t, Filter{Industry: "retail"}.IsEmpty())
}

func TestMemoryCatalog_Mutations(t *testing.T) {
	c := NewMemoryCatalog(sampleGrants()...)
	ctx := context.Background()

	c.Put(models.GrantRecord{ID: "g-4", CategorySlugs: []string{"it-digital"}})
	n, err := c.CountMatching(ctx, Filter{CategorySlug: "it-digital"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	c.Remove("g-1")
	n, err = c.CountMatching(ctx, Filter{CategorySlug: "it-digital"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMemoryCatalog_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryCatalog(sampleGrants()...).Find(ctx, Filter{})
	assert.ErrorIs(t, err, context.Canceled)
}
