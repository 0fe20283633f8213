// Package catalog reads published grant records from the content store and
// keeps cached aggregates over them.
package catalog

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"grant-engine/internal/common/cache"
	"grant-engine/internal/models"
)

// ErrUnavailable marks a catalog backend that could not answer.
var ErrUnavailable = errors.New("grant catalog unavailable")

// Catalog is the read contract the engine consumes. Implementations return
// only published records and AND together every filter field that is set.
type Catalog interface {
	Find(ctx context.Context, filter Filter) ([]models.GrantRecord, error)
	CountMatching(ctx context.Context, filter Filter) (int, error)
}

// Filter narrows the candidate set. Zero-valued fields are ignored.
type Filter struct {
	CategorySlug   string              `json:"categorySlug,omitempty"`
	PrefectureSlug string              `json:"prefectureSlug,omitempty"`
	AmountRange    *models.AmountRange `json:"amountRange,omitempty"`
	Industry       string              `json:"industry,omitempty"`
}

func (f Filter) IsEmpty() bool {
	return f.CategorySlug == "" && f.PrefectureSlug == "" && f.AmountRange == nil && f.Industry == ""
}

// CacheKey derives a stable aggregate key for the filter under namespace.
func (f Filter) CacheKey(namespace string) string {
	// Slugs match case-sensitively; industry does not.
	parts := map[string]string{
		"category":   f.CategorySlug,
		"prefecture": f.PrefectureSlug,
		"industry":   strings.ToLower(f.Industry),
	}
	if f.AmountRange != nil {
		parts["amount"] = strconv.FormatInt(f.AmountRange.Min, 10) + "-" + strconv.FormatInt(f.AmountRange.Max, 10)
	}
	return cache.DeriveKey(namespace, parts)
}

// Matches applies the filter to a single record. Nationwide grants match any
// prefecture and grants without an industry restriction match any industry.
func (f Filter) Matches(g models.GrantRecord) bool {
	if f.CategorySlug != "" && !g.HasCategory(f.CategorySlug) {
		return false
	}
	if f.PrefectureSlug != "" && !g.HasPrefecture(f.PrefectureSlug) && !g.IsNationwide() {
		return false
	}
	if f.AmountRange != nil {
		r, ok := g.AmountRange()
		if !ok || !r.Overlaps(*f.AmountRange) {
			return false
		}
	}
	if f.Industry != "" && g.TargetIndustry != "" && !strings.EqualFold(g.TargetIndustry, f.Industry) {
		return false
	}
	return true
}
