// internal/catalog/request.go
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"grant-engine/internal/models"
)

var ErrInvalidFilter = errors.New("invalid grant filter")

// FilterRequest is the filter as job callers send it. An amount may be given
// as a named bucket or as an explicit range, not both.
type FilterRequest struct {
	CategorySlug   string              `json:"categorySlug,omitempty"`
	PrefectureSlug string              `json:"prefectureSlug,omitempty"`
	Industry       string              `json:"industry,omitempty"`
	AmountBucket   string              `json:"amountBucket,omitempty"`
	AmountRange    *models.AmountRange `json:"amountRange,omitempty"`
}

func (r FilterRequest) Resolve() (Filter, error) {
	f := Filter{
		CategorySlug:   strings.TrimSpace(r.CategorySlug),
		PrefectureSlug: strings.TrimSpace(r.PrefectureSlug),
		Industry:       strings.TrimSpace(r.Industry),
	}

	switch {
	case r.AmountBucket != "" && r.AmountRange != nil:
		return Filter{}, fmt.Errorf("%w: amountBucket and amountRange are exclusive", ErrInvalidFilter)
	case r.AmountBucket != "":
		bucket, ok := models.AmountBuckets[r.AmountBucket]
		if !ok {
			return Filter{}, fmt.Errorf("%w: unknown amount bucket %q", ErrInvalidFilter, r.AmountBucket)
		}
		f.AmountRange = &bucket
	case r.AmountRange != nil:
		if r.AmountRange.Min < 0 || r.AmountRange.Max < r.AmountRange.Min {
			return Filter{}, fmt.Errorf("%w: amount range %d-%d", ErrInvalidFilter, r.AmountRange.Min, r.AmountRange.Max)
		}
		ar := *r.AmountRange
		f.AmountRange = &ar
	}

	return f, nil
}
