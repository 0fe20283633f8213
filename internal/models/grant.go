// internal/models/grant.go
package models

import "time"

// NationwidePrefecture marks a grant available in every prefecture.
const NationwidePrefecture = "nationwide"

type EmployeeRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Overlaps reports whether the two inclusive ranges share at least one value.
func (r EmployeeRange) Overlaps(o EmployeeRange) bool {
	return r.Min <= o.Max && o.Min <= r.Max
}

// GrantRecord is a read-only snapshot of a published grant program supplied by the catalog.
type GrantRecord struct {
	ID                  string         `json:"id"`
	Title               string         `json:"title"`
	CategorySlugs       []string       `json:"categorySlugs"`
	PrefectureSlugs     []string       `json:"prefectureSlugs"`
	AmountMin           int64          `json:"amountMin"`
	AmountMax           int64          `json:"amountMax"`
	Deadline            *time.Time     `json:"deadline,omitempty"`
	TargetIndustry      string         `json:"targetIndustry,omitempty"`
	TargetEmployeeRange *EmployeeRange `json:"targetEmployeeRange,omitempty"`
	IsIndividualTarget  bool           `json:"isIndividualTarget"`
	IsFeatured          bool           `json:"isFeatured"`
}

func (g GrantRecord) HasCategory(slug string) bool {
	return containsString(g.CategorySlugs, slug)
}

func (g GrantRecord) HasPrefecture(slug string) bool {
	return containsString(g.PrefectureSlugs, slug)
}

func (g GrantRecord) IsNationwide() bool {
	return containsString(g.PrefectureSlugs, NationwidePrefecture)
}

// OpenDeadline returns d when it is set and its day has not ended at now.
// Deadlines are calendar days: one stored as midnight stays open all that day
// in its own location.
func OpenDeadline(d *time.Time, now time.Time) (time.Time, bool) {
	if d == nil {
		return time.Time{}, false
	}
	y, m, day := now.In(d.Location()).Date()
	if d.Before(time.Date(y, m, day, 0, 0, 0, 0, d.Location())) {
		return time.Time{}, false
	}
	return *d, true
}

func containsString(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// AmountRange is an inclusive yen range.
type AmountRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

func (r AmountRange) Width() int64 {
	return r.Max - r.Min
}

// Overlap returns the width shared with o, zero when they are disjoint.
func (r AmountRange) Overlap(o AmountRange) int64 {
	lo, hi := r.Min, r.Max
	if o.Min > lo {
		lo = o.Min
	}
	if o.Max < hi {
		hi = o.Max
	}
	if hi < lo {
		return 0
	}
	return hi - lo
}

func (r AmountRange) Overlaps(o AmountRange) bool {
	return r.Min <= o.Max && o.Min <= r.Max
}

// AmountRange of the grant, ok is false when the catalog supplied no amounts.
func (g GrantRecord) AmountRange() (AmountRange, bool) {
	if g.AmountMin == 0 && g.AmountMax == 0 {
		return AmountRange{}, false
	}
	hi := g.AmountMax
	if hi < g.AmountMin {
		hi = g.AmountMin
	}
	return AmountRange{Min: g.AmountMin, Max: hi}, true
}

// Desired-amount and budget answers share these buckets.
const (
	BucketUnder1M  = "under_1m"
	Bucket1MTo5M   = "1m_5m"
	Bucket5MTo10M  = "5m_10m"
	Bucket10MTo30M = "10m_30m"
	BucketOver30M  = "over_30m"
)

var AmountBuckets = map[string]AmountRange{
	BucketUnder1M:  {Min: 0, Max: 1_000_000},
	Bucket1MTo5M:   {Min: 1_000_000, Max: 5_000_000},
	Bucket5MTo10M:  {Min: 5_000_000, Max: 10_000_000},
	Bucket10MTo30M: {Min: 10_000_000, Max: 30_000_000},
	BucketOver30M:  {Min: 30_000_000, Max: 100_000_000},
}
