// internal/engine/ranking.go
package engine

import (
	"sort"
	"time"

	"grant-engine/internal/models"
)

const (
	DefaultSearchLimit    = 10
	DefaultDiagnosisLimit = 3
	DefaultPopularLimit   = 5
)

// Ranker orders scored grants. Ties on score go to featured grants, then the
// soonest open deadline, then grant ID.
type Ranker struct {
	now func() time.Time
}

type RankerOption func(*Ranker)

// WithNow fixes the time used to decide whether a deadline has passed.
func WithNow(now func() time.Time) RankerOption {
	return func(r *Ranker) { r.now = now }
}

func NewRanker(opts ...RankerOption) *Ranker {
	r := &Ranker{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank returns a sorted copy truncated to topN; topN <= 0 uses DefaultSearchLimit.
func (r *Ranker) Rank(results []models.ScoredGrant, topN int) []models.ScoredGrant {
	if topN <= 0 {
		topN = DefaultSearchLimit
	}

	out := make([]models.ScoredGrant, len(results))
	copy(out, results)

	now := r.now()
	sort.SliceStable(out, func(i, j int) bool {
		return r.less(out[i], out[j], now)
	})

	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

func (r *Ranker) less(a, b models.ScoredGrant, now time.Time) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.IsFeatured != b.IsFeatured {
		return a.IsFeatured
	}

	da, okA := models.OpenDeadline(a.Deadline, now)
	db, okB := models.OpenDeadline(b.Deadline, now)
	switch {
	case okA && okB && !da.Equal(db):
		return da.Before(db)
	case okA != okB:
		return okA
	}

	return a.GrantID < b.GrantID
}

// scoredGrant pairs a match result with the grant fields the ranker needs.
func scoredGrant(result models.MatchResult, grant models.GrantRecord) models.ScoredGrant {
	return models.ScoredGrant{
		MatchResult: result,
		Title:       grant.Title,
		IsFeatured:  grant.IsFeatured,
		Deadline:    grant.Deadline,
	}
}
