// internal/engine/match.go
package engine

import (
	"fmt"
	"math"
	"strings"

	"grant-engine/internal/models"
)

const (
	baselineFactor = 0.5
	purposeFactor  = 0.3
	matchFactor    = 0.5
)

// Company size answers mapped to employee headcount bands.
var companySizeBands = map[string]models.EmployeeRange{
	"individual": {Min: 0, Max: 1},
	"small":      {Min: 1, Max: 50},
	"medium":     {Min: 51, Max: 300},
	"large":      {Min: 301, Max: math.MaxInt32},
}

// MatchScorer rates how well a grant fits a profile. It holds no mutable
// state and is safe for concurrent use.
type MatchScorer struct {
	buckets   map[string]models.AmountRange
	sizeBands map[string]models.EmployeeRange
}

func NewMatchScorer() *MatchScorer {
	return &MatchScorer{
		buckets:   models.AmountBuckets,
		sizeBands: companySizeBands,
	}
}

type matchBreakdown struct {
	raw, max float64

	industry string
	size     string
	purposes []string
	region   string
	amount   string
}

// Score returns a 0-100 score with reasons ordered industry, size, purpose,
// region, amount.
func (s *MatchScorer) Score(profile models.UserProfile, grant models.GrantRecord) models.MatchResult {
	b := s.evaluate(profile, grant)

	score := 0.0
	if b.max > 0 {
		score = clamp(b.raw/b.max*100, 0, 100)
	}

	return models.MatchResult{
		GrantID: grant.ID,
		Score:   round2(score),
		Reasons: b.reasons(),
	}
}

func (s *MatchScorer) evaluate(profile models.UserProfile, grant models.GrantRecord) matchBreakdown {
	var b matchBreakdown

	for _, key := range profile.Keys() {
		w := key.Weight()
		answer, _ := profile.Get(key)

		b.max += w
		b.raw += w * baselineFactor

		switch key {
		case models.QuestionPurpose:
			for _, v := range answer.Strings() {
				if grant.HasCategory(v) {
					b.raw += w * purposeFactor
					b.purposes = append(b.purposes, v)
				}
			}

		case models.QuestionPrefecture:
			pref := answer.Value
			if grant.HasPrefecture(pref) {
				b.raw += w * matchFactor
				b.region = pref
			} else if grant.IsNationwide() {
				b.raw += w * matchFactor
				b.region = models.NationwidePrefecture
			}

		case models.QuestionAmount:
			ratio := s.amountRatio(answer.Value, grant)
			if ratio > 0 {
				b.raw += w * matchFactor * ratio
				b.amount = answer.Value
			}

		case models.QuestionIndustry:
			if grant.TargetIndustry != "" && strings.EqualFold(grant.TargetIndustry, answer.Value) {
				b.raw += w * matchFactor
				b.industry = answer.Value
			}

		case models.QuestionCompanySize:
			if s.sizeMatches(answer.Value, grant) {
				b.raw += w * matchFactor
				b.size = answer.Value
			}
		}
	}

	return b
}

// amountRatio is the share of the requested bucket covered by the grant's range.
func (s *MatchScorer) amountRatio(bucket string, grant models.GrantRecord) float64 {
	requested, ok := s.buckets[bucket]
	if !ok || requested.Width() <= 0 {
		return 0
	}
	offered, ok := grant.AmountRange()
	if !ok {
		return 0
	}
	return clamp(float64(requested.Overlap(offered))/float64(requested.Width()), 0, 1)
}

func (s *MatchScorer) sizeMatches(size string, grant models.GrantRecord) bool {
	if size == "individual" && grant.IsIndividualTarget {
		return true
	}
	if grant.TargetEmployeeRange == nil {
		return false
	}
	band, ok := s.sizeBands[size]
	return ok && band.Overlaps(*grant.TargetEmployeeRange)
}

func (b matchBreakdown) reasons() []string {
	reasons := make([]string, 0, 5)
	if b.industry != "" {
		reasons = append(reasons, fmt.Sprintf("Targets the %s industry", b.industry))
	}
	if b.size != "" {
		reasons = append(reasons, fmt.Sprintf("Open to %s businesses", b.size))
	}
	if len(b.purposes) > 0 {
		reasons = append(reasons, fmt.Sprintf("Supports your purpose: %s", strings.Join(b.purposes, ", ")))
	}
	if b.region == models.NationwidePrefecture {
		reasons = append(reasons, "Available nationwide")
	} else if b.region != "" {
		reasons = append(reasons, fmt.Sprintf("Available in %s", b.region))
	}
	if b.amount != "" {
		reasons = append(reasons, fmt.Sprintf("Grant amount fits your requested range (%s)", b.amount))
	}
	return reasons
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
