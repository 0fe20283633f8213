// internal/models/results.go
package models

import "time"

type MatchResult struct {
	GrantID string   `json:"grantId"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

// ScoredGrant carries the grant attributes the ranker needs for tie-breaks.
type ScoredGrant struct {
	MatchResult
	Title      string     `json:"title,omitempty"`
	IsFeatured bool       `json:"isFeatured"`
	Deadline   *time.Time `json:"deadline,omitempty"`
}

// MatchRun is the outcome of one score-and-rank call.
type MatchRun struct {
	RunID          string        `json:"runId"`
	Results        []ScoredGrant `json:"results"`
	CandidateCount int           `json:"candidateCount"`
	Fallback       bool          `json:"fallback"`
}

// MatchResults strips the ranking metadata.
func (r MatchRun) MatchResults() []MatchResult {
	out := make([]MatchResult, 0, len(r.Results))
	for _, s := range r.Results {
		out = append(out, s.MatchResult)
	}
	return out
}

type DiagnosisScores struct {
	Readiness       float64 `json:"readiness"`
	Feasibility     float64 `json:"feasibility"`
	Competitiveness float64 `json:"competitiveness"`
	Sustainability  float64 `json:"sustainability"`
}

// Average of the four sub-scores.
func (s DiagnosisScores) Average() float64 {
	return (s.Readiness + s.Feasibility + s.Competitiveness + s.Sustainability) / 4
}

type ImprovementArea struct {
	Area       string `json:"area"`
	Suggestion string `json:"suggestion"`
}

type DiagnosisResult struct {
	DiagnosisID        string            `json:"diagnosisId,omitempty"`
	Scores             DiagnosisScores   `json:"scores"`
	SuccessProbability float64           `json:"successProbability"`
	Strengths          []string          `json:"strengths"`
	ImprovementAreas   []ImprovementArea `json:"improvementAreas"`
	Completeness       float64           `json:"completeness"`
	Recommendations    []ScoredGrant     `json:"recommendations,omitempty"`
}

type FinancialAnalysis struct {
	ROIPct              float64 `json:"roiPct"`
	RiskAdjustedROIPct  float64 `json:"riskAdjustedRoiPct"`
	NetInvestment       float64 `json:"netInvestment"`
	PaybackPeriodMonths float64 `json:"paybackPeriodMonths"`
	PaybackAchievable   bool    `json:"paybackAchievable"`
	GrantCoveragePct    float64 `json:"grantCoveragePct"`
	RiskFactorPct       float64 `json:"riskFactorPct"`
	Recommendation      string  `json:"recommendation"`
}
