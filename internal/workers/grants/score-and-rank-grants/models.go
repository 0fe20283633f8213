// internal/workers/grants/score-and-rank-grants/models.go
package scoreandrankgrants

import (
	"grant-engine/internal/catalog"
	"grant-engine/internal/models"
)

type Input struct {
	Profile map[string]interface{} `json:"profile"`
	Filter  catalog.FilterRequest  `json:"filter"`
	TopN    int                    `json:"topN"`
}

type Output struct {
	RunID          string               `json:"runId"`
	Results        []models.ScoredGrant `json:"results"`
	CandidateCount int                  `json:"candidateCount"`
	Fallback       bool                 `json:"fallback"`
}
