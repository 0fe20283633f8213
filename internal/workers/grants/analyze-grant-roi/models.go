// internal/workers/grants/analyze-grant-roi/models.go
package analyzegrantroi

import "grant-engine/internal/models"

type Input struct {
	GrantID          string  `json:"grantId,omitempty"`
	GrantAmount      float64 `json:"grantAmount"`
	ProjectCost      float64 `json:"projectCost"`
	ExpectedRevenue  float64 `json:"expectedRevenue"`
	TimePeriodMonths int     `json:"timePeriodMonths"`
}

type Output struct {
	GrantID string `json:"grantId,omitempty"`
	models.FinancialAnalysis
}
