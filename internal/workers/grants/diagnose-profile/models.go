// internal/workers/grants/diagnose-profile/models.go
package diagnoseprofile

import (
	"grant-engine/internal/catalog"
	"grant-engine/internal/models"
)

type Input struct {
	Profile                map[string]interface{} `json:"profile"`
	Filter                 catalog.FilterRequest  `json:"filter"`
	IncludeRecommendations *bool                  `json:"includeRecommendations,omitempty"`
}

type Output struct {
	models.DiagnosisResult
	MissingQuestions []string `json:"missingQuestions"`
}
