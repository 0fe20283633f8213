// internal/engine/diagnosis.go
package engine

import (
	"grant-engine/internal/models"
)

const (
	strengthThreshold    = 80
	improvementThreshold = 70

	minSuccessProbability = 5
	maxSuccessProbability = 95

	defaultBusinessType = "existing"
)

var baseScores = map[string]models.DiagnosisScores{
	"startup":   {Readiness: 60, Feasibility: 55, Competitiveness: 50, Sustainability: 45},
	"existing":  {Readiness: 75, Feasibility: 70, Competitiveness: 65, Sustainability: 70},
	"expansion": {Readiness: 80, Feasibility: 75, Competitiveness: 70, Sustainability: 75},
}

var sizeMultipliers = map[string]float64{
	"individual": 0.8,
	"small":      1.0,
	"medium":     1.1,
	"large":      0.9,
}

var experienceMultipliers = map[string]float64{
	"none":        0.7,
	"some":        0.9,
	"experienced": 1.2,
	"expert":      1.3,
}

var industryMultipliers = map[string]float64{
	"it-digital":    1.1,
	"manufacturing": 1.05,
	"agriculture":   1.05,
	"healthcare":    1.05,
	"construction":  1.0,
	"retail":        0.95,
	"tourism":       0.95,
	"food-service":  0.9,
}

// Larger requested budgets lower the odds of approval.
var budgetMultipliers = map[string]float64{
	models.BucketUnder1M:  1.0,
	models.Bucket1MTo5M:   0.95,
	models.Bucket5MTo10M:  0.9,
	models.Bucket10MTo30M: 0.85,
	models.BucketOver30M:  0.8,
}

var improvementSuggestions = []struct {
	area       string
	score      func(models.DiagnosisScores) float64
	suggestion string
}{
	{"readiness", func(s models.DiagnosisScores) float64 { return s.Readiness },
		"Detail the business plan with concrete milestones, schedule and budget breakdown"},
	{"feasibility", func(s models.DiagnosisScores) float64 { return s.Feasibility },
		"Review market research and the financial plan to show the project can be delivered"},
	{"competitiveness", func(s models.DiagnosisScores) float64 { return s.Competitiveness },
		"Clarify what differentiates the business from competitors"},
}

// DiagnosisScorer estimates application strength from the profile alone.
// Identical profiles always produce identical results.
type DiagnosisScorer struct{}

func NewDiagnosisScorer() *DiagnosisScorer {
	return &DiagnosisScorer{}
}

func (d *DiagnosisScorer) Diagnose(profile models.UserProfile) models.DiagnosisResult {
	base, ok := baseScores[profile.Scalar(models.QuestionBusinessType)]
	if !ok {
		base = baseScores[defaultBusinessType]
	}

	size := profile.Scalar(models.QuestionCompanySize)
	experience := profile.Scalar(models.QuestionExperience)
	mult := lookup(sizeMultipliers, size) * lookup(experienceMultipliers, experience)

	scores := models.DiagnosisScores{
		Readiness:       round2(clamp(base.Readiness*mult, 0, 100)),
		Feasibility:     round2(clamp(base.Feasibility*mult, 0, 100)),
		Competitiveness: round2(clamp(base.Competitiveness*mult, 0, 100)),
		Sustainability:  round2(clamp(base.Sustainability*mult, 0, 100)),
	}

	probability := scores.Average() *
		lookup(industryMultipliers, profile.Scalar(models.QuestionIndustry)) *
		lookup(budgetMultipliers, profile.Scalar(models.QuestionBudget))

	return models.DiagnosisResult{
		Scores:             scores,
		SuccessProbability: round2(clamp(probability, minSuccessProbability, maxSuccessProbability)),
		Strengths:          strengths(scores, size, experience),
		ImprovementAreas:   improvementAreas(scores),
		Completeness:       round2(profile.Completeness()),
	}
}

func strengths(scores models.DiagnosisScores, size, experience string) []string {
	out := []string{}
	if scores.Readiness >= strengthThreshold {
		out = append(out, "Well prepared to apply")
	}
	if scores.Feasibility >= strengthThreshold {
		out = append(out, "Highly feasible project plan")
	}
	if scores.Competitiveness >= strengthThreshold {
		out = append(out, "Strong competitive position")
	}
	if scores.Sustainability >= strengthThreshold {
		out = append(out, "Sustainable business foundation")
	}
	if experience == "experienced" || experience == "expert" {
		out = append(out, "Prior grant application experience")
	}
	if size == "medium" || size == "large" {
		out = append(out, "Established organisation with delivery capacity")
	}
	return out
}

func improvementAreas(scores models.DiagnosisScores) []models.ImprovementArea {
	out := []models.ImprovementArea{}
	for _, s := range improvementSuggestions {
		if s.score(scores) < improvementThreshold {
			out = append(out, models.ImprovementArea{Area: s.area, Suggestion: s.suggestion})
		}
	}
	return out
}

// lookup returns table[key], or 1.0 for unknown or missing answers.
func lookup(table map[string]float64, key string) float64 {
	if v, ok := table[key]; ok {
		return v
	}
	return 1.0
}
