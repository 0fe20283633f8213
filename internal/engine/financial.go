// internal/engine/financial.go
package engine

import (
	"errors"
	"fmt"

	"grant-engine/internal/models"
)

// ErrInvalidInput is returned for arguments no analysis can be derived from.
var ErrInvalidInput = errors.New("invalid input")

const (
	baseRisk = 0.10
	maxRisk  = 0.50

	largeProjectCost  = 50_000_000
	mediumProjectCost = 10_000_000
	longHorizon       = 36
	mediumHorizon     = 24
	highDependency    = 0.8
	mediumDependency  = 0.5
)

const (
	RecommendationHighlyAttractive = "Highly attractive investment: apply with priority"
	RecommendationGood             = "Good investment: worth applying"
	RecommendationCautious         = "Positive but cautious: confirm revenue assumptions before applying"
	RecommendationReconsider       = "High risk: reconsider the project plan"
)

type FinancialAnalyzer struct{}

func NewFinancialAnalyzer() *FinancialAnalyzer {
	return &FinancialAnalyzer{}
}

// AnalyzeROI estimates the return of a grant-funded project over timePeriodMonths.
func (f *FinancialAnalyzer) AnalyzeROI(grantAmount, projectCost, expectedRevenue float64, timePeriodMonths int) (models.FinancialAnalysis, error) {
	if projectCost <= 0 {
		return models.FinancialAnalysis{}, fmt.Errorf("%w: project cost must be positive, got %v", ErrInvalidInput, projectCost)
	}
	if grantAmount < 0 {
		return models.FinancialAnalysis{}, fmt.Errorf("%w: grant amount must not be negative, got %v", ErrInvalidInput, grantAmount)
	}
	if timePeriodMonths <= 0 {
		return models.FinancialAnalysis{}, fmt.Errorf("%w: time period must be positive, got %d", ErrInvalidInput, timePeriodMonths)
	}

	net := projectCost - grantAmount
	roi := (expectedRevenue - projectCost) / projectCost * 100

	payback, achievable := 0.0, true
	if net > 0 {
		monthly := expectedRevenue / float64(timePeriodMonths)
		if monthly > 0 {
			payback = net / monthly
		} else {
			achievable = false
		}
	}

	risk := riskFactor(grantAmount, projectCost, timePeriodMonths)
	adjusted := roi * (1 - risk)

	return models.FinancialAnalysis{
		ROIPct:              round2(roi),
		RiskAdjustedROIPct:  round2(adjusted),
		NetInvestment:       net,
		PaybackPeriodMonths: round2(payback),
		PaybackAchievable:   achievable,
		GrantCoveragePct:    round2(grantAmount / projectCost * 100),
		RiskFactorPct:       round2(risk * 100),
		Recommendation:      recommend(adjusted),
	}, nil
}

func riskFactor(grantAmount, projectCost float64, months int) float64 {
	risk := baseRisk

	switch {
	case projectCost > largeProjectCost:
		risk += 0.10
	case projectCost > mediumProjectCost:
		risk += 0.05
	}

	switch {
	case months > longHorizon:
		risk += 0.10
	case months > mediumHorizon:
		risk += 0.05
	}

	switch dependency := grantAmount / projectCost; {
	case dependency > highDependency:
		risk += 0.15
	case dependency > mediumDependency:
		risk += 0.10
	}

	return clamp(risk, 0, maxRisk)
}

func recommend(riskAdjustedROI float64) string {
	switch {
	case riskAdjustedROI > 50:
		return RecommendationHighlyAttractive
	case riskAdjustedROI > 20:
		return RecommendationGood
	case riskAdjustedROI > 0:
		return RecommendationCautious
	default:
		return RecommendationReconsider
	}
}
