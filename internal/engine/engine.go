// Package engine scores grants against a business profile, diagnoses the
// profile itself and estimates the return of a grant-funded project.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"grant-engine/internal/catalog"
	"grant-engine/internal/common/logger"
	"grant-engine/internal/common/metrics"
	"grant-engine/internal/models"
)

// PopularSource supplies the fallback list shown when nothing matches.
type PopularSource interface {
	PopularGrants(ctx context.Context, n int) ([]models.ScoredGrant, error)
}

type Config struct {
	SearchLimit    int
	DiagnosisLimit int
	PopularLimit   int
}

func (c Config) withDefaults() Config {
	if c.SearchLimit <= 0 {
		c.SearchLimit = DefaultSearchLimit
	}
	if c.DiagnosisLimit <= 0 {
		c.DiagnosisLimit = DefaultDiagnosisLimit
	}
	if c.PopularLimit <= 0 {
		c.PopularLimit = DefaultPopularLimit
	}
	return c
}

type Engine struct {
	catalog   catalog.Catalog
	popular   PopularSource
	scorer    *MatchScorer
	diagnosis *DiagnosisScorer
	financial *FinancialAnalyzer
	ranker    *Ranker
	config    Config
	logger    logger.Logger
}

// New wires an Engine. popular may be nil, in which case an unmatched search
// ranks its own candidates for the fallback.
func New(c catalog.Catalog, popular PopularSource, ranker *Ranker, cfg Config, log logger.Logger) *Engine {
	if ranker == nil {
		ranker = NewRanker()
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Engine{
		catalog:   c,
		popular:   popular,
		scorer:    NewMatchScorer(),
		diagnosis: NewDiagnosisScorer(),
		financial: NewFinancialAnalyzer(),
		ranker:    ranker,
		config:    cfg.withDefaults(),
		logger:    log.WithFields(map[string]interface{}{"component": "engine"}),
	}
}

func (e *Engine) Ranker() *Ranker {
	return e.ranker
}

// ScoreAndRank scores every candidate matching filter and returns the best
// topN. Catalog errors are returned unchanged.
func (e *Engine) ScoreAndRank(ctx context.Context, profile models.UserProfile, filter catalog.Filter, topN int) (models.MatchRun, error) {
	start := time.Now()
	if topN <= 0 {
		topN = e.config.SearchLimit
	}

	candidates, err := e.catalog.Find(ctx, filter)
	if err != nil {
		return models.MatchRun{}, err
	}

	scored := make([]models.ScoredGrant, 0, len(candidates))
	anyMatch := false
	for _, g := range candidates {
		result := e.scorer.Score(profile, g)
		if result.Score > 0 {
			anyMatch = true
		}
		scored = append(scored, scoredGrant(result, g))
	}

	run := models.MatchRun{
		RunID:          uuid.New().String(),
		CandidateCount: len(candidates),
		Results:        e.ranker.Rank(scored, topN),
	}

	// An empty candidate set stays empty. Otherwise an unmatched search falls
	// back to popular grants, kept inside the caller's filter.
	if !anyMatch && len(candidates) > 0 {
		limit := e.config.PopularLimit
		if topN < limit {
			limit = topN
		}
		fallback := e.ranker.Rank(scored, limit)
		if filter.IsEmpty() && e.popular != nil {
			popular, err := e.popular.PopularGrants(ctx, e.config.PopularLimit)
			if err != nil {
				return models.MatchRun{}, err
			}
			if len(popular) > limit {
				popular = popular[:limit]
			}
			fallback = popular
		}
		run.Results = fallback
		run.Fallback = true
	}

	metrics.EngineOperationDuration.WithLabelValues("score_and_rank").Observe(time.Since(start).Seconds())
	e.logger.Info("grants scored", map[string]interface{}{
		"runId":      run.RunID,
		"candidates": run.CandidateCount,
		"returned":   len(run.Results),
		"fallback":   run.Fallback,
		"durationMs": time.Since(start).Milliseconds(),
	})

	return run, nil
}

// Diagnose scores the profile. Apart from the generated ID the result is a
// pure function of the profile.
func (e *Engine) Diagnose(ctx context.Context, profile models.UserProfile) models.DiagnosisResult {
	start := time.Now()

	result := e.diagnosis.Diagnose(profile)
	result.DiagnosisID = uuid.New().String()

	metrics.EngineOperationDuration.WithLabelValues("diagnose").Observe(time.Since(start).Seconds())
	e.logger.Info("profile diagnosed", map[string]interface{}{
		"diagnosisId":        result.DiagnosisID,
		"successProbability": result.SuccessProbability,
		"completeness":       result.Completeness,
	})
	return result
}

// DiagnoseWithRecommendations diagnoses the profile and attaches the best
// matching grants.
func (e *Engine) DiagnoseWithRecommendations(ctx context.Context, profile models.UserProfile, filter catalog.Filter) (models.DiagnosisResult, error) {
	result := e.Diagnose(ctx, profile)

	run, err := e.ScoreAndRank(ctx, profile, filter, e.config.DiagnosisLimit)
	if err != nil {
		return models.DiagnosisResult{}, err
	}
	result.Recommendations = run.Results
	return result, nil
}

func (e *Engine) AnalyzeROI(ctx context.Context, grantAmount, projectCost, expectedRevenue float64, timePeriodMonths int) (models.FinancialAnalysis, error) {
	start := time.Now()
	defer func() {
		metrics.EngineOperationDuration.WithLabelValues("analyze_roi").Observe(time.Since(start).Seconds())
	}()
	return e.financial.AnalyzeROI(grantAmount, projectCost, expectedRevenue, timePeriodMonths)
}
