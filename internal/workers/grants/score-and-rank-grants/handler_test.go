// internal/workers/grants/score-and-rank-grants/handler_test.go
package scoreandrankgrants

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grant-engine/internal/catalog"
	"grant-engine/internal/common/cache"
	"grant-engine/internal/common/errors"
	"grant-engine/internal/common/logger"
	"grant-engine/internal/common/validation"
	"grant-engine/internal/engine"
	"grant-engine/internal/models"
	"grant-engine/pkg/registry"
)

// ==========================
// Test Helper Functions
// ==========================

type failingCatalog struct {
	err error
}

func (f failingCatalog) Find(context.Context, catalog.Filter) ([]models.GrantRecord, error) {
	return nil, f.err
}

func (f failingCatalog) CountMatching(context.Context, catalog.Filter) (int, error) {
	return 0, f.err
}

func createTestGrants() []models.GrantRecord {
	return []models.GrantRecord{
		{
			ID:              "g-tokyo-equip",
			Title:           "Tokyo equipment subsidy",
			CategorySlugs:   []string{"equipment"},
			PrefectureSlugs: []string{"tokyo"},
			AmountMin:       1_000_000,
			AmountMax:       5_000_000,
		},
		{
			ID:              "g-osaka",
			Title:           "Osaka startup support",
			CategorySlugs:   []string{"startup"},
			PrefectureSlugs: []string{"osaka"},
			AmountMin:       100_000,
			AmountMax:       500_000,
		},
	}
}

func createTestValidator(t *testing.T) *validation.Validator {
	reg, err := registry.Builtin()
	require.NoError(t, err)
	v, err := validation.NewValidator(reg)
	require.NoError(t, err)
	return v
}

func createTestHandler(t *testing.T, c catalog.Catalog) *Handler {
	log := logger.NewTestLogger(t)
	ranker := engine.NewRanker()
	aggregates := catalog.NewAggregates(c, cache.New(cache.NewMemoryStore(nil), log), ranker, catalog.AggregatesConfig{}, log)
	eng := engine.New(c, aggregates, ranker, engine.Config{}, log)
	return NewHandler(&Config{Timeout: 5 * time.Second}, eng, createTestValidator(t), log)
}

func requireCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	stdErr, ok := errors.AsStandard(err)
	require.True(t, ok, "expected a StandardError, got %v", err)
	assert.Equal(t, code, stdErr.Code)
}

func grantIDs(results []models.ScoredGrant) []string {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.GrantID)
	}
	return ids
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Ranking(t *testing.T) {
	tests := []struct {
		name           string
		input          *Input
		wantIDs        []string
		wantCandidates int
		wantFallback   bool
	}{
		{
			name: "best match first",
			input: &Input{
				Profile: map[string]interface{}{
					"prefecture": "tokyo",
					"purpose":    []interface{}{"equipment"},
				},
			},
			wantIDs:        []string{"g-tokyo-equip", "g-osaka"},
			wantCandidates: 2,
		},
		{
			name: "filter narrows candidates",
			input: &Input{
				Profile: map[string]interface{}{"prefecture": "tokyo"},
				Filter:  catalog.FilterRequest{PrefectureSlug: "osaka"},
			},
			wantIDs:        []string{"g-osaka"},
			wantCandidates: 1,
		},
		{
			name: "topN truncates",
			input: &Input{
				Profile: map[string]interface{}{"purpose": "equipment"},
				TopN:    1,
			},
			wantIDs:        []string{"g-tokyo-equip"},
			wantCandidates: 2,
		},
		{
			name:           "empty profile falls back to popular grants",
			input:          &Input{Profile: map[string]interface{}{}},
			wantIDs:        []string{"g-osaka", "g-tokyo-equip"},
			wantCandidates: 2,
			wantFallback:   true,
		},
		{
			name: "filter without grants stays empty",
			input: &Input{
				Profile: map[string]interface{}{"purpose": "equipment"},
				Filter:  catalog.FilterRequest{CategorySlug: "no-such-category"},
			},
			wantIDs:        []string{},
			wantCandidates: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := createTestHandler(t, catalog.NewMemoryCatalog(createTestGrants()...))

			output, err := h.Execute(context.Background(), tt.input)
			require.NoError(t, err)

			assert.NotEmpty(t, output.RunID)
			assert.Equal(t, tt.wantIDs, grantIDs(output.Results))
			assert.Equal(t, tt.wantCandidates, output.CandidateCount)
			assert.Equal(t, tt.wantFallback, output.Fallback)
		})
	}
}

func TestHandler_Execute_ScoresAndReasons(t *testing.T) {
	h := createTestHandler(t, catalog.NewMemoryCatalog(createTestGrants()...))

	output, err := h.Execute(context.Background(), &Input{
		Profile: map[string]interface{}{
			"prefecture": "tokyo",
			"purpose":    []interface{}{"equipment"},
		},
	})
	require.NoError(t, err)
	require.Len(t, output.Results, 2)

	top := output.Results[0]
	assert.InDelta(t, 87.14, top.Score, 0.001)
	assert.Equal(t, []string{"Supports your purpose: equipment", "Available in tokyo"}, top.Reasons)
	assert.Equal(t, "Tokyo equipment subsidy", top.Title)

	assert.InDelta(t, 50.0, output.Results[1].Score, 0.001)
	assert.Empty(t, output.Results[1].Reasons)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	deadline := fmt.Errorf("find grants: %w", context.DeadlineExceeded)
	unavailable := fmt.Errorf("%w: connection refused", catalog.ErrUnavailable)

	tests := []struct {
		name     string
		catalog  catalog.Catalog
		input    *Input
		wantCode errors.ErrorCode
	}{
		{
			name:     "multi-value answer for a single question",
			catalog:  catalog.NewMemoryCatalog(createTestGrants()...),
			input:    &Input{Profile: map[string]interface{}{"industry": []interface{}{"retail", "tourism"}}},
			wantCode: errors.ErrCodeProfileValidationFailed,
		},
		{
			name:     "unknown amount bucket",
			catalog:  catalog.NewMemoryCatalog(createTestGrants()...),
			input:    &Input{Profile: map[string]interface{}{}, Filter: catalog.FilterRequest{AmountBucket: "huge"}},
			wantCode: errors.ErrCodeInvalidInput,
		},
		{
			name:     "catalog unavailable",
			catalog:  failingCatalog{err: unavailable},
			input:    &Input{Profile: map[string]interface{}{"prefecture": "tokyo"}},
			wantCode: errors.ErrCodeCatalogUnavailable,
		},
		{
			name:     "catalog timeout",
			catalog:  failingCatalog{err: deadline},
			input:    &Input{Profile: map[string]interface{}{"prefecture": "tokyo"}},
			wantCode: errors.ErrCodeCatalogTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := createTestHandler(t, tt.catalog)
			_, err := h.Execute(context.Background(), tt.input)
			requireCode(t, err, tt.wantCode)
		})
	}
}

func TestHandler_ParseInput(t *testing.T) {
	h := createTestHandler(t, catalog.NewMemoryCatalog())

	tests := []struct {
		name      string
		variables string
		wantCode  errors.ErrorCode
		check     func(t *testing.T, input *Input)
	}{
		{
			name:      "valid input",
			variables: `{"profile":{"prefecture":"tokyo","purpose":["equipment"]},"filter":{"amountBucket":"1m_5m"},"topN":3}`,
			check: func(t *testing.T, input *Input) {
				assert.Equal(t, 3, input.TopN)
				assert.Equal(t, "1m_5m", input.Filter.AmountBucket)
				assert.Equal(t, "tokyo", input.Profile["prefecture"])
			},
		},
		{
			name:      "not json",
			variables: `{"profile":`,
			wantCode:  errors.ErrCodeParseError,
		},
		{
			name:      "missing profile",
			variables: `{"topN":3}`,
			wantCode:  errors.ErrCodeInvalidInput,
		},
		{
			name:      "negative topN",
			variables: `{"profile":{},"topN":-1}`,
			wantCode:  errors.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := h.parseInput(tt.variables)
			if tt.wantCode != "" {
				requireCode(t, err, tt.wantCode)
				return
			}
			require.NoError(t, err)
			tt.check(t, input)
		})
	}
}
