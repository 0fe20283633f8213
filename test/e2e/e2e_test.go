// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grant-engine/internal/catalog"
	"grant-engine/internal/common/cache"
	"grant-engine/internal/common/logger"
	"grant-engine/internal/common/validation"
	"grant-engine/internal/engine"
	"grant-engine/internal/models"
	"grant-engine/pkg/registry"

	analyzegrantroi "grant-engine/internal/workers/grants/analyze-grant-roi"
	diagnoseprofile "grant-engine/internal/workers/grants/diagnose-profile"
	grantcatalogchanged "grant-engine/internal/workers/grants/grant-catalog-changed"
	grantcounts "grant-engine/internal/workers/grants/grant-counts"
	scoreandrankgrants "grant-engine/internal/workers/grants/score-and-rank-grants"
)

// ==========================
// Environment
// ==========================

type env struct {
	catalog *catalog.MemoryCatalog
	redis   *miniredis.Miniredis

	scoreAndRank  *scoreandrankgrants.Handler
	diagnose      *diagnoseprofile.Handler
	analyzeROI    *analyzegrantroi.Handler
	counts        *grantcounts.Handler
	catalogChange *grantcatalogchanged.Handler
}

// newEnv wires every handler the way the grant-engine binary does, with an
// in-memory catalog and miniredis behind the aggregate cache.
func newEnv(t *testing.T) *env {
	t.Helper()
	log := logger.NewTestLogger(t)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	deadline := time.Now().Add(14 * 24 * time.Hour)
	cat := catalog.NewMemoryCatalog(
		models.GrantRecord{
			ID:              "g-tokyo-equip",
			Title:           "Tokyo equipment subsidy",
			CategorySlugs:   []string{"equipment"},
			PrefectureSlugs: []string{"tokyo"},
			AmountMin:       1_000_000,
			AmountMax:       5_000_000,
			Deadline:        &deadline,
		},
		models.GrantRecord{
			ID:              "g-it",
			Title:           "IT adoption grant",
			CategorySlugs:   []string{"it-digital"},
			PrefectureSlugs: []string{models.NationwidePrefecture},
			AmountMin:       300_000,
			AmountMax:       4_500_000,
			IsFeatured:      true,
		},
		models.GrantRecord{
			ID:              "g-osaka-hiring",
			Title:           "Osaka hiring support",
			CategorySlugs:   []string{"hiring"},
			PrefectureSlugs: []string{"osaka"},
			AmountMin:       100_000,
			AmountMax:       600_000,
		},
	)

	store := cache.NewRedisStore(rdb, cache.WithKeyPrefix("e2e:"))
	ac := cache.New(store, log, cache.WithSingleFlight())
	ranker := engine.NewRanker()
	aggregates := catalog.NewAggregates(cat, ac, ranker, catalog.AggregatesConfig{}, log)
	eng := engine.New(cat, aggregates, ranker, engine.Config{}, log)

	reg, err := registry.Builtin()
	require.NoError(t, err)
	validator, err := validation.NewValidator(reg)
	require.NoError(t, err)

	return &env{
		catalog:       cat,
		redis:         mr,
		scoreAndRank:  scoreandrankgrants.NewHandler(scoreandrankgrants.LoadConfig(), eng, validator, log),
		diagnose:      diagnoseprofile.NewHandler(diagnoseprofile.LoadConfig(), eng, validator, log),
		analyzeROI:    analyzegrantroi.NewHandler(analyzegrantroi.LoadConfig(), eng, validator, log),
		counts:        grantcounts.NewHandler(grantcounts.LoadConfig(), aggregates, validator, log),
		catalogChange: grantcatalogchanged.NewHandler(grantcatalogchanged.LoadConfig(), aggregates, validator, log),
	}
}

func decode[T any](t *testing.T, variables string) *T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(variables), &v))
	return &v
}

func cachedKeys(mr *miniredis.Miniredis, group string) int {
	n := 0
	for _, k := range mr.Keys() {
		if strings.HasPrefix(k, "e2e:"+group+":") {
			n++
		}
	}
	return n
}

// ==========================
// Flows
// ==========================

func TestGrantSearchFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	run, err := e.scoreAndRank.Execute(ctx, decode[scoreandrankgrants.Input](t, `{
		"profile": {"business_type": "corporation", "prefecture": "tokyo", "purpose": ["equipment"], "amount": "1m_5m"},
		"topN": 2
	}`))
	require.NoError(t, err)

	assert.NotEmpty(t, run.RunID)
	assert.False(t, run.Fallback)
	assert.Equal(t, 3, run.CandidateCount)
	require.Len(t, run.Results, 2)
	assert.Equal(t, "g-tokyo-equip", run.Results[0].GrantID)
	assert.GreaterOrEqual(t, run.Results[0].Score, run.Results[1].Score)
	assert.NotEmpty(t, run.Results[0].Reasons)

	body, err := json.Marshal(run)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"runId"`)
	assert.Contains(t, string(body), `"candidateCount":3`)
}

func TestEmptyProfileFallsBackToPopular(t *testing.T) {
	e := newEnv(t)

	run, err := e.scoreAndRank.Execute(context.Background(), &scoreandrankgrants.Input{
		Profile: map[string]interface{}{},
	})
	require.NoError(t, err)

	assert.True(t, run.Fallback)
	require.NotEmpty(t, run.Results)
	assert.Equal(t, "g-it", run.Results[0].GrantID, "featured grants lead the popular list")
	assert.Equal(t, 1, cachedKeys(e.redis, cache.GroupSuggestions))
}

func TestCountsFollowCatalogChanges(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	in := &grantcounts.Input{
		CategorySlugs:   []string{"equipment"},
		PrefectureSlugs: []string{"tokyo"},
		IncludeTotal:    true,
	}

	before, err := e.counts.Execute(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 1, before.CategoryCounts["equipment"])
	assert.Equal(t, 2, before.PrefectureCounts["tokyo"], "nationwide grants count for every prefecture")
	assert.Equal(t, 3, *before.Total)
	assert.Equal(t, 3, cachedKeys(e.redis, cache.GroupGrantCounts))

	e.catalog.Put(models.GrantRecord{
		ID:              "g-new",
		CategorySlugs:   []string{"equipment"},
		PrefectureSlugs: []string{"tokyo"},
	})

	stale, err := e.counts.Execute(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, before.CategoryCounts, stale.CategoryCounts, "served from cache until invalidated")

	changed, err := e.catalogChange.Execute(ctx, decode[grantcatalogchanged.Input](t, `{"grantId":"g-new","kind":"created"}`))
	require.NoError(t, err)
	assert.True(t, changed.Invalidated)
	assert.Zero(t, cachedKeys(e.redis, cache.GroupGrantCounts))

	after, err := e.counts.Execute(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 2, after.CategoryCounts["equipment"])
	assert.Equal(t, 3, after.PrefectureCounts["tokyo"])
	assert.Equal(t, 4, *after.Total)
}

func TestDiagnosisThenROI(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	diagnosis, err := e.diagnose.Execute(ctx, decode[diagnoseprofile.Input](t, `{
		"profile": {
			"business_type": "corporation",
			"company_size": "small",
			"industry": "manufacturing",
			"prefecture": "tokyo",
			"purpose": ["equipment"],
			"amount": "1m_5m"
		}
	}`))
	require.NoError(t, err)

	assert.NotEmpty(t, diagnosis.DiagnosisID)
	assert.Empty(t, diagnosis.MissingQuestions)
	assert.Greater(t, diagnosis.SuccessProbability, 0.0)
	assert.LessOrEqual(t, diagnosis.SuccessProbability, 100.0)
	require.NotEmpty(t, diagnosis.Recommendations)
	assert.LessOrEqual(t, len(diagnosis.Recommendations), engine.DefaultDiagnosisLimit)
	top := diagnosis.Recommendations[0]
	assert.Equal(t, "g-tokyo-equip", top.GrantID)

	roi, err := e.analyzeROI.Execute(ctx, &analyzegrantroi.Input{
		GrantID:          top.GrantID,
		GrantAmount:      3_000_000,
		ProjectCost:      5_000_000,
		ExpectedRevenue:  8_000_000,
		TimePeriodMonths: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, top.GrantID, roi.GrantID)
	assert.InDelta(t, 60, roi.ROIPct, 0.001)
	assert.Equal(t, engine.RecommendationGood, roi.Recommendation)
}

func TestCacheOutageDoesNotBreakReads(t *testing.T) {
	e := newEnv(t)
	e.redis.SetError("LOADING redis is loading the dataset in memory")

	out, err := e.counts.Execute(context.Background(), &grantcounts.Input{CategorySlugs: []string{"hiring"}})
	require.NoError(t, err)
	assert.Equal(t, 1, out.CategoryCounts["hiring"])

	_, err = e.catalogChange.Execute(context.Background(), &grantcatalogchanged.Input{GrantID: "g-it", Kind: catalog.ChangeUpdated})
	require.Error(t, err, "invalidation surfaces the outage so the job is retried")
}
