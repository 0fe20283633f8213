// internal/catalog/aggregates.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"grant-engine/internal/common/cache"
	"grant-engine/internal/common/logger"
	"grant-engine/internal/models"
)

// Ranker orders scored grants for suggestion lists.
type Ranker interface {
	Rank(results []models.ScoredGrant, topN int) []models.ScoredGrant
}

type ChangeKind string

const (
	ChangeCreated       ChangeKind = "created"
	ChangeUpdated       ChangeKind = "updated"
	ChangeDeleted       ChangeKind = "deleted"
	ChangeStatusChanged ChangeKind = "status_changed"
)

var ErrUnknownChange = errors.New("unknown grant change kind")

// GrantChange is the mutation notice the content repository sends for every
// grant save, delete or publish status transition.
type GrantChange struct {
	GrantID   string     `json:"grantId"`
	Kind      ChangeKind `json:"kind"`
	OldStatus string     `json:"oldStatus,omitempty"`
	NewStatus string     `json:"newStatus,omitempty"`
}

func (c GrantChange) Validate() error {
	switch c.Kind {
	case ChangeCreated, ChangeUpdated, ChangeDeleted, ChangeStatusChanged:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownChange, c.Kind)
	}
}

type AggregatesConfig struct {
	CountTTL      time.Duration
	SuggestionTTL time.Duration
}

// Aggregates serves cached counts and suggestion lists computed from the catalog.
type Aggregates struct {
	catalog Catalog
	cache   cache.AggregateCache
	ranker  Ranker
	config  AggregatesConfig
	logger  logger.Logger
}

func NewAggregates(c Catalog, ac cache.AggregateCache, ranker Ranker, cfg AggregatesConfig, log logger.Logger) *Aggregates {
	if cfg.CountTTL <= 0 {
		cfg.CountTTL = cache.DefaultCountTTL
	}
	if cfg.SuggestionTTL <= 0 {
		cfg.SuggestionTTL = cache.DefaultSuggestionTTL
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Aggregates{
		catalog: c,
		cache:   ac,
		ranker:  ranker,
		config:  cfg,
		logger:  log.WithFields(map[string]interface{}{"component": "catalog-aggregates"}),
	}
}

func (a *Aggregates) CategoryCount(ctx context.Context, slug string) (int, error) {
	return a.CandidateCount(ctx, Filter{CategorySlug: slug})
}

func (a *Aggregates) PrefectureCount(ctx context.Context, slug string) (int, error) {
	return a.CandidateCount(ctx, Filter{PrefectureSlug: slug})
}

func (a *Aggregates) TotalCount(ctx context.Context) (int, error) {
	return a.CandidateCount(ctx, Filter{})
}

// CandidateCount caches CountMatching per filter. Zero counts are cached too.
func (a *Aggregates) CandidateCount(ctx context.Context, filter Filter) (int, error) {
	return cache.GetOrComputeJSON(ctx, a.cache, filter.CacheKey("count"), cache.GroupGrantCounts, a.config.CountTTL,
		func(ctx context.Context) (int, error) {
			return a.catalog.CountMatching(ctx, filter)
		})
}

// PopularGrants lists up to n published grants, featured and soon-closing first.
func (a *Aggregates) PopularGrants(ctx context.Context, n int) ([]models.ScoredGrant, error) {
	key := "popular:n=" + strconv.Itoa(n)
	return cache.GetOrComputeJSON(ctx, a.cache, key, cache.GroupSuggestions, a.config.SuggestionTTL,
		func(ctx context.Context) ([]models.ScoredGrant, error) {
			grants, err := a.catalog.Find(ctx, Filter{})
			if err != nil {
				return nil, err
			}
			scored := make([]models.ScoredGrant, 0, len(grants))
			for _, g := range grants {
				reasons := []string{}
				if g.IsFeatured {
					reasons = append(reasons, "Featured grant")
				}
				scored = append(scored, models.ScoredGrant{
					MatchResult: models.MatchResult{GrantID: g.ID, Reasons: reasons},
					Title:       g.Title,
					IsFeatured:  g.IsFeatured,
					Deadline:    g.Deadline,
				})
			}
			return a.ranker.Rank(scored, n), nil
		})
}

// OnGrantChanged drops every aggregate the change may affect.
func (a *Aggregates) OnGrantChanged(ctx context.Context, change GrantChange) error {
	if err := change.Validate(); err != nil {
		return err
	}

	var errs []error
	for _, group := range []string{cache.GroupGrantCounts, cache.GroupSuggestions} {
		if err := a.cache.InvalidateGroup(ctx, group); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	a.logger.Info("grant aggregates invalidated", map[string]interface{}{
		"grantId": change.GrantID,
		"kind":    string(change.Kind),
	})
	return nil
}
