// internal/catalog/elasticsearch.go
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"grant-engine/internal/models"
)

const (
	DefaultIndex      = "grants"
	DefaultSearchSize = 1000
)

// ElasticsearchCatalog reads grants from a search index that mirrors the
// published catalog.
type ElasticsearchCatalog struct {
	client *elasticsearch.Client
	index  string
	size   int
}

func NewElasticsearchCatalog(client *elasticsearch.Client, index string, size int) *ElasticsearchCatalog {
	if index == "" {
		index = DefaultIndex
	}
	if size <= 0 {
		size = DefaultSearchSize
	}
	return &ElasticsearchCatalog{client: client, index: index, size: size}
}

type esGrant struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	CategorySlugs      []string   `json:"category_slugs"`
	PrefectureSlugs    []string   `json:"prefecture_slugs"`
	AmountMin          int64      `json:"amount_min"`
	AmountMax          int64      `json:"amount_max"`
	Deadline           *time.Time `json:"deadline"`
	TargetIndustry     string     `json:"target_industry"`
	TargetEmployeeMin  *int       `json:"target_employee_min"`
	TargetEmployeeMax  *int       `json:"target_employee_max"`
	IsIndividualTarget bool       `json:"is_individual_target"`
	IsFeatured         bool       `json:"is_featured"`
}

func (d esGrant) record() models.GrantRecord {
	g := models.GrantRecord{
		ID:                 d.ID,
		Title:              d.Title,
		CategorySlugs:      d.CategorySlugs,
		PrefectureSlugs:    d.PrefectureSlugs,
		AmountMin:          d.AmountMin,
		AmountMax:          d.AmountMax,
		Deadline:           d.Deadline,
		TargetIndustry:     d.TargetIndustry,
		IsIndividualTarget: d.IsIndividualTarget,
		IsFeatured:         d.IsFeatured,
	}
	if d.TargetEmployeeMin != nil || d.TargetEmployeeMax != nil {
		r := models.EmployeeRange{Max: math.MaxInt32}
		if d.TargetEmployeeMin != nil {
			r.Min = *d.TargetEmployeeMin
		}
		if d.TargetEmployeeMax != nil {
			r.Max = *d.TargetEmployeeMax
		}
		g.TargetEmployeeRange = &r
	}
	return g
}

type searchResponse struct {
	Hits struct {
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

type searchHit struct {
	Source esGrant       `json:"_source"`
	Sort   []interface{} `json:"sort"`
}

type countResponse struct {
	Count int `json:"count"`
}

// Find pages through every match with search_after on the id sort, so the
// result is never cut at the page size.
func (c *ElasticsearchCatalog) Find(ctx context.Context, filter Filter) ([]models.GrantRecord, error) {
	query := buildQuery(filter)
	var grants []models.GrantRecord
	var after []interface{}

	for {
		hits, err := c.searchPage(ctx, query, after)
		if err != nil {
			return nil, err
		}
		for _, hit := range hits {
			grants = append(grants, hit.Source.record())
		}
		if len(hits) < c.size {
			break
		}
		last := hits[len(hits)-1]
		after = last.Sort
		if len(after) == 0 {
			after = []interface{}{last.Source.ID}
		}
	}

	if grants == nil {
		grants = []models.GrantRecord{}
	}
	return grants, nil
}

func (c *ElasticsearchCatalog) searchPage(ctx context.Context, query map[string]interface{}, after []interface{}) ([]searchHit, error) {
	search := map[string]interface{}{
		"query": query,
		"sort":  []interface{}{map[string]interface{}{"id": "asc"}},
	}
	if len(after) > 0 {
		search["search_after"] = after
	}
	body, err := json.Marshal(search)
	if err != nil {
		return nil, fmt.Errorf("encode search: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{c.index},
		Body:  bytes.NewReader(body),
		Size:  &c.size,
	}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, queryError(ctx, "search grants", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, responseError("search grants", res)
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return parsed.Hits.Hits, nil
}

func (c *ElasticsearchCatalog) CountMatching(ctx context.Context, filter Filter) (int, error) {
	body, err := json.Marshal(map[string]interface{}{"query": buildQuery(filter)})
	if err != nil {
		return 0, fmt.Errorf("encode count: %w", err)
	}

	req := esapi.CountRequest{
		Index: []string{c.index},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, c.client)
	if err != nil {
		return 0, queryError(ctx, "count grants", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, responseError("count grants", res)
	}

	var parsed countResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("decode count response: %w", err)
	}
	return parsed.Count, nil
}

func buildQuery(f Filter) map[string]interface{} {
	filters := []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"status": publishedStatus}},
	}

	if f.CategorySlug != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"category_slugs": f.CategorySlug},
		})
	}
	if f.PrefectureSlug != "" {
		filters = append(filters, map[string]interface{}{
			"terms": map[string]interface{}{
				"prefecture_slugs": []string{f.PrefectureSlug, models.NationwidePrefecture},
			},
		})
	}
	if f.AmountRange != nil {
		filters = append(filters,
			map[string]interface{}{"range": map[string]interface{}{"amount_min": map[string]interface{}{"lte": f.AmountRange.Max}}},
			map[string]interface{}{"range": map[string]interface{}{"amount_max": map[string]interface{}{"gte": f.AmountRange.Min}}},
		)
	}
	if f.Industry != "" {
		filters = append(filters, map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"target_industry": f.Industry}},
					map[string]interface{}{"bool": map[string]interface{}{
						"must_not": map[string]interface{}{"exists": map[string]interface{}{"field": "target_industry"}},
					}},
				},
				"minimum_should_match": 1,
			},
		})
	}

	return map[string]interface{}{
		"bool": map[string]interface{}{"filter": filters},
	}
}

func responseError(op string, res *esapi.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
	return fmt.Errorf("%w: %s: %s %s", ErrUnavailable, op, res.Status(), bytes.TrimSpace(msg))
}
