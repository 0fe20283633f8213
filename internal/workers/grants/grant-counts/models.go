// internal/workers/grants/grant-counts/models.go
package grantcounts

type Input struct {
	CategorySlugs   []string `json:"categorySlugs"`
	PrefectureSlugs []string `json:"prefectureSlugs"`
	IncludeTotal    bool     `json:"includeTotal"`
}

type Output struct {
	CategoryCounts   map[string]int `json:"categoryCounts"`
	PrefectureCounts map[string]int `json:"prefectureCounts"`
	Total            *int           `json:"total,omitempty"`
}
