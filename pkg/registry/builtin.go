// pkg/registry/builtin.go
package registry

import (
	"encoding/json"
	"fmt"
)

const Version = "1.0.0"

// profileSchema accepts any questionnaire key; typed checks happen when the
// profile is parsed.
const profileSchema = `{
	"type": "object",
	"properties": {
		"business_type": {"type": "string"},
		"company_size":  {"type": "string"},
		"industry":      {"type": "string"},
		"prefecture":    {"type": "string"},
		"purpose":       {"type": ["array", "string"], "items": {"type": "string"}},
		"amount":        {"type": "string"},
		"experience":    {"type": "string"},
		"budget":        {"type": "string"},
		"employees":     {"type": ["string", "number"]},
		"timeline":      {"type": "string"}
	}
}`

const filterSchema = `{
	"type": "object",
	"properties": {
		"categorySlug":   {"type": "string"},
		"prefectureSlug": {"type": "string"},
		"industry":       {"type": "string"},
		"amountBucket":   {"type": "string", "enum": ["", "under_1m", "1m_5m", "5m_10m", "10m_30m", "over_30m"]},
		"amountRange": {
			"type": "object",
			"properties": {
				"min": {"type": "integer", "minimum": 0},
				"max": {"type": "integer", "minimum": 0}
			},
			"required": ["min", "max"]
		}
	}
}`

var builtinActivities = []struct {
	activity    Activity
	inputSchema string
}{
	{
		activity: Activity{
			ID:          "grant.match.score-and-rank",
			DisplayName: "Score And Rank Grants",
			Description: "Scores catalog grants against a business profile and returns the best matches",
			Category:    "grants",
			TaskType:    "score-and-rank-grants",
			ErrorCodes:  []string{"INVALID_INPUT", "PROFILE_VALIDATION_FAILED", "CATALOG_UNAVAILABLE", "CATALOG_TIMEOUT"},
			Timeout:     "10s",
			Retries:     3,
			Tags:        []string{"matching", "ranking"},
		},
		inputSchema: `{
			"type": "object",
			"properties": {
				"profile": ` + profileSchema + `,
				"filter":  ` + filterSchema + `,
				"topN":    {"type": "integer", "minimum": 0}
			},
			"required": ["profile"]
		}`,
	},
	{
		activity: Activity{
			ID:          "grant.diagnosis.diagnose-profile",
			DisplayName: "Diagnose Profile",
			Description: "Estimates readiness, feasibility, competitiveness, sustainability and success probability",
			Category:    "grants",
			TaskType:    "diagnose-profile",
			ErrorCodes:  []string{"INVALID_INPUT", "PROFILE_VALIDATION_FAILED", "CATALOG_UNAVAILABLE", "CATALOG_TIMEOUT"},
			Timeout:     "10s",
			Retries:     3,
			Tags:        []string{"diagnosis"},
		},
		inputSchema: `{
			"type": "object",
			"properties": {
				"profile":                ` + profileSchema + `,
				"filter":                 ` + filterSchema + `,
				"includeRecommendations": {"type": "boolean"}
			},
			"required": ["profile"]
		}`,
	},
	{
		activity: Activity{
			ID:          "grant.finance.analyze-roi",
			DisplayName: "Analyze Grant ROI",
			Description: "Computes ROI, risk-adjusted ROI and payback period for a grant-funded project",
			Category:    "grants",
			TaskType:    "analyze-grant-roi",
			ErrorCodes:  []string{"INVALID_INPUT"},
			Timeout:     "5s",
			Tags:        []string{"finance"},
		},
		inputSchema: `{
			"type": "object",
			"properties": {
				"grantAmount":      {"type": "number", "minimum": 0},
				"projectCost":      {"type": "number"},
				"expectedRevenue":  {"type": "number"},
				"timePeriodMonths": {"type": "integer"}
			},
			"required": ["grantAmount", "projectCost", "expectedRevenue", "timePeriodMonths"]
		}`,
	},
	{
		activity: Activity{
			ID:          "grant.catalog.counts",
			DisplayName: "Grant Counts",
			Description: "Returns cached grant counts per category, per prefecture and in total",
			Category:    "grants",
			TaskType:    "grant-counts",
			ErrorCodes:  []string{"INVALID_INPUT", "CATALOG_UNAVAILABLE", "CATALOG_TIMEOUT"},
			Timeout:     "10s",
			Retries:     3,
			Tags:        []string{"catalog", "cache"},
		},
		inputSchema: `{
			"type": "object",
			"properties": {
				"categorySlugs":   {"type": "array", "items": {"type": "string", "minLength": 1}},
				"prefectureSlugs": {"type": "array", "items": {"type": "string", "minLength": 1}},
				"includeTotal":    {"type": "boolean"}
			}
		}`,
	},
	{
		activity: Activity{
			ID:          "grant.catalog.changed",
			DisplayName: "Grant Catalog Changed",
			Description: "Invalidates cached grant aggregates after a grant is saved, deleted or changes publish status",
			Category:    "grants",
			TaskType:    "grant-catalog-changed",
			ErrorCodes:  []string{"INVALID_INPUT", "CACHE_UNAVAILABLE"},
			Timeout:     "5s",
			Retries:     3,
			Tags:        []string{"catalog", "cache"},
		},
		inputSchema: `{
			"type": "object",
			"properties": {
				"grantId":   {"type": "string", "minLength": 1},
				"kind":      {"type": "string", "enum": ["created", "updated", "deleted", "status_changed"]},
				"oldStatus": {"type": "string"},
				"newStatus": {"type": "string"}
			},
			"required": ["grantId", "kind"]
		}`,
	},
}

// Builtin returns the registry of every job type this module serves.
func Builtin() (*ActivityRegistry, error) {
	reg := &ActivityRegistry{
		Version:    Version,
		Activities: make([]Activity, 0, len(builtinActivities)),
	}
	for _, b := range builtinActivities {
		a := b.activity
		a.Version = Version
		a.ImplementationStatus = "completed"
		if err := json.Unmarshal([]byte(b.inputSchema), &a.InputSchema); err != nil {
			return nil, fmt.Errorf("input schema for %s: %w", a.TaskType, err)
		}
		reg.Activities = append(reg.Activities, a)
	}
	return reg, nil
}
