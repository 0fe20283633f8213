package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"grant-engine/internal/models"
)

var rankNow = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

func scored(id string, score float64, featured bool, deadline *time.Time) models.ScoredGrant {
	return models.ScoredGrant{
		MatchResult: models.MatchResult{GrantID: id, Score: score},
		IsFeatured:  featured,
		Deadline:    deadline,
	}
}

func daysFromNow(d int) *time.Time {
	t := rankNow.AddDate(0, 0, d)
	return &t
}

func ids(results []models.ScoredGrant) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.GrantID)
	}
	return out
}

func TestRanker_Rank(t *testing.T) {
	tests := []struct {
		name     string
		input    []models.ScoredGrant
		topN     int
		expected []string
	}{
		{
			name:     "empty input",
			input:    nil,
			topN:     10,
			expected: []string{},
		},
		{
			name: "score descending",
			input: []models.ScoredGrant{
				scored("a", 40, false, nil),
				scored("b", 90, false, nil),
				scored("c", 65, false, nil),
			},
			topN:     10,
			expected: []string{"b", "c", "a"},
		},
		{
			name: "featured wins a tie",
			input: []models.ScoredGrant{
				scored("a", 70, false, daysFromNow(1)),
				scored("b", 70, true, nil),
			},
			topN:     10,
			expected: []string{"b", "a"},
		},
		{
			name: "earlier deadline wins a tie",
			input: []models.ScoredGrant{
				scored("a", 70, false, daysFromNow(30)),
				scored("b", 70, false, daysFromNow(7)),
			},
			topN:     10,
			expected: []string{"b", "a"},
		},
		{
			name: "missing deadline sorts last",
			input: []models.ScoredGrant{
				scored("a", 70, false, nil),
				scored("b", 70, false, daysFromNow(60)),
			},
			topN:     10,
			expected: []string{"b", "a"},
		},
		{
			name: "expired deadline ranks like missing",
			input: []models.ScoredGrant{
				scored("c", 70, false, daysFromNow(-1)),
				scored("b", 70, false, nil),
				scored("a", 70, false, daysFromNow(-30)),
			},
			topN:     10,
			expected: []string{"a", "b", "c"},
		},
		{
			name: "id breaks remaining ties",
			input: []models.ScoredGrant{
				scored("g-2", 50, true, daysFromNow(3)),
				scored("g-1", 50, true, daysFromNow(3)),
			},
			topN:     10,
			expected: []string{"g-1", "g-2"},
		},
		{
			name: "truncates to topN",
			input: []models.ScoredGrant{
				scored("a", 10, false, nil),
				scored("b", 20, false, nil),
				scored("c", 30, false, nil),
				scored("d", 40, false, nil),
			},
			topN:     3,
			expected: []string{"d", "c", "b"},
		},
	}

	ranker := NewRanker(WithNow(func() time.Time { return rankNow }))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ranker.Rank(tt.input, tt.topN)
			assert.NotNil(t, result)
			assert.Equal(t, tt.expected, ids(result))
		})
	}
}

func TestRanker_DeadlineDayStaysOpen(t *testing.T) {
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	today := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	nextMonth := time.Date(2026, 11, 19, 0, 0, 0, 0, time.UTC)

	result := NewRanker(WithNow(func() time.Time { return now })).Rank([]models.ScoredGrant{
		scored("b-later", 50, false, &nextMonth),
		scored("a-today", 50, false, &today),
	}, 10)

	assert.Equal(t, []string{"a-today", "b-later"}, ids(result))
}

func TestRanker_DefaultLimitAndNoMutation(t *testing.T) {
	input := make([]models.ScoredGrant, 0, 15)
	for i := 0; i < 15; i++ {
		input = append(input, scored(string(rune('a'+i)), float64(i), false, nil))
	}

	result := NewRanker(WithNow(func() time.Time { return rankNow })).Rank(input, 0)

	assert.Len(t, result, DefaultSearchLimit)
	assert.Equal(t, "o", result[0].GrantID)
	assert.Equal(t, "a", input[0].GrantID, "input left untouched")
}
