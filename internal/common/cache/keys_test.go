package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveKey(t *testing.T) {
	tests := []struct {
		name      string
		namespace string
		parts     map[string]string
		expected  string
	}{
		{
			name:      "no parts",
			namespace: "count",
			parts:     nil,
			expected:  "count:all",
		},
		{
			name:      "empty parts dropped",
			namespace: "count",
			parts:     map[string]string{"category": "", "prefecture": "  "},
			expected:  "count:all",
		},
		{
			name:      "parts sorted and trimmed",
			namespace: "count",
			parts:     map[string]string{"prefecture": " tokyo ", "category": "it-digital"},
			expected:  "count:category=it-digital:prefecture=tokyo",
		},
		{
			name:      "case is kept",
			namespace: "count",
			parts:     map[string]string{"category": "IT-Digital"},
			expected:  "count:category=IT-Digital",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveKey(tt.namespace, tt.parts))
		})
	}
}

func TestDeriveKey_LongKeysAreHashed(t *testing.T) {
	long := strings.Repeat("x", 200)
	k1 := DeriveKey("count", map[string]string{"industry": long})
	k2 := DeriveKey("count", map[string]string{"industry": " " + long + " "})
	k3 := DeriveKey("count", map[string]string{"industry": strings.ToUpper(long)})

	assert.True(t, strings.HasPrefix(k1, "count:h="))
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.LessOrEqual(t, len(k1), maxReadableKey)
}
