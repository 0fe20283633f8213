package registry

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin(t *testing.T) {
	reg, err := Builtin()
	require.NoError(t, err)

	taskTypes := []string{
		"score-and-rank-grants",
		"diagnose-profile",
		"analyze-grant-roi",
		"grant-counts",
		"grant-catalog-changed",
	}
	require.Len(t, reg.Activities, len(taskTypes))
	for _, tt := range taskTypes {
		a, ok := reg.Find(tt)
		require.True(t, ok, tt)
		assert.Equal(t, "object", a.InputSchema["type"])
		assert.Equal(t, Version, a.Version)

		timeout, err := a.TimeoutDuration()
		require.NoError(t, err, tt)
		assert.Positive(t, timeout, tt)
	}

	_, ok := reg.Find("unknown")
	assert.False(t, ok)
}

func TestActivity_TimeoutDuration(t *testing.T) {
	tests := []struct {
		timeout string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"5s", 5 * time.Second, false},
		{"1m30s", 90 * time.Second, false},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.timeout, func(t *testing.T) {
			got, err := Activity{ID: "a", Timeout: tt.timeout}.TimeoutDuration()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSaveAndLoadRegistry(t *testing.T) {
	reg, err := Builtin()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "activity-registry.json")
	require.NoError(t, SaveRegistry(reg, path))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, len(reg.Activities), len(loaded.Activities))

	a, ok := loaded.Find("analyze-grant-roi")
	require.True(t, ok)
	assert.ElementsMatch(t,
		[]interface{}{"grantAmount", "projectCost", "expectedRevenue", "timePeriodMonths"},
		a.InputSchema["required"],
	)
}
