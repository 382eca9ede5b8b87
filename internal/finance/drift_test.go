package finance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }
func y(v int) *int         { return &v }

func TestImputeOperatingCost(t *testing.T) {
	tests := []struct {
		name     string
		area     *float64
		year     *int
		class    string
		expected float64
	}{
		{"scenario B", f(80), y(1990), "F", 46305},
		{"no inputs", nil, nil, "", 30000},
		{"area only", f(100), nil, "", 45000},
		{"old house", f(100), y(1950), "D", 49500},
		{"bracket start 1900", f(0), y(1900), "", 33000},
		{"bracket end 1979", nil, y(1979), "", 33000},
		{"1980 bracket", nil, y(1980), "", 31500},
		{"1999 bracket", nil, y(1999), "", 31500},
		{"new build", nil, y(2000), "", 30000},
		{"before 1900 is neutral", nil, y(1850), "", 30000},
		{"energy A", nil, nil, "A", 27000},
		{"energy A++ reads as A", nil, nil, "a++", 27000},
		{"energy B", nil, nil, "B", 27000},
		{"energy C", nil, nil, "C", 30000},
		{"energy E", nil, nil, "E", 31500},
		{"energy G", nil, nil, " g ", 33000},
		{"unknown class letter", nil, nil, "X", 30000},
		{"negative area ignored", f(-40), nil, "", 30000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ImputeOperatingCost(tt.area, tt.year, tt.class))
		})
	}
}

func TestImputeOperatingCost_MonotonicInArea(t *testing.T) {
	prev := -1.0
	for area := 0.0; area <= 400; area += 7.5 {
		got := ImputeOperatingCost(f(area), y(1990), "F")
		assert.GreaterOrEqual(t, got, prev, "area %.1f", area)
		prev = got
	}
}

func TestResolveOperatingCost(t *testing.T) {
	t.Run("supplied value used as is", func(t *testing.T) {
		got := ResolveOperatingCost(f(36000), f(80), y(1990), "F", true)
		require.NotNil(t, got.Annual)
		assert.Equal(t, 36000.0, *got.Annual)
		assert.False(t, got.Estimated)
		assert.False(t, got.Unknown)
	})

	t.Run("zero is imputed", func(t *testing.T) {
		got := ResolveOperatingCost(f(0), f(80), y(1990), "F", true)
		require.NotNil(t, got.Annual)
		assert.Equal(t, 46305.0, *got.Annual)
		assert.True(t, got.Estimated)
	})

	t.Run("missing is imputed even without inputs", func(t *testing.T) {
		got := ResolveOperatingCost(nil, nil, nil, "", true)
		require.NotNil(t, got.Annual)
		assert.Equal(t, DriftBase, *got.Annual)
		assert.True(t, got.Estimated)
		assert.False(t, got.Unknown)
	})

	t.Run("NaN is treated as missing", func(t *testing.T) {
		got := ResolveOperatingCost(f(math.NaN()), nil, nil, "", true)
		assert.True(t, got.Estimated)
	})

	t.Run("imputation disabled marks unknown", func(t *testing.T) {
		got := ResolveOperatingCost(nil, f(80), y(1990), "F", false)
		assert.Nil(t, got.Annual)
		assert.True(t, got.Unknown)
		assert.False(t, got.Estimated)
	})
}
