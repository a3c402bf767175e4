package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomFloatVector(t *testing.T) {
	v := RandomFloatVector(64, -1, 1)
	require.Len(t, v, 64)
	for i := range v {
		require.GreaterOrEqual(t, v[i], -1.0)
		require.Less(t, v[i], 1.0)
	}
}

func TestArgminFloat64(t *testing.T) {
	require.Equal(t, 1, ArgminFloat64([]float64{3, 1, 4, 2}))
	require.Equal(t, 0, ArgminFloat64([]float64{1, 2, 3, 4}))
	require.Equal(t, 3, ArgminFloat64([]float64{4, 3, 2, 1}))
	require.Equal(t, 0, ArgminFloat64([]float64{5, 5, 5}), "ties keep the first position")
}

func TestRotateFloat64Slice(t *testing.T) {
	s := []float64{1, 2, 3, 4}
	require.Equal(t, []float64{2, 3, 4, 1}, RotateFloat64Slice(s, 1))
	require.Equal(t, []float64{4, 1, 2, 3}, RotateFloat64Slice(s, -1))
	require.Equal(t, s, RotateFloat64Slice(s, 0))
	require.Equal(t, s, RotateFloat64Slice(s, 4))
}

func TestMinMaxInt(t *testing.T) {
	require.Equal(t, 1, MinInt(1, 2))
	require.Equal(t, 2, MaxInt(1, 2))
	require.Equal(t, 3, MinInt(3, 3))
}
