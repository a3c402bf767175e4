package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArgminParameters(t *testing.T) {
	p := ArgminParameters(4, 512)
	require.Equal(t, ArgminDepth(4, 512), p.Depth)
	require.Equal(t, 4, p.BatchSize)
	require.Equal(t, 2, p.LogBatchSize())
	require.NoError(t, p.validate())
}

func TestSchemeParametersValidate(t *testing.T) {
	base := ArgminParameters(4, 4)

	p := base
	p.BatchSize = 3
	require.Error(t, p.validate(), "non power-of-two batch")

	p = base
	p.BatchSize = 1
	require.Error(t, p.validate(), "batch below 2")

	p = base
	p.LogRingDegree = 2
	require.Error(t, p.validate(), "ring too small for batch")

	p = base
	p.Depth = 0
	require.Error(t, p.validate(), "zero depth")
}

func TestSignPasses(t *testing.T) {
	// Each pass multiplies the slope around zero by 4; saturation of the
	// smallest representable difference 1/scaleSign sets the count.
	require.Equal(t, 1, signPasses(1))
	require.Equal(t, 2, signPasses(4))
	require.Equal(t, 6, signPasses(512))
}

func TestArgminDepth(t *testing.T) {
	require.Equal(t, 24, ArgminDepth(4, 4))
	require.Equal(t, 56, ArgminDepth(4, 512))
	require.Equal(t, 27+2, ArgminDepth(2, 512))
}
