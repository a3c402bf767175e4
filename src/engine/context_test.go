package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// testParameters is a shallow parameter set; key generation at full argmin
// depth has no place in unit tests.
func testParameters() SchemeParameters {
	return SchemeParameters{
		Depth:         3,
		LogRingDegree: 10,
		BatchSize:     4,
		ScaleModSize:  45,
		FirstModSize:  55,
	}
}

func TestCapabilityGating(t *testing.T) {
	ctx, err := NewContext(testParameters())
	require.NoError(t, err)

	_, err = ctx.GenKeyPair()
	require.Error(t, err, "keygen before enabling encryption")

	ctx.Enable(CapEncryption)
	require.True(t, ctx.Enabled(CapEncryption))
	require.False(t, ctx.Enabled(CapEncryption|CapLeveledOps))

	kp, err := ctx.GenKeyPair()
	require.NoError(t, err)

	require.Error(t, ctx.GenMultiplicationKey(kp))
	require.Error(t, ctx.GenRotationKeys(kp))

	// Enabling twice changes nothing.
	ctx.Enable(CapEncryption)
	require.True(t, ctx.Enabled(CapEncryption))

	ctx.Enable(CapKeySwitching | CapLeveledOps | CapAdvancedOps)
	require.NoError(t, ctx.GenMultiplicationKey(kp))
	require.NoError(t, ctx.GenRotationKeys(kp))
}

func TestKeySetErrors(t *testing.T) {
	ctx, err := NewContext(testParameters())
	require.NoError(t, err)

	_, err = ctx.MultiplicationKeySet()
	require.ErrorIs(t, err, ErrNoRelinearizationKey)

	_, err = ctx.RotationKeySet()
	require.ErrorIs(t, err, ErrNoRotationKeys)
}

func TestContextMarshalRoundTrip(t *testing.T) {
	ctx, err := NewContext(testParameters())
	require.NoError(t, err)
	ctx.Enable(CapAll)

	kp, err := ctx.GenKeyPair()
	require.NoError(t, err)
	require.NoError(t, ctx.GenMultiplicationKey(kp))

	data, err := ctx.MarshalBinary()
	require.NoError(t, err)

	loaded := new(Context)
	require.NoError(t, loaded.UnmarshalBinary(data))

	require.Equal(t, ctx.SchemeParameters(), loaded.SchemeParameters())
	require.True(t, loaded.Enabled(CapAll))
	require.True(t, ctx.Parameters().Equal(&loaded.params))

	// Keys never travel with the context.
	_, err = loaded.MultiplicationKeySet()
	require.ErrorIs(t, err, ErrNoRelinearizationKey)
	require.Nil(t, loaded.BinContext())
	require.Nil(t, loaded.SwitchingKey())
}

func TestContextUnmarshalTruncated(t *testing.T) {
	loaded := new(Context)
	require.Error(t, loaded.UnmarshalBinary([]byte{1, 2, 3}))
}
