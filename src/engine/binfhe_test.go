package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tuneinsight/lattigo/v6/core/rlwe"
)

func newTestBinContext(t *testing.T) *BinContext {
	t.Helper()
	bin, err := newBinContext(BinToy, false, 25)
	require.NoError(t, err)
	return bin
}

func TestBinContextParameters(t *testing.T) {
	bin := newTestBinContext(t)
	require.Equal(t, 512, bin.Parameters().N())
	require.Equal(t, uint64(1)<<25, bin.Modulus())
	require.Equal(t, 128, bin.Beta())
	require.Equal(t, BinToy, bin.Preset())
	require.False(t, bin.ArbitraryFunction())
}

func TestBinContextPresetAndModulusBounds(t *testing.T) {
	_, err := newBinContext(SecurityPreset(42), false, 25)
	require.Error(t, err, "unknown preset")

	_, err = newBinContext(BinToy, false, 11)
	require.Error(t, err, "modulus too small")

	_, err = newBinContext(BinToy, false, 30)
	require.Error(t, err, "modulus too large")
}

func TestBootstrapEntryValidation(t *testing.T) {
	bin := newTestBinContext(t)

	require.Error(t, bin.LoadBootstrapEntry(1, &BootstrapKey{}), "base below 2")
	require.Error(t, bin.LoadBootstrapEntry(1<<10, nil), "nil entry")
	require.Error(t, bin.LoadBootstrapEntry(1<<10, &BootstrapKey{Refresh: &rlwe.EvaluationKey{}}), "missing switch key")
}

func TestBootstrapKeyMapOrderIndependence(t *testing.T) {
	bin := newTestBinContext(t)
	kgen := rlwe.NewKeyGenerator(bin.Parameters())
	sk := kgen.GenSecretKeyNew()

	bases := []int{1 << 18, 1 << 10, 1 << 14}
	entries := make(map[int]*BootstrapKey, len(bases))
	for _, base := range bases {
		entries[base] = &BootstrapKey{
			Refresh: kgen.GenEvaluationKeyNew(sk, sk),
			Switch:  kgen.GenEvaluationKeyNew(sk, sk),
		}
	}

	// Insertion order must not matter; every permutation yields the same map.
	orders := [][]int{
		{1 << 10, 1 << 14, 1 << 18},
		{1 << 18, 1 << 14, 1 << 10},
		{1 << 14, 1 << 10, 1 << 18},
	}
	for _, order := range orders {
		fresh := newTestBinContext(t)
		for _, base := range order {
			require.NoError(t, fresh.LoadBootstrapEntry(base, entries[base]))
		}
		require.Equal(t, []int{1 << 10, 1 << 14, 1 << 18}, fresh.Bases())
		for _, base := range bases {
			entry, ok := fresh.BootstrapEntry(base)
			require.True(t, ok)
			require.Same(t, entries[base], entry)
		}
	}
}

func TestBinContextMarshalRoundTrip(t *testing.T) {
	bin, err := newBinContext(BinStd128, true, 27)
	require.NoError(t, err)

	kgen := rlwe.NewKeyGenerator(bin.Parameters())
	sk := kgen.GenSecretKeyNew()
	bin.SetBootstrapKey(&BootstrapKey{
		Refresh: kgen.GenEvaluationKeyNew(sk, sk),
		Switch:  kgen.GenEvaluationKeyNew(sk, sk),
	})

	data, err := bin.MarshalBinary()
	require.NoError(t, err)

	loaded := new(BinContext)
	require.NoError(t, loaded.UnmarshalBinary(data))
	require.Equal(t, BinStd128, loaded.Preset())
	require.True(t, loaded.ArbitraryFunction())
	require.Equal(t, 27, loaded.LogModulus())
	require.Equal(t, bin.Parameters().N(), loaded.Parameters().N())

	// Bootstrap keys travel as separate blobs, never with the context.
	require.Nil(t, loaded.BootstrapKey())
	require.Empty(t, loaded.Bases())
}
