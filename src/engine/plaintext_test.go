package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlaintextLength(t *testing.T) {
	pt := NewPlaintext([]float64{1, 2, 3, 4})
	require.Equal(t, 4, pt.Length())
	require.Equal(t, []float64{1, 2, 3, 4}, pt.Values())

	require.NoError(t, pt.SetLength(2))
	require.Equal(t, []float64{1, 2}, pt.Values())
	require.Len(t, pt.Slots(), 4, "truncation keeps the underlying slots")

	require.Error(t, pt.SetLength(5))
	require.Error(t, pt.SetLength(-1))
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	ctx, err := NewContext(testParameters())
	require.NoError(t, err)
	ctx.Enable(CapEncryption)
	kp, err := ctx.GenKeyPair()
	require.NoError(t, err)

	values := []float64{1, 2, 3, 4}
	ct, err := ctx.Encrypt(kp.Public, NewPlaintext(values))
	require.NoError(t, err)
	require.Equal(t, 4, ct.Slots(), "ciphertext carries the batch, not the ring")

	pt, err := ctx.Decrypt(kp.Secret, ct)
	require.NoError(t, err)
	require.Equal(t, 4, pt.Length())
	for i := range values {
		require.InDelta(t, values[i], pt.Values()[i], 1e-3)
	}
}

func TestEncryptShortVectorPadsWithZeros(t *testing.T) {
	ctx, err := NewContext(testParameters())
	require.NoError(t, err)
	ctx.Enable(CapEncryption)
	kp, err := ctx.GenKeyPair()
	require.NoError(t, err)

	ct, err := ctx.Encrypt(kp.Public, NewPlaintext([]float64{7, 8}))
	require.NoError(t, err)

	pt, err := ctx.Decrypt(kp.Secret, ct)
	require.NoError(t, err)
	require.NoError(t, pt.SetLength(2))
	require.InDelta(t, 7, pt.Values()[0], 1e-3)
	require.InDelta(t, 8, pt.Values()[1], 1e-3)
	require.InDelta(t, 0, pt.Slots()[2], 1e-3)
	require.InDelta(t, 0, pt.Slots()[3], 1e-3)
}

func TestEncryptRejectsOversizedVector(t *testing.T) {
	ctx, err := NewContext(testParameters())
	require.NoError(t, err)
	ctx.Enable(CapEncryption)
	kp, err := ctx.GenKeyPair()
	require.NoError(t, err)

	_, err = ctx.Encrypt(kp.Public, NewPlaintext(make([]float64, 5)))
	require.Error(t, err)
}
