package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testBlob struct {
	data []byte
}

func (b *testBlob) MarshalBinary() ([]byte, error) {
	return b.data, nil
}

func (b *testBlob) UnmarshalBinary(data []byte) error {
	b.data = append([]byte(nil), data...)
	return nil
}

func TestPackUnpackRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.bin")
	in := &testBlob{data: []byte("payload")}
	require.NoError(t, Pack(in, 3, path))

	out := new(testBlob)
	require.NoError(t, Unpack(out, 3, path))
	require.Equal(t, in.data, out.data)
}

func TestUnpackRejectsWrongKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.bin")
	require.NoError(t, Pack(&testBlob{data: []byte("payload")}, 3, path))

	err := Unpack(new(testBlob), 4, path)
	require.ErrorContains(t, err, "kind mismatch")
}

func TestUnpackRejectsBadHeader(t *testing.T) {
	dir := t.TempDir()

	truncated := filepath.Join(dir, "short.bin")
	require.NoError(t, os.WriteFile(truncated, []byte{1, 2, 3}, 0644))
	require.ErrorContains(t, Unpack(new(testBlob), 1, truncated), "truncated")

	badMagic := filepath.Join(dir, "magic.bin")
	require.NoError(t, os.WriteFile(badMagic, make([]byte, 32), 0644))
	require.ErrorContains(t, Unpack(new(testBlob), 1, badMagic), "bad magic")

	good := filepath.Join(dir, "good.bin")
	require.NoError(t, Pack(&testBlob{data: []byte("payload")}, 1, good))
	data, err := os.ReadFile(good)
	require.NoError(t, err)

	shortened := filepath.Join(dir, "shortened.bin")
	require.NoError(t, os.WriteFile(shortened, data[:len(data)-1], 0644))
	require.ErrorContains(t, Unpack(new(testBlob), 1, shortened), "length mismatch")
}

func TestPackRejectsUnserializableObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob.bin")
	require.Error(t, Pack(struct{}{}, 1, path))
	require.NoError(t, Pack(&testBlob{}, 1, path))
	require.Error(t, Unpack(struct{}{}, 1, path))
}
