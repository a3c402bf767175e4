package handoff

import (
	"os"
	"path/filepath"
	"testing"

	"heswitch/configs"
	"heswitch/src/engine"

	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) *engine.Context {
	t.Helper()
	ctx, err := engine.NewContext(engine.SchemeParameters{
		Depth:         3,
		LogRingDegree: 10,
		BatchSize:     4,
		ScaleModSize:  45,
		FirstModSize:  55,
	})
	require.NoError(t, err)
	ctx.Enable(engine.CapAll)
	return ctx
}

func TestBundleRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := testContext(t)

	p := NewPackager(dir)
	require.NoError(t, p.Pack(configs.Context, KindContext, ctx))
	require.NoError(t, p.PackBootstrapEntry(1<<10, ctx, ctx))
	require.NoError(t, p.Finalize())

	u, err := OpenBundle(dir)
	require.NoError(t, err)
	require.Equal(t, []int{1 << 10}, u.Bases())

	loaded := new(engine.Context)
	require.NoError(t, u.Unpack(configs.Context, KindContext, loaded))
	require.Equal(t, ctx.SchemeParameters(), loaded.SchemeParameters())
}

func TestOpenBundleRequiresManifest(t *testing.T) {
	_, err := OpenBundle(t.TempDir())
	require.Error(t, err)
}

func TestOpenBundleRejectsEmptyBases(t *testing.T) {
	dir := t.TempDir()
	p := NewPackager(dir)
	require.NoError(t, p.Pack(configs.Context, KindContext, testContext(t)))
	require.NoError(t, p.Finalize())

	_, err := OpenBundle(dir)
	require.ErrorContains(t, err, "no decomposition bases")
}

func TestUnpackRejectsUnlistedBlob(t *testing.T) {
	dir := t.TempDir()
	ctx := testContext(t)

	p := NewPackager(dir)
	require.NoError(t, p.PackBootstrapEntry(1<<10, ctx, ctx))
	require.NoError(t, p.Finalize())

	// The blob exists on disk but the manifest does not list it.
	require.NoError(t, p.Pack(configs.Context, KindContext, ctx))

	u, err := OpenBundle(dir)
	require.NoError(t, err)
	require.ErrorContains(t, u.Unpack(configs.Context, KindContext, new(engine.Context)), "not listed")
}

func TestUnpackDetectsTampering(t *testing.T) {
	dir := t.TempDir()
	ctx := testContext(t)

	p := NewPackager(dir)
	require.NoError(t, p.Pack(configs.Context, KindContext, ctx))
	require.NoError(t, p.PackBootstrapEntry(1<<10, ctx, ctx))
	require.NoError(t, p.Finalize())

	path := filepath.Join(dir, configs.Context)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xff
	require.NoError(t, os.WriteFile(path, data, 0644))

	u, err := OpenBundle(dir)
	require.NoError(t, err)
	require.ErrorContains(t, u.Unpack(configs.Context, KindContext, new(engine.Context)), "digest mismatch")
}

func TestBasesAreSortedAndCopied(t *testing.T) {
	dir := t.TempDir()
	ctx := testContext(t)

	p := NewPackager(dir)
	require.NoError(t, p.PackBootstrapEntry(1<<18, ctx, ctx))
	require.NoError(t, p.PackBootstrapEntry(1<<10, ctx, ctx))
	require.NoError(t, p.Finalize())

	u, err := OpenBundle(dir)
	require.NoError(t, err)

	bases := u.Bases()
	require.Equal(t, []int{1 << 10, 1 << 18}, bases)
	bases[0] = 7
	require.Equal(t, []int{1 << 10, 1 << 18}, u.Bases(), "caller must not mutate the manifest")
}
