package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContextIDIsStable(t *testing.T) {
	a, err := NewContext(testParameters())
	require.NoError(t, err)
	a.Enable(CapAll)

	idA1, err := ContextID(a)
	require.NoError(t, err)
	idA2, err := ContextID(a)
	require.NoError(t, err)
	require.Equal(t, idA1, idA2)

	// Capabilities are part of the identity.
	b, err := NewContext(testParameters())
	require.NoError(t, err)
	idB, err := ContextID(b)
	require.NoError(t, err)
	require.NotEqual(t, idA1, idB)
}

func TestRegistryRefusesAliasingContexts(t *testing.T) {
	reg := NewRegistry()

	a, err := NewContext(testParameters())
	require.NoError(t, err)
	id, err := reg.Attach(a)
	require.NoError(t, err)
	require.Equal(t, 1, reg.Len())

	got, ok := reg.Get(id)
	require.True(t, ok)
	require.Same(t, a, got)

	// Re-attaching the same live context is a no-op.
	again, err := reg.Attach(a)
	require.NoError(t, err)
	require.Equal(t, id, again)
	require.Equal(t, 1, reg.Len())

	// A distinct context with identical parameters would alias under the
	// same identifier and is refused until the registry is reset.
	b, err := NewContext(testParameters())
	require.NoError(t, err)
	_, err = reg.Attach(b)
	require.Error(t, err)

	reg.Reset()
	require.Equal(t, 0, reg.Len())
	_, err = reg.Attach(b)
	require.NoError(t, err)
}
