package registry

import (
	"errors"
	"testing"

	"github.com/aretw0/schemagate/pkg/adapters/memory"
	"github.com/aretw0/schemagate/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Open(t *testing.T) {
	r := NewRegistry()
	var got map[string]any
	r.Register("memory", func(options map[string]any) (ports.SchemaLoader, error) {
		got = options
		return memory.NewLoader(nil), nil
	})

	loader, err := r.Open("memory", map[string]any{"seed": true})
	require.NoError(t, err)
	assert.NotNil(t, loader)
	assert.Equal(t, map[string]any{"seed": true}, got)
}

func TestRegistry_UnknownKind(t *testing.T) {
	r := NewRegistry()
	r.Register("dir", func(map[string]any) (ports.SchemaLoader, error) { return nil, nil })

	_, err := r.Open("s3", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"s3"`)
	assert.Contains(t, err.Error(), "dir")
}

func TestRegistry_FactoryError(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("boom")
	r.Register("redis", func(map[string]any) (ports.SchemaLoader, error) { return nil, boom })

	_, err := r.Open("redis", nil)
	assert.ErrorIs(t, err, boom)
}

func TestRegistry_OverwriteAndKinds(t *testing.T) {
	r := NewRegistry()
	first := memory.NewLoader(nil)
	second := memory.NewLoader(nil)
	r.Register("b", func(map[string]any) (ports.SchemaLoader, error) { return first, nil })
	r.Register("a", func(map[string]any) (ports.SchemaLoader, error) { return nil, nil })
	r.Register("b", func(map[string]any) (ports.SchemaLoader, error) { return second, nil })

	assert.Equal(t, []string{"a", "b"}, r.Kinds())
	loader, err := r.Open("b", nil)
	require.NoError(t, err)
	assert.Same(t, second, loader)
}
