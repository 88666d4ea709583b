package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/schemagate/pkg/adapters/memory"
	contract "github.com/aretw0/schemagate/pkg/ports/tests"
	"github.com/aretw0/schemagate/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryLoader_Contract(t *testing.T) {
	data := map[string]string{
		"input":  `{"age": {"type": "int", "required": true, "min": 0, "max": 120}}`,
		"output": `{"prediction": {"type": "float", "required": true, "min": 0, "max": 1}}`,
	}

	bytesData := make(map[string][]byte)
	for k, v := range data {
		bytesData[k] = []byte(v)
	}

	loader := memory.NewLoader(data)

	contract.SchemaLoaderContractTest(t, loader, bytesData)
}

func TestNewFromDefinitions(t *testing.T) {
	def, err := schema.NewDefinition(
		schema.FieldSpec{Name: "name", Type: "str", Required: true},
		schema.FieldSpec{Name: "country", Type: "str", Default: "unknown", HasDefault: true},
	)
	require.NoError(t, err)

	loader, err := memory.NewFromDefinitions(map[string]*schema.Definition{"person": def})
	require.NoError(t, err)

	got, err := schema.Load(loader, "person")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "country"}, got.Names())

	_, err = memory.NewFromDefinitions(map[string]*schema.Definition{"": def})
	assert.Error(t, err)
}

func TestLoader_ListSorted(t *testing.T) {
	loader := memory.NewLoader(map[string]string{"b": "{}", "a": "{}", "c": "{}"})
	ids, err := loader.ListSchemas()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestLoader_WatchNotifiesOnSet(t *testing.T) {
	loader := memory.NewLoader(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := loader.Watch(ctx)
	require.NoError(t, err)

	loader.Set("person", `{"name": {"type": "str"}}`)

	select {
	case id := <-events:
		assert.Equal(t, "person", id)
	case <-time.After(time.Second):
		t.Fatal("expected change notification")
	}

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-events
		return !open
	}, time.Second, 10*time.Millisecond)
}
