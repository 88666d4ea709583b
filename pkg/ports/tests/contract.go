package tests

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/schemagate/pkg/ports"
	"github.com/aretw0/schemagate/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SchemaLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.SchemaLoader.
// setupData maps each identifier the loader was seeded with to an equivalent schema document.
// Documents are compared after parsing, since adapters may re-encode what they store.
func SchemaLoaderContractTest(t *testing.T, loader ports.SchemaLoader, setupData map[string][]byte) {
	t.Helper()

	t.Run("GetSchema_Success", func(t *testing.T) {
		for id, expected := range setupData {
			content, err := loader.GetSchema(id)
			require.NoError(t, err, "getting schema %s", id)

			got, err := schema.Parse(content)
			require.NoError(t, err, "parsing schema %s", id)
			want, err := schema.Parse(expected)
			require.NoError(t, err, "parsing expected schema %s", id)

			gotJSON, err := json.Marshal(sortedDefinition(t, got))
			require.NoError(t, err)
			wantJSON, err := json.Marshal(sortedDefinition(t, want))
			require.NoError(t, err)
			assert.JSONEq(t, string(wantJSON), string(gotJSON), "content mismatch for %s", id)
		}
	})

	t.Run("GetSchema_NotFound", func(t *testing.T) {
		_, err := loader.GetSchema("non-existent-schema")
		assert.ErrorIs(t, err, schema.ErrSchemaNotFound)
	})

	t.Run("ListSchemas", func(t *testing.T) {
		ids, err := loader.ListSchemas()
		require.NoError(t, err)
		assert.Len(t, ids, len(setupData))
		for id := range setupData {
			assert.Contains(t, ids, id)
		}
	})
}

// sortedDefinition maps a definition by field name so that adapters which do
// not preserve document order still compare equal.
func sortedDefinition(t *testing.T, def *schema.Definition) map[string]json.RawMessage {
	t.Helper()
	data, err := json.Marshal(def)
	require.NoError(t, err)
	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}
