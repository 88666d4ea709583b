package loam

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"

	"github.com/aretw0/schemagate/internal/testutils"
	"github.com/aretw0/schemagate/pkg/ports/tests"
	"github.com/aretw0/schemagate/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_Contract(t *testing.T) {
	_, repo := testutils.SetupTestRepo(t)
	ctx := context.Background()

	setupData := map[string][]byte{
		"input":  []byte(`{"age":{"type":"int","required":true,"min":0,"max":120},"name":{"type":"str","required":true}}`),
		"output": []byte(`{"risk_level":{"type":"str","required":true,"default":"low"}}`),
	}

	docInput := core.Document{
		ID: "input.md",
		Content: `---
id: input
fields:
  - name: age
    type: int
    required: true
    min: 0
    max: 120
  - name: name
    type: str
    required: true
---
Applicant record`,
	}

	docOutput := core.Document{
		ID: "output.md",
		Content: `---
id: output
fields:
  - name: risk_level
    type: str
    required: true
    default: low
---
Scoring result`,
	}

	require.NoError(t, repo.Save(ctx, docInput))
	require.NoError(t, repo.Save(ctx, docOutput))

	loader := New(loam.NewTypedRepository[SchemaMetadata](repo))

	tests.SchemaLoaderContractTest(t, loader, setupData)
}

func TestLoader_PreservesFieldOrder(t *testing.T) {
	tmpDir, repo := testutils.SetupTestRepo(t)

	content := `---
fields:
  - name: zeta
    type: str
  - name: alpha
    type: int
  - name: mid
    type: bool
---
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "ordered.md"), []byte(content), 0644))

	loader := New(loam.NewTypedRepository[SchemaMetadata](repo))

	data, err := loader.GetSchema("ordered")
	require.NoError(t, err)

	def, err := schema.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, def.Names())
}

func TestLoader_ListSchemas_NormalizesIDs(t *testing.T) {
	tmpDir, repo := testutils.SetupTestRepo(t)

	files := map[string]string{
		"person.md": "---\nid: person.md\nfields:\n  - name: age\n    type: int\n---\n",
		"order.md":  "---\nfields:\n  - name: total\n    type: float\n---\n",
	}
	for filename, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, filename), []byte(content), 0644))
	}

	loader := New(loam.NewTypedRepository[SchemaMetadata](repo))

	ids, err := loader.ListSchemas()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"person", "order"}, ids)
}

func TestLoader_ListSchemas_DetectsCollisions(t *testing.T) {
	tmpDir, repo := testutils.SetupTestRepo(t)

	files := map[string]string{
		"foo.md":   "---\nid: foo\nfields: []\n---\n",
		"other.md": "---\nid: foo\nfields: []\n---\n",
	}
	for filename, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, filename), []byte(content), 0644))
	}

	loader := New(loam.NewTypedRepository[SchemaMetadata](repo))

	_, err := loader.ListSchemas()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
}

func TestLoader_DuplicateFieldIsRejected(t *testing.T) {
	tmpDir, repo := testutils.SetupTestRepo(t)

	content := "---\nfields:\n  - name: age\n    type: int\n  - name: age\n    type: str\n---\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "dup.md"), []byte(content), 0644))

	loader := New(loam.NewTypedRepository[SchemaMetadata](repo))

	_, err := loader.GetSchema("dup")
	assert.ErrorIs(t, err, schema.ErrSchemaParse)
}
