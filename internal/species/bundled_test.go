package species

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkallio/gardenplan-go/internal/errors"
)

func TestBundledDataset_LoadEmbedded(t *testing.T) {
	t.Parallel()

	bundled, err := NewBundledDataset()
	require.NoError(t, err)
	assert.Positive(t, bundled.Len())
}

func TestBundledDataset_Lookup(t *testing.T) {
	t.Parallel()

	bundled, err := NewBundledDataset()
	require.NoError(t, err)

	t.Run("by common name", func(t *testing.T) {
		t.Parallel()
		record, found := bundled.Lookup("tomato")
		require.True(t, found)
		assert.Equal(t, "Tomato", record.CommonName)
		assert.Equal(t, "Solanum lycopersicum", record.ScientificName)
		assert.NotEmpty(t, record.ID)
		assert.NotEmpty(t, record.Requirements.Light)
	})

	t.Run("by scientific name", func(t *testing.T) {
		t.Parallel()
		record, found := bundled.Lookup("solanum lycopersicum")
		require.True(t, found)
		assert.Equal(t, "Tomato", record.CommonName)
	})

	t.Run("by alias", func(t *testing.T) {
		t.Parallel()
		record, found := bundled.Lookup("courgette")
		require.True(t, found)
		assert.Equal(t, "Zucchini", record.CommonName)
	})

	t.Run("miss", func(t *testing.T) {
		t.Parallel()
		_, found := bundled.Lookup("definitely not a plant")
		assert.False(t, found)
	})
}

func TestBundledDataset_Aliases(t *testing.T) {
	t.Parallel()

	bundled, err := NewBundledDataset()
	require.NoError(t, err)

	aliases := bundled.Aliases()
	assert.Equal(t, "tomato", aliases["solanum lycopersicum"])
	assert.Equal(t, "tomato", aliases["love apple"])
}

func TestBundledDataset_FromFS_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"malformed json", `{"not": "a list"`},
		{"wrong shape", `{"not": "a list"}`},
		{"empty list", `[]`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fsys := fstest.MapFS{
				bundledDatasetPath: &fstest.MapFile{Data: []byte(tt.data)},
			}
			_, err := NewBundledDatasetFromFS(fsys)
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
		})
	}
}

func TestBundledDataset_FromFS_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewBundledDatasetFromFS(fstest.MapFS{})
	require.Error(t, err)
}
