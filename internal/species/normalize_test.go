package species

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizer_CaseAndWhitespace(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(nil)

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"lowercase passthrough", "tomato", "tomato"},
		{"uppercase", "TOMATO", "tomato"},
		{"mixed case", "ToMaTo", "tomato"},
		{"leading and trailing space", "  tomato  ", "tomato"},
		{"inner whitespace folded", "cherry \t tomato", "cherry tomato"},
		{"empty query", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, n.Normalize(tt.raw))
		})
	}
}

func TestNormalizer_EquivalentQueriesShareKey(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(nil)

	assert.Equal(t, n.Normalize("Tomato"), n.Normalize("tomato "))
	assert.Equal(t, n.Normalize("GREEN ONION"), n.Normalize("green\tonion"))
}

func TestNormalizer_BuiltinAliases(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(nil)

	assert.Equal(t, "tomato", n.Normalize("Love Apple"))
	assert.Equal(t, "zucchini", n.Normalize("courgette"))
	assert.Equal(t, "eggplant", n.Normalize("AUBERGINE"))
}

func TestNormalizer_ExtraAliasesWinOverBuiltin(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(map[string]string{
		"Love Apple":        "pomodoro",
		"Solanum tuberosum": "potato",
	})

	// Extra aliases are folded before insertion, so lookups are still
	// case-insensitive.
	assert.Equal(t, "pomodoro", n.Normalize("love apple"))
	assert.Equal(t, "potato", n.Normalize("SOLANUM TUBEROSUM"))
}

func TestNormalizer_BundledAliasesResolveScientificNames(t *testing.T) {
	t.Parallel()

	bundled, err := NewBundledDataset()
	if err != nil {
		t.Fatalf("failed to load bundled dataset: %v", err)
	}
	n := NewNormalizer(bundled.Aliases())

	// A scientific-name query must land on the same key as the common name,
	// so both hit the same cache slot.
	assert.Equal(t, n.Normalize("Tomato"), n.Normalize("Solanum lycopersicum"))
}
