package species

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalizer canonicalizes raw species queries into stable lookup keys.
// Normalization is pure and deterministic: two queries that differ only in
// case, whitespace or a known alias produce the same key.
type Normalizer struct {
	aliases map[string]string // folded alias -> canonical key
}

// builtinAliases maps well known synonyms and common names onto canonical
// keys. Keys and values must already be in folded form.
var builtinAliases = map[string]string{
	"love apple":              "tomato",
	"lycopersicon esculentum": "solanum lycopersicum",
	"aubergine":               "eggplant",
	"courgette":               "zucchini",
	"coriander":               "cilantro",
	"rocket":                  "arugula",
	"swede":                   "rutabaga",
	"scallion":                "green onion",
}

// NewNormalizer creates a Normalizer seeded with the builtin alias table
// plus any extra aliases, typically cross-references contributed by the
// bundled dataset. Extra aliases win over builtin ones.
func NewNormalizer(extraAliases map[string]string) *Normalizer {
	aliases := make(map[string]string, len(builtinAliases)+len(extraAliases))
	for alias, canonical := range builtinAliases {
		aliases[alias] = canonical
	}
	for alias, canonical := range extraAliases {
		aliases[foldKey(alias)] = foldKey(canonical)
	}

	return &Normalizer{aliases: aliases}
}

// Normalize converts a raw query into its canonical lookup key. It always
// succeeds; an empty query yields an empty key.
func (n *Normalizer) Normalize(raw string) string {
	key := foldKey(raw)
	if canonical, ok := n.aliases[key]; ok {
		return canonical
	}
	return key
}

// foldKey applies Unicode normalization, casefolding and whitespace folding.
// A fresh Caser is created per call; cases.Caser is not safe for concurrent
// use and Normalize must be.
func foldKey(s string) string {
	s = norm.NFC.String(s)
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}
