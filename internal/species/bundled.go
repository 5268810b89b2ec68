package species

import (
	"embed"
	"encoding/json"
	"io/fs"

	"github.com/mkallio/gardenplan-go/internal/errors"
)

//go:embed data/bundled.json
var bundledFiles embed.FS

const bundledDatasetPath = "data/bundled.json"

// bundledEntry is a single species in the bundled offline dataset.
type bundledEntry struct {
	ID             string   `json:"id"`
	CommonName     string   `json:"common_name"`
	ScientificName string   `json:"scientific_name"`
	PlantType      string   `json:"plant_type"`
	Light          string   `json:"light"`
	Water          string   `json:"water"`
	Soil           string   `json:"soil"`
	SpacingCM      int      `json:"spacing_cm"`
	Aliases        []string `json:"aliases,omitempty"`
}

// BundledDataset is the read-only species index shipped with the
// application. Lookups are synchronous and in-memory; there is no error path.
type BundledDataset struct {
	entries []bundledEntry
	index   map[string]*bundledEntry // normalized key -> entry
}

// NewBundledDataset loads the embedded dataset. Call NewBundledDatasetFromFS
// to load from another filesystem in tests.
func NewBundledDataset() (*BundledDataset, error) {
	return NewBundledDatasetFromFS(bundledFiles)
}

// NewBundledDatasetFromFS loads the dataset from the given filesystem. The
// index is keyed by the folded common name, scientific name and every alias.
func NewBundledDatasetFromFS(dataFs fs.FS) (*BundledDataset, error) {
	jsonData, err := fs.ReadFile(dataFs, bundledDatasetPath)
	if err != nil {
		return nil, errors.Newf("failed to read bundled dataset: %w", err).
			Component("species").
			Category(errors.CategoryFileParsing).
			Build()
	}

	var entries []bundledEntry
	if err := json.Unmarshal(jsonData, &entries); err != nil {
		return nil, errors.Newf("failed to unmarshal bundled dataset: %w", err).
			Component("species").
			Category(errors.CategoryFileParsing).
			Build()
	}
	if len(entries) == 0 {
		return nil, errors.Newf("bundled dataset is empty").
			Component("species").
			Category(errors.CategoryFileParsing).
			Build()
	}

	index := make(map[string]*bundledEntry, len(entries)*2)
	for i := range entries {
		e := &entries[i]
		index[foldKey(e.CommonName)] = e
		if e.ScientificName != "" {
			index[foldKey(e.ScientificName)] = e
		}
		for _, alias := range e.Aliases {
			index[foldKey(alias)] = e
		}
	}

	logger.Info("Bundled dataset loaded",
		"entries", len(entries),
		"index_keys", len(index))

	return &BundledDataset{entries: entries, index: index}, nil
}

// Lookup returns the record for a normalized key, or false when the dataset
// has no match. The source tag and confidence are assigned at lookup time.
func (d *BundledDataset) Lookup(normalizedKey string) (SpeciesRecord, bool) {
	entry, found := d.index[normalizedKey]
	if !found {
		return SpeciesRecord{}, false
	}

	return SpeciesRecord{
		ID:             entry.ID,
		CommonName:     entry.CommonName,
		ScientificName: entry.ScientificName,
		PlantType:      ParsePlantType(entry.PlantType),
		Requirements: GrowingRequirements{
			Light:     entry.Light,
			Water:     entry.Water,
			Soil:      entry.Soil,
			SpacingCM: entry.SpacingCM,
		},
	}, true
}

// Aliases returns alias -> canonical-key cross-references for seeding the
// normalizer, so a scientific-name query hits the same cache slot as the
// common-name query for the same species.
func (d *BundledDataset) Aliases() map[string]string {
	aliases := make(map[string]string)
	for i := range d.entries {
		e := &d.entries[i]
		canonical := foldKey(e.CommonName)
		if e.ScientificName != "" {
			aliases[foldKey(e.ScientificName)] = canonical
		}
		for _, alias := range e.Aliases {
			aliases[foldKey(alias)] = canonical
		}
	}
	return aliases
}

// Len returns the number of species in the dataset.
func (d *BundledDataset) Len() int {
	return len(d.entries)
}
