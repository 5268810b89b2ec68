package species

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mkallio/gardenplan-go/internal/errors"
)

// ManualEntry carries the fields a user fills in when no tier can resolve a
// query. Only the common name is required.
type ManualEntry struct {
	CommonName     string              `json:"commonName"`
	ScientificName string              `json:"scientificName,omitempty"`
	PlantType      string              `json:"plantType,omitempty"`
	Requirements   GrowingRequirements `json:"growingRequirements,omitempty"`
}

// Validate checks a manual entry for the minimum required fields.
func (e *ManualEntry) Validate() error {
	if strings.TrimSpace(e.CommonName) == "" {
		return errors.ValidationError("manual entry requires a common name")
	}
	if e.Requirements.SpacingCM < 0 {
		return errors.ValidationError(fmt.Sprintf("spacing must not be negative, got %d", e.Requirements.SpacingCM))
	}
	return nil
}

// CreateManual stores a user-supplied record for a query no tier could
// answer. The record is written through the cache under the query's
// normalized key, so the next resolve of the same query is a cache hit with
// its manual provenance intact. It is also cached under the entry's common
// name when that folds to a different key.
func (r *Resolver) CreateManual(query string, entry ManualEntry) (SpeciesRecord, error) {
	if err := entry.Validate(); err != nil {
		return SpeciesRecord{}, err
	}

	record := SpeciesRecord{
		ID:             fmt.Sprintf("manual-%s", uuid.New().String()),
		CommonName:     strings.TrimSpace(entry.CommonName),
		ScientificName: strings.TrimSpace(entry.ScientificName),
		PlantType:      ParsePlantType(entry.PlantType),
		Requirements:   entry.Requirements,
		SourceTag:      SourceManual,
		Confidence:     1.0,
		FetchedAt:      time.Now(),
	}

	if strings.TrimSpace(query) == "" {
		query = record.CommonName
	}
	key := r.normalizer.Normalize(query)
	r.cache.Put(key, record)
	if nameKey := r.normalizer.Normalize(record.CommonName); nameKey != key {
		r.cache.Put(nameKey, record)
	}

	logger.Info("Manual species entry created",
		"key", key,
		"common_name", record.CommonName,
		"id", record.ID)

	if r.metrics != nil {
		r.metrics.IncrementResolutions(string(SourceManual))
	}

	return record, nil
}
