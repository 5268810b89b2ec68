// Package species resolves plant species queries against a local cache, two
// remote data providers and a bundled offline dataset, in that order.
package species

import (
	"log"
	"log/slog"
	"time"

	"github.com/mkallio/gardenplan-go/internal/logging"
)

// Package-level logger for the species resolution service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
)

func init() {
	var err error
	serviceLevelVar.Set(slog.LevelInfo)
	logger, _, err = logging.NewFileLogger("logs/species.log", "species", serviceLevelVar)
	if err != nil {
		log.Printf("Failed to initialize species file logger: %v. Service logging disabled.", err)
		logger = logging.NewDiscardLogger("species", serviceLevelVar)
	}
}

// PlantType classifies a species for planting purposes.
type PlantType string

const (
	PlantTypeTree        PlantType = "tree"
	PlantTypeShrub       PlantType = "shrub"
	PlantTypePerennial   PlantType = "perennial"
	PlantTypeAnnual      PlantType = "annual"
	PlantTypeGroundCover PlantType = "ground-cover"
	PlantTypeCustom      PlantType = "custom"
)

// ParsePlantType maps a provider string onto a known plant type.
// Unknown values map to PlantTypeCustom.
func ParsePlantType(s string) PlantType {
	switch PlantType(s) {
	case PlantTypeTree, PlantTypeShrub, PlantTypePerennial, PlantTypeAnnual, PlantTypeGroundCover:
		return PlantType(s)
	default:
		return PlantTypeCustom
	}
}

// SourceTag marks which tier produced a record.
type SourceTag string

const (
	SourceCache     SourceTag = "cache"
	SourcePrimary   SourceTag = "primary"
	SourceSecondary SourceTag = "secondary"
	SourceBundled   SourceTag = "bundled"
	SourceManual    SourceTag = "manual"
)

// GrowingRequirements describes the growing conditions a species needs.
type GrowingRequirements struct {
	Light     string `json:"light,omitempty"`
	Water     string `json:"water,omitempty"`
	Soil      string `json:"soil,omitempty"`
	SpacingCM int    `json:"spacingCm,omitempty"`
}

// SpeciesRecord is the resolved metadata for one plant species. Once cached,
// identity fields and the source tag are immutable; re-resolution produces a
// new record rather than mutating an existing one.
type SpeciesRecord struct {
	ID             string              `json:"id"`
	CommonName     string              `json:"commonName"`
	ScientificName string              `json:"scientificName,omitempty"`
	PlantType      PlantType           `json:"plantType"`
	Requirements   GrowingRequirements `json:"growingRequirements"`
	SourceTag      SourceTag           `json:"sourceTag"`
	Confidence     float64             `json:"confidence,omitempty"`
	FetchedAt      time.Time           `json:"fetchedAt,omitempty"`
}

// SourceStatus is the outcome class of one tier attempt.
type SourceStatus int

const (
	StatusSuccess SourceStatus = iota
	StatusNotFound
	StatusFailure
)

// String returns the status name for logging.
func (s SourceStatus) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusNotFound:
		return "not-found"
	case StatusFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// SourceResult is the tagged outcome of one tier attempt. NotFound and
// Failure both continue the fallback chain; only Success short-circuits.
type SourceResult struct {
	Status SourceStatus
	Record SpeciesRecord // valid only when Status is StatusSuccess
	Err    error         // set only when Status is StatusFailure
}

// Success wraps a record in a successful SourceResult.
func Success(record SpeciesRecord) SourceResult {
	return SourceResult{Status: StatusSuccess, Record: record}
}

// NotFound reports a valid response with no match.
func NotFound() SourceResult {
	return SourceResult{Status: StatusNotFound}
}

// Failure reports a failed tier attempt.
func Failure(err error) SourceResult {
	return SourceResult{Status: StatusFailure, Err: err}
}
