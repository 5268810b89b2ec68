package datastore

import "time"

// SpeciesCache is a durable cache entry for one resolved plant species.
// The normalized key is the cache slot; the remaining columns carry the
// resolved record. Optional fields may be empty in older databases.
type SpeciesCache struct {
	ID             uint      `gorm:"primaryKey"`
	NormalizedKey  string    `gorm:"uniqueIndex;not null"` // canonical lookup key
	RecordID       string    // stable identifier of the resolved record
	CommonName     string    // common name of the species
	ScientificName string    // scientific name of the species
	PlantType      string    // tree, shrub, perennial, annual, ground-cover or custom
	Light          string    // light requirement
	Water          string    // water requirement
	Soil           string    // soil requirement
	SpacingCM      int       // recommended plant spacing in centimeters
	SourceTag      string    // which tier produced this record
	Confidence     float64   // provider confidence, 0 when unknown
	FetchedAt      time.Time `gorm:"index"` // when the record was cached
	TTLSeconds     int64     // per-entry time-to-live in seconds
}

// Expired reports whether the entry's age exceeds its TTL at the given time.
// Entries without a TTL never expire.
func (e *SpeciesCache) Expired(now time.Time) bool {
	if e.TTLSeconds <= 0 {
		return false
	}
	return now.Sub(e.FetchedAt) > time.Duration(e.TTLSeconds)*time.Second
}
