// Package datastore persists the species resolution cache. The SQLite store
// rebuilds itself when the database file is corrupted; cache data is an
// optimization, never a source of truth.
package datastore

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mkallio/gardenplan-go/internal/errors"
	"github.com/mkallio/gardenplan-go/internal/logging"
)

// Package-level logger for the datastore service
var (
	dsLogger   *slog.Logger
	dsLevelVar = new(slog.LevelVar)
)

func init() {
	var err error
	dsLevelVar.Set(slog.LevelInfo)
	dsLogger, _, err = logging.NewFileLogger("logs/datastore.log", "datastore", dsLevelVar)
	if err != nil {
		log.Printf("Failed to initialize datastore file logger: %v", err)
		dsLogger = logging.NewDiscardLogger("datastore", dsLevelVar)
	}
}

// Interface is the storage contract used by the species cache.
type Interface interface {
	Open() error
	Close() error
	GetSpeciesCache(normalizedKey string) (*SpeciesCache, error)
	SaveSpeciesCache(entry *SpeciesCache) error
	DeleteSpeciesCache(normalizedKey string) error
	GetAllSpeciesCaches() ([]SpeciesCache, error)
}

// DataStore implements the parts of Interface shared by all database backends.
type DataStore struct {
	DB *gorm.DB
}

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() gormlogger.Interface {
	return gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      gormlogger.Warn,
			Colorful:      true,
		},
	)
}

// GetSpeciesCache retrieves the cache entry for a normalized key.
// Returns (nil, nil) when no entry exists; expiry is the caller's concern.
func (ds *DataStore) GetSpeciesCache(normalizedKey string) (*SpeciesCache, error) {
	if ds.DB == nil {
		return nil, errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	var entry SpeciesCache
	err := ds.DB.Where("normalized_key = ?", normalizedKey).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Newf("failed to get species cache entry: %w", err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("normalized_key", normalizedKey).
			Build()
	}
	return &entry, nil
}

// SaveSpeciesCache upserts a cache entry keyed by its normalized key,
// replacing any prior entry wholesale.
func (ds *DataStore) SaveSpeciesCache(entry *SpeciesCache) error {
	if ds.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	return ds.DB.Transaction(func(tx *gorm.DB) error {
		// Lazy eviction: the write path removes whatever previously occupied
		// the slot, expired or not, then inserts the fresh entry.
		if err := tx.Where("normalized_key = ?", entry.NormalizedKey).
			Delete(&SpeciesCache{}).Error; err != nil {
			return err
		}
		if err := tx.Create(entry).Error; err != nil {
			return errors.Newf("failed to save species cache entry: %w", err).
				Component("datastore").
				Category(errors.CategoryDatabase).
				Context("normalized_key", entry.NormalizedKey).
				Build()
		}
		return nil
	})
}

// DeleteSpeciesCache removes the entry for a normalized key, if present.
func (ds *DataStore) DeleteSpeciesCache(normalizedKey string) error {
	if ds.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	if err := ds.DB.Where("normalized_key = ?", normalizedKey).
		Delete(&SpeciesCache{}).Error; err != nil {
		return errors.Newf("failed to delete species cache entry: %w", err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("normalized_key", normalizedKey).
			Build()
	}
	return nil
}

// GetAllSpeciesCaches returns every cache entry, expired ones included.
func (ds *DataStore) GetAllSpeciesCaches() ([]SpeciesCache, error) {
	if ds.DB == nil {
		return nil, errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	var entries []SpeciesCache
	if err := ds.DB.Find(&entries).Error; err != nil {
		return nil, errors.Newf("failed to load species cache entries: %w", err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return entries, nil
}

// performAutoMigration runs gorm auto-migration for the cache schema.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&SpeciesCache{}); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)
	}
	if debug {
		dsLogger.Debug("Database schema migrated", "type", dbType, "connection", connectionInfo)
	}
	return nil
}
