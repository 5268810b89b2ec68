package datastore

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mkallio/gardenplan-go/internal/conf"
	"github.com/mkallio/gardenplan-go/internal/errors"
)

// SQLiteStore implements Interface for SQLite
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

// NewSQLiteStore creates an unopened SQLite-backed store.
func NewSQLiteStore(settings *conf.Settings) *SQLiteStore {
	return &SQLiteStore{Settings: settings}
}

// Open sets up the SQLite database connection, verifies integrity and runs
// migrations. A corrupted database file is moved aside and recreated empty;
// corruption never propagates to the caller.
func (store *SQLiteStore) Open() error {
	if store.Settings.Output.SQLite.Path == "" {
		return errors.Newf("SQLite database path is not configured").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}

	dir, fileName := filepath.Split(store.Settings.Output.SQLite.Path)
	basePath := conf.GetBasePath(dir)
	absoluteFilePath := filepath.Join(basePath, fileName)

	db, err := openAndVerify(absoluteFilePath)
	if err != nil {
		// Treat an unreadable or corrupted store as empty: move the bad file
		// aside and start over with a fresh database.
		dsLogger.Warn("Species cache database failed to open, resetting",
			"path", absoluteFilePath,
			"error", err)

		if resetErr := quarantineDatabase(absoluteFilePath); resetErr != nil {
			return errors.Newf("failed to reset corrupted database: %w", resetErr).
				Component("datastore").
				Category(errors.CategoryCacheCorruption).
				Context("path", absoluteFilePath).
				Build()
		}

		db, err = openAndVerify(absoluteFilePath)
		if err != nil {
			return errors.Newf("failed to open SQLite database after reset: %w", err).
				Component("datastore").
				Category(errors.CategoryDatabase).
				Context("path", absoluteFilePath).
				Build()
		}

		dsLogger.Info("Species cache database rebuilt after corruption",
			"path", absoluteFilePath)
	}

	store.DB = db
	return performAutoMigration(db, store.Settings.Debug, "SQLite", absoluteFilePath)
}

// openAndVerify opens the database and runs an integrity check.
func openAndVerify(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: createGormLogger()})
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	var result string
	if err := db.Raw("PRAGMA integrity_check").Scan(&result).Error; err != nil {
		closeDB(db)
		return nil, fmt.Errorf("integrity check failed to run: %w", err)
	}
	if result != "ok" {
		closeDB(db)
		return nil, fmt.Errorf("integrity check reported corruption: %s", result)
	}

	return db, nil
}

// quarantineDatabase moves a corrupted database file out of the way so a
// fresh one can be created in its place.
func quarantineDatabase(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	quarantined := fmt.Sprintf("%s.corrupt.%s", path, time.Now().Format("20060102-150405"))
	return os.Rename(path, quarantined)
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Close closes the underlying database connection.
func (store *SQLiteStore) Close() error {
	if store.DB == nil {
		return nil
	}
	sqlDB, err := store.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// New returns the store configured in settings. Only SQLite is supported;
// the cache belongs to a single-user desktop application.
func New(settings *conf.Settings) Interface {
	return NewSQLiteStore(settings)
}
