package datastore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkallio/gardenplan-go/internal/conf"
)

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()

	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "gardenplan.db")
	return settings
}

func openTestStore(t *testing.T, settings *conf.Settings) Interface {
	t.Helper()

	store := New(settings)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testEntry(normalizedKey string) *SpeciesCache {
	return &SpeciesCache{
		NormalizedKey:  normalizedKey,
		RecordID:       "gp-0001",
		CommonName:     "Tomato",
		ScientificName: "Solanum lycopersicum",
		PlantType:      "annual",
		Light:          "full sun",
		Water:          "frequent",
		Soil:           "loam",
		SpacingCM:      45,
		SourceTag:      "primary",
		Confidence:     0.97,
		FetchedAt:      time.Now(),
		TTLSeconds:     3600,
	}
}

func TestSQLiteStore_OpenRequiresPath(t *testing.T) {
	store := New(&conf.Settings{})
	require.Error(t, store.Open())
}

func TestSQLiteStore_CRUD(t *testing.T) {
	store := openTestStore(t, testSettings(t))

	require.NoError(t, store.SaveSpeciesCache(testEntry("tomato")))

	entry, err := store.GetSpeciesCache("tomato")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "gp-0001", entry.RecordID)
	assert.Equal(t, "Tomato", entry.CommonName)
	assert.Equal(t, 45, entry.SpacingCM)

	require.NoError(t, store.DeleteSpeciesCache("tomato"))

	entry, err = store.GetSpeciesCache("tomato")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestSQLiteStore_GetMissingReturnsNilNil(t *testing.T) {
	store := openTestStore(t, testSettings(t))

	entry, err := store.GetSpeciesCache("never stored")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestSQLiteStore_SaveReplacesExistingEntry(t *testing.T) {
	store := openTestStore(t, testSettings(t))

	require.NoError(t, store.SaveSpeciesCache(testEntry("tomato")))

	updated := testEntry("tomato")
	updated.RecordID = "gp-0002"
	updated.SourceTag = "secondary"
	require.NoError(t, store.SaveSpeciesCache(updated))

	entry, err := store.GetSpeciesCache("tomato")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "gp-0002", entry.RecordID)
	assert.Equal(t, "secondary", entry.SourceTag)

	all, err := store.GetAllSpeciesCaches()
	require.NoError(t, err)
	assert.Len(t, all, 1, "saving the same key twice must not duplicate rows")
}

func TestSQLiteStore_GetAll(t *testing.T) {
	store := openTestStore(t, testSettings(t))

	for _, key := range []string{"tomato", "basil", "mint"} {
		entry := testEntry(key)
		require.NoError(t, store.SaveSpeciesCache(entry))
	}

	all, err := store.GetAllSpeciesCaches()
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLiteStore_CorruptedDatabaseIsQuarantined(t *testing.T) {
	settings := testSettings(t)
	dbPath := settings.Output.SQLite.Path

	// A file of garbage bytes where the database should be.
	require.NoError(t, os.WriteFile(dbPath, []byte("this is not a sqlite database, it is a potato"), 0o644))

	store := openTestStore(t, settings)

	// The store must come up empty and usable.
	all, err := store.GetAllSpeciesCaches()
	require.NoError(t, err)
	assert.Empty(t, all)
	require.NoError(t, store.SaveSpeciesCache(testEntry("tomato")))

	// The bad file is preserved alongside the fresh database.
	matches, err := filepath.Glob(dbPath + ".corrupt.*")
	require.NoError(t, err)
	assert.Len(t, matches, 1, "corrupted file should be moved aside, not deleted")
}

func TestSQLiteStore_ReopenSeesPersistedData(t *testing.T) {
	settings := testSettings(t)

	first := New(settings)
	require.NoError(t, first.Open())
	require.NoError(t, first.SaveSpeciesCache(testEntry("tomato")))
	require.NoError(t, first.Close())

	second := openTestStore(t, settings)
	entry, err := second.GetSpeciesCache("tomato")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Tomato", entry.CommonName)
}

func TestSpeciesCache_Expired(t *testing.T) {
	now := time.Now()

	fresh := SpeciesCache{FetchedAt: now.Add(-30 * time.Minute), TTLSeconds: 3600}
	stale := SpeciesCache{FetchedAt: now.Add(-2 * time.Hour), TTLSeconds: 3600}
	immortal := SpeciesCache{FetchedAt: now.Add(-24 * 365 * time.Hour), TTLSeconds: 0}

	assert.False(t, fresh.Expired(now))
	assert.True(t, stale.Expired(now))
	assert.False(t, immortal.Expired(now), "zero TTL disables expiry")
}
