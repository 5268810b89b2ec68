package species

import (
	"sync"
	"time"

	"github.com/mkallio/gardenplan-go/internal/datastore"
	"github.com/mkallio/gardenplan-go/internal/observability/metrics"
)

// CacheStore is the subset of the datastore interface the cache needs.
type CacheStore interface {
	GetSpeciesCache(normalizedKey string) (*datastore.SpeciesCache, error)
	SaveSpeciesCache(entry *datastore.SpeciesCache) error
	DeleteSpeciesCache(normalizedKey string) error
	GetAllSpeciesCaches() ([]datastore.SpeciesCache, error)
}

// cacheEntry is one in-memory cache slot.
type cacheEntry struct {
	record    SpeciesRecord
	fetchedAt time.Time
	ttl       time.Duration
}

func (e *cacheEntry) expired(now time.Time) bool {
	if e.ttl <= 0 {
		return false
	}
	return now.Sub(e.fetchedAt) > e.ttl
}

const (
	refreshInterval  = 1 * time.Hour
	refreshBatchSize = 10
	refreshDelay     = 500 * time.Millisecond
)

// Cache stores resolved species records in memory with durable write-through.
// The durable store is an optimization: a failed write is logged and the
// in-memory result still served. Expired entries read as misses but are only
// evicted lazily, when the slot is next written.
type Cache struct {
	dataMap sync.Map // normalizedKey -> *cacheEntry
	store   CacheStore
	ttl     time.Duration
	metrics *metrics.SpeciesMetrics
	debug   bool

	quit     chan struct{}
	stopOnce sync.Once
}

// NewCache creates a cache backed by the given store, warming the in-memory
// map from it. A nil store yields a memory-only cache.
func NewCache(store CacheStore, ttl time.Duration, m *metrics.SpeciesMetrics, debug bool) *Cache {
	c := &Cache{
		store:   store,
		ttl:     ttl,
		metrics: m,
		debug:   debug,
		quit:    make(chan struct{}),
	}

	if err := c.loadCachedRecords(); err != nil {
		logger.Error("Failed to warm species cache from store", "error", err)
	}

	return c
}

// loadCachedRecords loads all persisted entries into memory.
func (c *Cache) loadCachedRecords() error {
	if c.store == nil {
		if c.debug {
			logger.Debug("No durable store available, starting with empty cache")
		}
		return nil
	}

	entries, err := c.store.GetAllSpeciesCaches()
	if err != nil {
		return err // continue with empty cache; caller only logs
	}

	for i := range entries {
		e := &entries[i]
		c.dataMap.Store(e.NormalizedKey, &cacheEntry{
			record:    recordFromStored(e),
			fetchedAt: e.FetchedAt,
			ttl:       time.Duration(e.TTLSeconds) * time.Second,
		})
	}

	if c.debug {
		logger.Debug("Species cache warmed from store", "entries", len(entries))
	}
	return nil
}

// Get returns the unexpired record cached for a normalized key. Expired
// entries are treated as absent but left in place for lazy eviction.
func (c *Cache) Get(normalizedKey string) (SpeciesRecord, bool) {
	now := time.Now()

	if value, ok := c.dataMap.Load(normalizedKey); ok {
		if entry, ok := value.(*cacheEntry); ok && !entry.expired(now) {
			if c.metrics != nil {
				c.metrics.IncrementCacheHits()
			}
			return entry.record, true
		}
	} else if stored := c.loadFromStore(normalizedKey); stored != nil && !stored.expired(now) {
		// A slot written by an earlier process may not be in memory yet.
		c.dataMap.Store(normalizedKey, stored)
		if c.metrics != nil {
			c.metrics.IncrementCacheHits()
		}
		return stored.record, true
	}

	if c.metrics != nil {
		c.metrics.IncrementCacheMisses()
	}
	return SpeciesRecord{}, false
}

// loadFromStore fetches one entry from the durable store. Store errors read
// as a miss; the cache never fails a lookup.
func (c *Cache) loadFromStore(normalizedKey string) *cacheEntry {
	if c.store == nil {
		return nil
	}

	stored, err := c.store.GetSpeciesCache(normalizedKey)
	if err != nil {
		if c.debug {
			logger.Debug("Failed to read cache entry from store",
				"key", normalizedKey,
				"error", err)
		}
		return nil
	}
	if stored == nil {
		return nil
	}

	return &cacheEntry{
		record:    recordFromStored(stored),
		fetchedAt: stored.FetchedAt,
		ttl:       time.Duration(stored.TTLSeconds) * time.Second,
	}
}

// Put upserts a record into the cache slot for a normalized key, refreshing
// its fetch time. A durable write failure is logged, never returned.
func (c *Cache) Put(normalizedKey string, record SpeciesRecord) {
	now := time.Now()
	record.FetchedAt = now

	c.dataMap.Store(normalizedKey, &cacheEntry{
		record:    record,
		fetchedAt: now,
		ttl:       c.ttl,
	})

	if c.store == nil {
		return
	}

	stored := storedFromRecord(normalizedKey, &record, now, c.ttl)
	if err := c.store.SaveSpeciesCache(stored); err != nil {
		logger.Error("Failed to persist cache entry, serving from memory only",
			"key", normalizedKey,
			"error", err)
	}
}

// Invalidate removes the cache slot for a normalized key from memory and
// from the durable store.
func (c *Cache) Invalidate(normalizedKey string) {
	c.dataMap.Delete(normalizedKey)

	if c.store == nil {
		return
	}
	if err := c.store.DeleteSpeciesCache(normalizedKey); err != nil {
		logger.Error("Failed to invalidate durable cache entry",
			"key", normalizedKey,
			"error", err)
	}
}

// StartBackgroundRefresh launches a routine that re-resolves stale entries in
// rate-limited batches using refreshFn. Call Close to stop it.
func (c *Cache) StartBackgroundRefresh(refreshFn func(normalizedKey string)) {
	if c.debug {
		logger.Debug("Starting cache refresh routine", "ttl", c.ttl)
	}

	go func() {
		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-c.quit:
				if c.debug {
					logger.Debug("Stopping cache refresh routine")
				}
				return
			case <-ticker.C:
				c.refreshStaleEntries(refreshFn)
			}
		}
	}()
}

// refreshStaleEntries re-resolves entries older than the cache TTL.
func (c *Cache) refreshStaleEntries(refreshFn func(normalizedKey string)) {
	if c.store == nil {
		return
	}

	entries, err := c.store.GetAllSpeciesCaches()
	if err != nil {
		if c.debug {
			logger.Debug("Failed to list cache entries for refresh", "error", err)
		}
		return
	}

	var stale []string
	now := time.Now()
	for i := range entries {
		if entries[i].Expired(now) {
			stale = append(stale, entries[i].NormalizedKey)
		}
	}
	if len(stale) == 0 {
		return
	}

	logger.Info("Refreshing stale cache entries", "count", len(stale))

	for i := 0; i < len(stale); i += refreshBatchSize {
		end := min(i+refreshBatchSize, len(stale))
		for _, key := range stale[i:end] {
			select {
			case <-c.quit:
				return
			case <-time.After(refreshDelay):
				refreshFn(key)
			}
		}
	}
}

// Close stops the background refresh routine.
func (c *Cache) Close() error {
	c.stopOnce.Do(func() { close(c.quit) })
	return nil
}

// recordFromStored maps a durable entry back onto the record shape.
// Optional columns missing from older databases read as zero values.
func recordFromStored(e *datastore.SpeciesCache) SpeciesRecord {
	return SpeciesRecord{
		ID:             e.RecordID,
		CommonName:     e.CommonName,
		ScientificName: e.ScientificName,
		PlantType:      ParsePlantType(e.PlantType),
		Requirements: GrowingRequirements{
			Light:     e.Light,
			Water:     e.Water,
			Soil:      e.Soil,
			SpacingCM: e.SpacingCM,
		},
		SourceTag:  SourceTag(e.SourceTag),
		Confidence: e.Confidence,
		FetchedAt:  e.FetchedAt,
	}
}

// storedFromRecord maps a record onto its durable shape.
func storedFromRecord(normalizedKey string, r *SpeciesRecord, fetchedAt time.Time, ttl time.Duration) *datastore.SpeciesCache {
	return &datastore.SpeciesCache{
		NormalizedKey:  normalizedKey,
		RecordID:       r.ID,
		CommonName:     r.CommonName,
		ScientificName: r.ScientificName,
		PlantType:      string(r.PlantType),
		Light:          r.Requirements.Light,
		Water:          r.Requirements.Water,
		Soil:           r.Requirements.Soil,
		SpacingCM:      r.Requirements.SpacingCM,
		SourceTag:      string(r.SourceTag),
		Confidence:     r.Confidence,
		FetchedAt:      fetchedAt,
		TTLSeconds:     int64(ttl / time.Second),
	}
}
