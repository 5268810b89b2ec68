package species

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mkallio/gardenplan-go/internal/conf"
	"github.com/mkallio/gardenplan-go/internal/datastore"
	"github.com/mkallio/gardenplan-go/internal/errors"
	"github.com/mkallio/gardenplan-go/internal/httpclient"
	"github.com/mkallio/gardenplan-go/internal/observability/metrics"
)

// Service bundles the resolver with the resources it owns.
type Service struct {
	Resolver *Resolver
	Cache    *Cache

	store datastore.Interface
}

// NewService wires the full resolution pipeline from settings: bundled
// dataset, alias-seeded normalizer, SQLite-backed cache and the enabled
// remote providers. Pass a nil registry to run without metrics.
func NewService(settings *conf.Settings, registry *prometheus.Registry) (*Service, error) {
	bundled, err := NewBundledDataset()
	if err != nil {
		return nil, errors.New(err).
			Component("species").
			Category(errors.CategoryFileParsing).
			Build()
	}

	normalizer := NewNormalizer(bundled.Aliases())

	var speciesMetrics *metrics.SpeciesMetrics
	if registry != nil {
		speciesMetrics, err = metrics.NewSpeciesMetrics(registry)
		if err != nil {
			return nil, err
		}
	}

	var store datastore.Interface
	if settings.Output.SQLite.Enabled {
		store = datastore.New(settings)
		if err := store.Open(); err != nil {
			// The durable cache is an optimization; resolution still works
			// without it.
			logger.Error("Failed to open cache store, continuing without persistence", "error", err)
			store = nil
		}
	}

	ttl := time.Duration(settings.Species.CacheTTL) * time.Hour
	cache := NewCache(store, ttl, speciesMetrics, settings.Species.Debug)

	client := httpclient.New(nil)

	var primary, secondary Provider
	if settings.Species.Floralis.Enabled {
		primary, err = NewFloralisProvider(settings.Species.Floralis, client)
		if err != nil {
			logger.Error("Floralis provider disabled", "error", err)
			primary = nil
		}
	}
	if settings.Species.OpenPlantbook.Enabled {
		secondary = NewOpenPlantbookProvider(settings.Species.OpenPlantbook, client)
	}

	resolver := NewResolver(normalizer, cache, primary, secondary, bundled, speciesMetrics, settings.Species.Debug)

	if settings.Species.BackgroundRefresh {
		cache.StartBackgroundRefresh(resolver.Refresh)
	}

	return &Service{Resolver: resolver, Cache: cache, store: store}, nil
}

// Close stops the background refresher and closes the cache store.
func (s *Service) Close() error {
	_ = s.Cache.Close()
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
