// Package metrics provides custom Prometheus metrics for the species
// resolution service.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// SpeciesMetrics contains all Prometheus metrics related to species resolution.
type SpeciesMetrics struct {
	Resolutions      *prometheus.CounterVec
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
	ProviderErrors   *prometheus.CounterVec
	LookupDuration   prometheus.Histogram
	CoalescedLookups prometheus.Counter
	registry         *prometheus.Registry
}

// NewSpeciesMetrics creates a new instance of SpeciesMetrics registered on
// the given Prometheus registry.
func NewSpeciesMetrics(registry *prometheus.Registry) (*SpeciesMetrics, error) {
	m := &SpeciesMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register species metrics: %w", err)
	}
	return m, nil
}

// initMetrics initializes all metrics for SpeciesMetrics.
func (m *SpeciesMetrics) initMetrics() {
	m.Resolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "species_resolutions_total",
		Help: "Total number of completed resolutions, labeled by source tier.",
	}, []string{"source"})

	m.CacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "species_cache_hits_total",
		Help: "Total number of cache hits.",
	})

	m.CacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "species_cache_misses_total",
		Help: "Total number of cache misses.",
	})

	m.ProviderErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "species_provider_errors_total",
		Help: "Total number of provider lookup errors, labeled by provider and kind.",
	}, []string{"provider", "kind"})

	m.LookupDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "species_lookup_duration_seconds",
		Help:    "Duration of full resolutions in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	m.CoalescedLookups = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "species_coalesced_lookups_total",
		Help: "Total number of lookups coalesced onto an in-flight resolution.",
	})
}

// IncrementResolutions increases the resolution counter for a source tier.
func (m *SpeciesMetrics) IncrementResolutions(source string) {
	m.Resolutions.WithLabelValues(source).Inc()
}

// IncrementCacheHits increases the cache hit counter by one.
func (m *SpeciesMetrics) IncrementCacheHits() {
	m.CacheHits.Inc()
}

// IncrementCacheMisses increases the cache miss counter by one.
func (m *SpeciesMetrics) IncrementCacheMisses() {
	m.CacheMisses.Inc()
}

// IncrementProviderErrors increases the error counter for a provider and kind.
func (m *SpeciesMetrics) IncrementProviderErrors(provider, kind string) {
	m.ProviderErrors.WithLabelValues(provider, kind).Inc()
}

// ObserveLookupDuration records the duration of one resolution in seconds.
func (m *SpeciesMetrics) ObserveLookupDuration(seconds float64) {
	m.LookupDuration.Observe(seconds)
}

// IncrementCoalescedLookups increases the coalesced lookup counter by one.
func (m *SpeciesMetrics) IncrementCoalescedLookups() {
	m.CoalescedLookups.Inc()
}

// Describe implements prometheus.Collector.
func (m *SpeciesMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.Resolutions.Describe(ch)
	ch <- m.CacheHits.Desc()
	ch <- m.CacheMisses.Desc()
	m.ProviderErrors.Describe(ch)
	ch <- m.LookupDuration.Desc()
	ch <- m.CoalescedLookups.Desc()
}

// Collect implements prometheus.Collector.
func (m *SpeciesMetrics) Collect(ch chan<- prometheus.Metric) {
	m.Resolutions.Collect(ch)
	ch <- m.CacheHits
	ch <- m.CacheMisses
	m.ProviderErrors.Collect(ch)
	ch <- m.LookupDuration
	ch <- m.CoalescedLookups
}
