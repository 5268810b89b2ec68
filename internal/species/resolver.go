package species

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mkallio/gardenplan-go/internal/errors"
	"github.com/mkallio/gardenplan-go/internal/observability/metrics"
)

// Resolution is the outcome of resolving a query. Resolved reports whether a
// record was produced; an unresolved outcome is a normal result, not an error.
type Resolution struct {
	Query         string        `json:"query"`
	NormalizedKey string        `json:"normalizedKey"`
	Resolved      bool          `json:"resolved"`
	Record        SpeciesRecord `json:"record,omitempty"`
	Source        SourceTag     `json:"source,omitempty"`
}

// tier pairs a remote provider with the tag stamped on its records.
type tier struct {
	tag      SourceTag
	provider Provider
}

// Resolver turns free-text plant queries into species records by walking the
// cache, the remote providers in order, and the bundled dataset. Concurrent
// lookups for the same normalized key are coalesced into one flight.
type Resolver struct {
	normalizer *Normalizer
	cache      *Cache
	tiers      []tier
	bundled    *BundledDataset
	metrics    *metrics.SpeciesMetrics
	group      singleflight.Group
	debug      bool
}

// NewResolver assembles a resolver. Primary and secondary may be nil when the
// corresponding provider is disabled; bundled must not be.
func NewResolver(normalizer *Normalizer, cache *Cache, primary, secondary Provider, bundled *BundledDataset, m *metrics.SpeciesMetrics, debug bool) *Resolver {
	r := &Resolver{
		normalizer: normalizer,
		cache:      cache,
		bundled:    bundled,
		metrics:    m,
		debug:      debug,
	}
	if primary != nil {
		r.tiers = append(r.tiers, tier{tag: SourcePrimary, provider: primary})
	}
	if secondary != nil {
		r.tiers = append(r.tiers, tier{tag: SourceSecondary, provider: secondary})
	}
	return r
}

// Resolve resolves a raw query to a species record. It returns an error only
// for invalid input or cancellation; a query no tier can answer comes back as
// an unresolved Resolution.
func (r *Resolver) Resolve(ctx context.Context, query string) (Resolution, error) {
	if strings.TrimSpace(query) == "" {
		return Resolution{}, errors.ValidationError("query must not be empty")
	}

	key := r.normalizer.Normalize(query)
	start := time.Now()

	// Concurrent callers for the same key share one flight. The flight runs
	// under the initiating caller's context; a waiter whose own context ends
	// stops waiting while the flight continues for the others.
	ch := r.group.DoChan(key, func() (any, error) {
		return r.resolveKey(ctx, key)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return Resolution{}, errors.Newf("lookup abandoned: %w", ctx.Err()).
			Component("resolver").
			Category(errors.CategoryCancellation).
			Context("key", key).
			Build()
	case res = <-ch:
	}

	if res.Shared && r.metrics != nil {
		r.metrics.IncrementCoalescedLookups()
	}
	if res.Err != nil {
		return Resolution{}, res.Err
	}

	outcome, ok := res.Val.(Resolution)
	if !ok {
		return Resolution{}, errors.Newf("unexpected flight result type %T", res.Val).
			Component("resolver").
			Category(errors.CategoryGeneric).
			Build()
	}
	outcome.Query = query

	if r.metrics != nil {
		r.metrics.ObserveLookupDuration(time.Since(start).Seconds())
		source := "unresolved"
		if outcome.Resolved {
			source = string(outcome.Source)
		}
		r.metrics.IncrementResolutions(source)
	}

	return outcome, nil
}

// resolveKey walks the tiers for one normalized key. Provider records are
// tagged with their tier and written through the cache; a cancelled context
// aborts the walk without writing anything.
func (r *Resolver) resolveKey(ctx context.Context, key string) (Resolution, error) {
	if record, found := r.cache.Get(key); found {
		if r.debug {
			logger.Debug("Cache hit", "key", key, "source", record.SourceTag)
		}
		return Resolution{
			NormalizedKey: key,
			Resolved:      true,
			Record:        record,
			Source:        SourceCache,
		}, nil
	}

	for _, t := range r.tiers {
		if err := ctx.Err(); err != nil {
			return Resolution{}, errors.Newf("lookup cancelled: %w", err).
				Component("resolver").
				Category(errors.CategoryCancellation).
				Context("key", key).
				Build()
		}

		result := t.provider.Lookup(ctx, key)
		switch result.Status {
		case StatusSuccess:
			record := result.Record
			record.SourceTag = t.tag
			r.cache.Put(key, record)
			return Resolution{
				NormalizedKey: key,
				Resolved:      true,
				Record:        record,
				Source:        t.tag,
			}, nil
		case StatusNotFound:
			if r.debug {
				logger.Debug("Provider has no match", "provider", t.provider.Name(), "key", key)
			}
		case StatusFailure:
			if r.metrics != nil {
				r.metrics.IncrementProviderErrors(t.provider.Name(), errorKind(result.Err))
			}
			logger.Warn("Provider lookup failed, falling through",
				"provider", t.provider.Name(),
				"key", key,
				"error", result.Err)
		}
	}

	if record, found := r.bundled.Lookup(key); found {
		record.SourceTag = SourceBundled
		r.cache.Put(key, record)
		return Resolution{
			NormalizedKey: key,
			Resolved:      true,
			Record:        record,
			Source:        SourceBundled,
		}, nil
	}

	logger.Info("Query unresolved by all tiers", "key", key)
	return Resolution{NormalizedKey: key, Resolved: false}, nil
}

// Refresh re-resolves a normalized key against the remote tiers, bypassing
// the cache, and stores any fresh record. Used by the background refresher.
func (r *Resolver) Refresh(normalizedKey string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, t := range r.tiers {
		result := t.provider.Lookup(ctx, normalizedKey)
		if result.Status == StatusSuccess {
			record := result.Record
			record.SourceTag = t.tag
			r.cache.Put(normalizedKey, record)
			return
		}
	}
	if record, found := r.bundled.Lookup(normalizedKey); found {
		record.SourceTag = SourceBundled
		r.cache.Put(normalizedKey, record)
	}
}

// Invalidate drops the cached record for a raw query, if any.
func (r *Resolver) Invalidate(query string) {
	r.cache.Invalidate(r.normalizer.Normalize(query))
}

// errorKind labels a provider failure for metrics.
func errorKind(err error) string {
	var enhanced *errors.EnhancedError
	if errors.As(err, &enhanced) {
		return string(enhanced.Category)
	}
	return "unknown"
}
