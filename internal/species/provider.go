package species

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/mkallio/gardenplan-go/internal/errors"
)

// Provider is one remote species data source. Both variants expose the same
// contract so the resolver treats them uniformly. Lookup classifies its own
// errors and never panics through; a timeout or exhausted retries yields a
// Failure result, not an error return.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, normalizedKey string) SourceResult
}

// ProviderMetrics counts one provider's lookup activity.
type ProviderMetrics struct {
	APICalls      int64         `json:"api_calls"`
	CacheHits     int64         `json:"cache_hits"`
	CacheMisses   int64         `json:"cache_misses"`
	APIErrors     int64         `json:"api_errors"`
	TotalDuration time.Duration `json:"total_duration"`
	AvgDuration   time.Duration `json:"avg_duration"`
}

// providerStats is the mutable, locked backing for ProviderMetrics.
type providerStats struct {
	mu            sync.RWMutex
	apiCalls      int64
	cacheHits     int64
	cacheMisses   int64
	apiErrors     int64
	totalDuration time.Duration
}

func (s *providerStats) recordCall(d time.Duration, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiCalls++
	s.totalDuration += d
	if failed {
		s.apiErrors++
	}
}

func (s *providerStats) recordCacheHit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cacheHits++
}

func (s *providerStats) recordCacheMiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cacheMisses++
}

func (s *providerStats) snapshot() ProviderMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := ProviderMetrics{
		APICalls:      s.apiCalls,
		CacheHits:     s.cacheHits,
		CacheMisses:   s.cacheMisses,
		APIErrors:     s.apiErrors,
		TotalDuration: s.totalDuration,
	}
	if m.APICalls > 0 {
		m.AvgDuration = time.Duration(int64(m.TotalDuration) / m.APICalls)
	}
	return m
}

// retryBaseDelay is the backoff unit between transient retries; the delay
// scales linearly with the attempt number.
const retryBaseDelay = 500 * time.Millisecond

// isTransient reports whether a classified lookup error is worth one more
// attempt. Auth failures and malformed responses are permanent; connection
// and timeout classes are transient.
func isTransient(err error) bool {
	var enhanced *errors.EnhancedError
	if errors.As(err, &enhanced) {
		switch enhanced.Category {
		case errors.CategoryNetwork, errors.CategoryTimeout:
			return true
		default:
			return false
		}
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// lookupWithRetry runs one bounded retry loop around a single-attempt lookup
// function. Non-transient failures and NotFound short-circuit; the context
// ending stops retries immediately.
func lookupWithRetry(ctx context.Context, providerName string, maxRetries int, attemptFn func(context.Context) SourceResult) SourceResult {
	var last SourceResult

	for attempt := 0; attempt <= maxRetries; attempt++ {
		last = attemptFn(ctx)
		if last.Status != StatusFailure {
			return last
		}
		if !isTransient(last.Err) {
			return last
		}
		if ctx.Err() != nil {
			return Failure(errors.New(ctx.Err()).
				Component(providerName).
				Category(errors.CategoryCancellation).
				Build())
		}
		if attempt < maxRetries {
			delay := time.Duration(attempt+1) * retryBaseDelay
			logger.Warn("Provider lookup failed, retrying",
				"provider", providerName,
				"attempt", attempt+1,
				"max_retries", maxRetries,
				"delay_ms", delay.Milliseconds(),
				"error", last.Err.Error())
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return Failure(errors.New(ctx.Err()).
					Component(providerName).
					Category(errors.CategoryCancellation).
					Build())
			}
		}
	}

	return last
}

// classifyStatusCode maps an HTTP status code onto an error category.
func classifyStatusCode(statusCode int) errors.ErrorCategory {
	switch {
	case statusCode == 401 || statusCode == 403:
		return errors.CategoryProviderAuth
	case statusCode == 404:
		return errors.CategoryNotFound
	case statusCode == 429:
		return errors.CategoryLimit
	case statusCode >= 500:
		return errors.CategoryNetwork
	default:
		return errors.CategoryGeneric
	}
}
