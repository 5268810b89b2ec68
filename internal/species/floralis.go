package species

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mkallio/gardenplan-go/internal/conf"
	"github.com/mkallio/gardenplan-go/internal/errors"
	"github.com/mkallio/gardenplan-go/internal/httpclient"
)

const (
	floralisProviderName = "floralis"

	// floralisResponseTTL bounds how long a raw provider response is reused
	// without a new request. Kept short; the durable cache is the real cache.
	floralisResponseTTL = 15 * time.Minute
)

// floralisSearchResponse is the wire shape of the Floralis species search API.
type floralisSearchResponse struct {
	Results []struct {
		ID             string  `json:"id"`
		CommonName     string  `json:"common_name"`
		ScientificName string  `json:"scientific_name"`
		Category       string  `json:"category"`
		Sunlight       string  `json:"sunlight"`
		Watering       string  `json:"watering"`
		Soil           string  `json:"soil"`
		SpacingCM      int     `json:"spacing_cm"`
		Score          float64 `json:"score"`
	} `json:"results"`
}

// floralisError is the structured error body Floralis returns on failures.
type floralisError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// FloralisProvider is the primary remote species data source. It requires an
// API key and returns scored matches for a species query.
type FloralisProvider struct {
	settings conf.ProviderSettings
	client   *httpclient.Client
	cache    *gocache.Cache
	stats    providerStats
}

// NewFloralisProvider creates the primary provider from its settings,
// sharing the given HTTP client.
func NewFloralisProvider(settings conf.ProviderSettings, client *httpclient.Client) (*FloralisProvider, error) {
	if settings.APIKey == "" {
		return nil, errors.Newf("Floralis API key is required").
			Category(errors.CategoryConfiguration).
			Component(floralisProviderName).
			Build()
	}
	if client == nil {
		client = httpclient.New(nil)
	}

	p := &FloralisProvider{
		settings: settings,
		client:   client,
		cache:    gocache.New(floralisResponseTTL, 2*floralisResponseTTL),
	}

	logger.Info("Floralis provider initialized",
		"endpoint", settings.Endpoint,
		"timeout_s", settings.Timeout,
		"max_retries", settings.MaxRetries,
		"api_key_configured", settings.APIKey != "")

	return p, nil
}

// Name implements Provider.
func (p *FloralisProvider) Name() string { return floralisProviderName }

// GetMetrics returns a snapshot of this provider's lookup counters.
func (p *FloralisProvider) GetMetrics() ProviderMetrics { return p.stats.snapshot() }

// Lookup implements Provider. One HTTP request per attempt, one bounded
// retry on transient errors.
func (p *FloralisProvider) Lookup(ctx context.Context, normalizedKey string) SourceResult {
	if cached, found := p.cache.Get(normalizedKey); found {
		if result, ok := cached.(SourceResult); ok {
			p.stats.recordCacheHit()
			logger.Debug("Floralis response cache hit", "key", normalizedKey)
			return result
		}
	}
	p.stats.recordCacheMiss()

	timeout := time.Duration(p.settings.Timeout) * time.Second
	result := lookupWithRetry(ctx, floralisProviderName, p.settings.MaxRetries, func(ctx context.Context) SourceResult {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return p.doLookup(attemptCtx, normalizedKey)
	})

	// Reusing NotFound avoids hammering the provider for the same unknown
	// query; failures are never cached.
	if result.Status != StatusFailure {
		p.cache.Set(normalizedKey, result, gocache.DefaultExpiration)
	}

	return result
}

// doLookup performs one search request against the Floralis API.
func (p *FloralisProvider) doLookup(ctx context.Context, normalizedKey string) SourceResult {
	searchURL := fmt.Sprintf("%s/species/search?q=%s", p.settings.Endpoint, url.QueryEscape(normalizedKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, http.NoBody)
	if err != nil {
		return Failure(errors.Newf("failed to create request: %w", err).
			Component(floralisProviderName).
			Category(errors.CategoryNetwork).
			Build())
	}
	req.Header.Set("X-Api-Key", p.settings.APIKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := p.client.Do(ctx, req)
	duration := time.Since(start)

	if err != nil {
		p.stats.recordCall(duration, true)
		category := errors.CategoryNetwork
		if ctx.Err() != nil {
			category = errors.CategoryTimeout
		}
		logger.Error("Floralis request failed", "key", normalizedKey, "error", err)
		return Failure(errors.Newf("Floralis request failed: %w", err).
			Component(floralisProviderName).
			Category(category).
			NetworkContext(searchURL, duration).
			Build())
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Debug("Failed to close response body", "error", closeErr)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.stats.recordCall(duration, true)
		return Failure(errors.Newf("failed to read Floralis response: %w", err).
			Component(floralisProviderName).
			Category(errors.CategoryNetwork).
			Context("status_code", resp.StatusCode).
			Build())
	}

	if resp.StatusCode >= 400 {
		p.stats.recordCall(duration, true)

		var apiErr floralisError
		detail := string(body)
		if unmarshalErr := json.Unmarshal(body, &apiErr); unmarshalErr == nil && apiErr.Detail != "" {
			detail = apiErr.Detail
		}

		if resp.StatusCode == 401 || resp.StatusCode == 403 {
			logger.Error("Floralis authentication failed",
				"status_code", resp.StatusCode,
				"detail", detail,
				"api_key_configured", p.settings.APIKey != "")
		} else {
			logger.Warn("Floralis error response",
				"status_code", resp.StatusCode,
				"detail", detail)
		}

		return Failure(errors.Newf("Floralis API error (status %d): %s", resp.StatusCode, detail).
			Component(floralisProviderName).
			Category(classifyStatusCode(resp.StatusCode)).
			Context("status_code", resp.StatusCode).
			Build())
	}

	var parsed floralisSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		p.stats.recordCall(duration, true)
		logger.Error("Failed to parse Floralis response",
			"error", err,
			"response_size", len(body))
		return Failure(errors.Newf("failed to parse Floralis response: %w", err).
			Component(floralisProviderName).
			Category(errors.CategoryFileParsing).
			Context("response_size", len(body)).
			Build())
	}

	p.stats.recordCall(duration, false)

	if len(parsed.Results) == 0 {
		logger.Debug("Floralis returned no match", "key", normalizedKey)
		return NotFound()
	}

	best := parsed.Results[0]
	record := SpeciesRecord{
		ID:             best.ID,
		CommonName:     titleCase(best.CommonName),
		ScientificName: best.ScientificName,
		PlantType:      ParsePlantType(best.Category),
		Requirements: GrowingRequirements{
			Light:     best.Sunlight,
			Water:     best.Watering,
			Soil:      best.Soil,
			SpacingCM: best.SpacingCM,
		},
		Confidence: best.Score,
	}

	logger.Debug("Floralis match",
		"key", normalizedKey,
		"common_name", record.CommonName,
		"scientific_name", record.ScientificName,
		"score", best.Score,
		"duration_ms", duration.Milliseconds())

	return Success(record)
}

// titleCase renders a provider-supplied common name in display form.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}
