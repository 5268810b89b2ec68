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

	"github.com/mkallio/gardenplan-go/internal/conf"
	"github.com/mkallio/gardenplan-go/internal/errors"
	"github.com/mkallio/gardenplan-go/internal/httpclient"
)

const (
	openPlantbookProviderName = "openplantbook"

	openPlantbookResponseTTL = 15 * time.Minute
)

// openPlantbookResponse is the wire shape of the OpenPlantbook alias search.
type openPlantbookResponse struct {
	Count   int `json:"count"`
	Results []struct {
		PID        string `json:"pid"`         // canonical plant id, usually the scientific name
		DisplayPID string `json:"display_pid"` // display form of the pid
		CommonName string `json:"common_name"`
		Category   string `json:"category"`
		Light      string `json:"light"`
		Water      string `json:"water"`
		Soil       string `json:"soil"`
		SpacingCM  int    `json:"spacing_cm"`
	} `json:"results"`
}

// OpenPlantbookProvider is the secondary remote species data source. It is
// consulted only after the primary provider fails or finds no match.
type OpenPlantbookProvider struct {
	settings conf.ProviderSettings
	client   *httpclient.Client
	cache    *gocache.Cache
	stats    providerStats
}

// NewOpenPlantbookProvider creates the secondary provider from its settings,
// sharing the given HTTP client. The API key is optional; anonymous requests
// are rate-limited harder by the service but allowed.
func NewOpenPlantbookProvider(settings conf.ProviderSettings, client *httpclient.Client) *OpenPlantbookProvider {
	if client == nil {
		client = httpclient.New(nil)
	}

	logger.Info("OpenPlantbook provider initialized",
		"endpoint", settings.Endpoint,
		"timeout_s", settings.Timeout,
		"max_retries", settings.MaxRetries,
		"api_key_configured", settings.APIKey != "")

	return &OpenPlantbookProvider{
		settings: settings,
		client:   client,
		cache:    gocache.New(openPlantbookResponseTTL, 2*openPlantbookResponseTTL),
	}
}

// Name implements Provider.
func (p *OpenPlantbookProvider) Name() string { return openPlantbookProviderName }

// GetMetrics returns a snapshot of this provider's lookup counters.
func (p *OpenPlantbookProvider) GetMetrics() ProviderMetrics { return p.stats.snapshot() }

// Lookup implements Provider.
func (p *OpenPlantbookProvider) Lookup(ctx context.Context, normalizedKey string) SourceResult {
	if cached, found := p.cache.Get(normalizedKey); found {
		if result, ok := cached.(SourceResult); ok {
			p.stats.recordCacheHit()
			logger.Debug("OpenPlantbook response cache hit", "key", normalizedKey)
			return result
		}
	}
	p.stats.recordCacheMiss()

	timeout := time.Duration(p.settings.Timeout) * time.Second
	result := lookupWithRetry(ctx, openPlantbookProviderName, p.settings.MaxRetries, func(ctx context.Context) SourceResult {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return p.doLookup(attemptCtx, normalizedKey)
	})

	if result.Status != StatusFailure {
		p.cache.Set(normalizedKey, result, gocache.DefaultExpiration)
	}

	return result
}

// doLookup performs one alias search request against the OpenPlantbook API.
func (p *OpenPlantbookProvider) doLookup(ctx context.Context, normalizedKey string) SourceResult {
	searchURL := fmt.Sprintf("%s/plant/search?alias=%s", p.settings.Endpoint, url.QueryEscape(normalizedKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, http.NoBody)
	if err != nil {
		return Failure(errors.Newf("failed to create request: %w", err).
			Component(openPlantbookProviderName).
			Category(errors.CategoryNetwork).
			Build())
	}
	req.Header.Set("Accept", "application/json")
	if p.settings.APIKey != "" {
		req.Header.Set("Authorization", "Token "+p.settings.APIKey)
	}

	start := time.Now()
	resp, err := p.client.Do(ctx, req)
	duration := time.Since(start)

	if err != nil {
		p.stats.recordCall(duration, true)
		category := errors.CategoryNetwork
		if ctx.Err() != nil {
			category = errors.CategoryTimeout
		}
		logger.Error("OpenPlantbook request failed", "key", normalizedKey, "error", err)
		return Failure(errors.Newf("OpenPlantbook request failed: %w", err).
			Component(openPlantbookProviderName).
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
		return Failure(errors.Newf("failed to read OpenPlantbook response: %w", err).
			Component(openPlantbookProviderName).
			Category(errors.CategoryNetwork).
			Context("status_code", resp.StatusCode).
			Build())
	}

	if resp.StatusCode >= 400 {
		p.stats.recordCall(duration, true)
		logger.Warn("OpenPlantbook error response",
			"status_code", resp.StatusCode,
			"key", normalizedKey)
		return Failure(errors.Newf("OpenPlantbook API error (status %d)", resp.StatusCode).
			Component(openPlantbookProviderName).
			Category(classifyStatusCode(resp.StatusCode)).
			Context("status_code", resp.StatusCode).
			Build())
	}

	var parsed openPlantbookResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		p.stats.recordCall(duration, true)
		logger.Error("Failed to parse OpenPlantbook response",
			"error", err,
			"response_size", len(body))
		return Failure(errors.Newf("failed to parse OpenPlantbook response: %w", err).
			Component(openPlantbookProviderName).
			Category(errors.CategoryFileParsing).
			Context("response_size", len(body)).
			Build())
	}

	p.stats.recordCall(duration, false)

	if parsed.Count == 0 || len(parsed.Results) == 0 {
		logger.Debug("OpenPlantbook returned no match", "key", normalizedKey)
		return NotFound()
	}

	best := parsed.Results[0]
	commonName := best.CommonName
	if commonName == "" {
		commonName = best.DisplayPID
	}

	record := SpeciesRecord{
		ID:             best.PID,
		CommonName:     titleCase(commonName),
		ScientificName: best.DisplayPID,
		PlantType:      ParsePlantType(best.Category),
		Requirements: GrowingRequirements{
			Light:     best.Light,
			Water:     best.Water,
			Soil:      best.Soil,
			SpacingCM: best.SpacingCM,
		},
	}

	logger.Debug("OpenPlantbook match",
		"key", normalizedKey,
		"pid", best.PID,
		"duration_ms", duration.Milliseconds())

	return Success(record)
}
