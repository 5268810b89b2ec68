package species

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkallio/gardenplan-go/internal/conf"
	"github.com/mkallio/gardenplan-go/internal/errors"
	"github.com/mkallio/gardenplan-go/internal/httpclient"
)

const floralisTestEndpoint = "https://api.floralis.test/v1"

func newFloralisForTest(t *testing.T) *FloralisProvider {
	t.Helper()

	client := httpclient.New(nil)
	httpmock.ActivateNonDefault(client.HTTPClient())
	t.Cleanup(httpmock.DeactivateAndReset)

	provider, err := NewFloralisProvider(conf.ProviderSettings{
		Enabled:    true,
		Endpoint:   floralisTestEndpoint,
		APIKey:     "test-key",
		Timeout:    5,
		MaxRetries: 1,
	}, client)
	require.NoError(t, err)
	return provider
}

func floralisMatchBody() string {
	return `{
		"results": [
			{
				"id": "flr-123",
				"common_name": "cherry tomato",
				"scientific_name": "Solanum lycopersicum var. cerasiforme",
				"category": "annual",
				"sunlight": "full sun",
				"watering": "frequent",
				"soil": "loam",
				"spacing_cm": 45,
				"score": 0.97
			},
			{
				"id": "flr-999",
				"common_name": "currant tomato",
				"scientific_name": "Solanum pimpinellifolium",
				"category": "annual",
				"score": 0.41
			}
		]
	}`
}

func TestFloralisProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewFloralisProvider(conf.ProviderSettings{Endpoint: floralisTestEndpoint}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestFloralisProvider_Lookup_Success(t *testing.T) {
	provider := newFloralisForTest(t)

	httpmock.RegisterResponder(http.MethodGet, `=~^https://api\.floralis\.test/v1/species/search`,
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "test-key", req.Header.Get("X-Api-Key"))
			assert.Equal(t, "cherry tomato", req.URL.Query().Get("q"))
			return httpmock.NewStringResponse(http.StatusOK, floralisMatchBody()), nil
		})

	result := provider.Lookup(context.Background(), "cherry tomato")

	require.Equal(t, StatusSuccess, result.Status)
	record := result.Record
	assert.Equal(t, "flr-123", record.ID)
	assert.Equal(t, "Cherry Tomato", record.CommonName, "common names are title-cased for display")
	assert.Equal(t, "Solanum lycopersicum var. cerasiforme", record.ScientificName)
	assert.Equal(t, PlantTypeAnnual, record.PlantType)
	assert.Equal(t, "full sun", record.Requirements.Light)
	assert.Equal(t, 45, record.Requirements.SpacingCM)
	assert.InDelta(t, 0.97, record.Confidence, 0.001)
}

func TestFloralisProvider_Lookup_NoMatch(t *testing.T) {
	provider := newFloralisForTest(t)

	httpmock.RegisterResponder(http.MethodGet, `=~^https://api\.floralis\.test/v1/species/search`,
		httpmock.NewStringResponder(http.StatusOK, `{"results": []}`))

	result := provider.Lookup(context.Background(), "plastic flamingo")

	assert.Equal(t, StatusNotFound, result.Status)
	assert.NoError(t, result.Err)
}

func TestFloralisProvider_Lookup_AuthFailureNotRetried(t *testing.T) {
	provider := newFloralisForTest(t)

	httpmock.RegisterResponder(http.MethodGet, `=~^https://api\.floralis\.test/v1/species/search`,
		httpmock.NewStringResponder(http.StatusUnauthorized, `{"title": "Unauthorized", "detail": "invalid API key"}`))

	result := provider.Lookup(context.Background(), "tomato")

	require.Equal(t, StatusFailure, result.Status)
	assert.True(t, errors.IsCategory(result.Err, errors.CategoryProviderAuth))
	assert.Equal(t, 1, httpmock.GetTotalCallCount(), "auth failures must not be retried")
}

func TestFloralisProvider_Lookup_ServerErrorRetriedOnce(t *testing.T) {
	provider := newFloralisForTest(t)

	httpmock.RegisterResponder(http.MethodGet, `=~^https://api\.floralis\.test/v1/species/search`,
		httpmock.NewStringResponder(http.StatusServiceUnavailable, `{"title": "unavailable"}`))

	result := provider.Lookup(context.Background(), "tomato")

	require.Equal(t, StatusFailure, result.Status)
	assert.True(t, errors.IsCategory(result.Err, errors.CategoryNetwork))
	assert.Equal(t, 2, httpmock.GetTotalCallCount(), "one initial attempt plus one retry")
}

func TestFloralisProvider_Lookup_MalformedResponse(t *testing.T) {
	provider := newFloralisForTest(t)

	httpmock.RegisterResponder(http.MethodGet, `=~^https://api\.floralis\.test/v1/species/search`,
		httpmock.NewStringResponder(http.StatusOK, `<html>definitely not json</html>`))

	result := provider.Lookup(context.Background(), "tomato")

	require.Equal(t, StatusFailure, result.Status)
	assert.True(t, errors.IsCategory(result.Err, errors.CategoryFileParsing))
	assert.Equal(t, 1, httpmock.GetTotalCallCount(), "parse failures are permanent")
}

func TestFloralisProvider_Lookup_ResponseCacheAvoidsRepeatRequests(t *testing.T) {
	provider := newFloralisForTest(t)

	httpmock.RegisterResponder(http.MethodGet, `=~^https://api\.floralis\.test/v1/species/search`,
		httpmock.NewStringResponder(http.StatusOK, floralisMatchBody()))

	first := provider.Lookup(context.Background(), "cherry tomato")
	second := provider.Lookup(context.Background(), "cherry tomato")

	require.Equal(t, StatusSuccess, first.Status)
	require.Equal(t, StatusSuccess, second.Status)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())

	metrics := provider.GetMetrics()
	assert.Equal(t, int64(1), metrics.APICalls)
	assert.Equal(t, int64(1), metrics.CacheHits)
}

func TestFloralisProvider_Lookup_NotFoundIsCached(t *testing.T) {
	provider := newFloralisForTest(t)

	httpmock.RegisterResponder(http.MethodGet, `=~^https://api\.floralis\.test/v1/species/search`,
		httpmock.NewStringResponder(http.StatusOK, `{"results": []}`))

	first := provider.Lookup(context.Background(), "plastic flamingo")
	second := provider.Lookup(context.Background(), "plastic flamingo")

	assert.Equal(t, StatusNotFound, first.Status)
	assert.Equal(t, StatusNotFound, second.Status)
	assert.Equal(t, 1, httpmock.GetTotalCallCount(), "misses are reused within the response TTL")
}
