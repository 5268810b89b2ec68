package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	s := &Settings{}
	s.Species.CacheTTL = 336
	s.Species.Floralis = ProviderSettings{
		Enabled:    true,
		Endpoint:   "https://api.floralis.org/v1",
		APIKey:     "key",
		Timeout:    10,
		MaxRetries: 1,
	}
	s.Species.OpenPlantbook = ProviderSettings{
		Enabled:    true,
		Endpoint:   "https://open.plantbook.io/api/v1",
		Timeout:    10,
		MaxRetries: 1,
	}
	s.Output.SQLite.Enabled = true
	s.Output.SQLite.Path = "gardenplan.db"
	return s
}

func TestValidateSettings_Valid(t *testing.T) {
	assert.NoError(t, ValidateSettings(validSettings()))
}

func TestValidateSettings_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantMsg string
	}{
		{
			"non-positive cache ttl",
			func(s *Settings) { s.Species.CacheTTL = 0 },
			"cachettl",
		},
		{
			"enabled provider without endpoint",
			func(s *Settings) { s.Species.Floralis.Endpoint = "" },
			"floralis.endpoint",
		},
		{
			"invalid endpoint url",
			func(s *Settings) { s.Species.OpenPlantbook.Endpoint = "not a url" },
			"openplantbook.endpoint",
		},
		{
			"non-positive timeout",
			func(s *Settings) { s.Species.Floralis.Timeout = 0 },
			"floralis.timeout",
		},
		{
			"negative retries",
			func(s *Settings) { s.Species.OpenPlantbook.MaxRetries = -1 },
			"maxretries",
		},
		{
			"sqlite enabled without path",
			func(s *Settings) { s.Output.SQLite.Path = "" },
			"output.sqlite.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(s)
			err := ValidateSettings(s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidateSettings_DisabledProviderSkipsChecks(t *testing.T) {
	s := validSettings()
	s.Species.Floralis = ProviderSettings{Enabled: false}

	assert.NoError(t, ValidateSettings(s))
}
