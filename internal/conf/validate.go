package conf

import (
	"fmt"
	"net/url"
)

// ValidateSettings checks the loaded settings for obvious misconfiguration.
// It returns an error describing the first problem found.
func ValidateSettings(settings *Settings) error {
	if err := validateProvider("floralis", &settings.Species.Floralis); err != nil {
		return err
	}
	if err := validateProvider("openplantbook", &settings.Species.OpenPlantbook); err != nil {
		return err
	}

	if settings.Species.CacheTTL <= 0 {
		return fmt.Errorf("species.cachettl must be positive, got %d", settings.Species.CacheTTL)
	}

	if settings.Output.SQLite.Enabled && settings.Output.SQLite.Path == "" {
		return fmt.Errorf("output.sqlite.path must be set when the SQLite store is enabled")
	}

	return nil
}

func validateProvider(name string, p *ProviderSettings) error {
	if !p.Enabled {
		return nil
	}
	if p.Endpoint == "" {
		return fmt.Errorf("species.%s.endpoint must be set when the provider is enabled", name)
	}
	if _, err := url.ParseRequestURI(p.Endpoint); err != nil {
		return fmt.Errorf("species.%s.endpoint is not a valid URL: %w", name, err)
	}
	if p.Timeout <= 0 {
		return fmt.Errorf("species.%s.timeout must be positive, got %d", name, p.Timeout)
	}
	if p.MaxRetries < 0 {
		return fmt.Errorf("species.%s.maxretries must not be negative, got %d", name, p.MaxRetries)
	}
	return nil
}
