// config.go: settings for the GardenPlan application. Defines the settings
// struct and functions to load and access the settings.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

//go:embed config.yaml
var configFiles embed.FS

// LogRotationType defines the type of log rotation
type LogRotationType string

const (
	RotationDaily  LogRotationType = "daily"
	RotationWeekly LogRotationType = "weekly"
	RotationSize   LogRotationType = "size"
)

// LogConfig defines the configuration for a log file
type LogConfig struct {
	Enabled  bool            // true to enable this log
	Path     string          // path to log file
	Rotation LogRotationType // log rotation type
	MaxSize  int64           // max size in bytes for RotationSize
}

// MainSettings contains main application settings
type MainSettings struct {
	Name string    // name of the node running the application
	Log  LogConfig // main log configuration
}

// ProviderSettings contains settings for one remote species data provider
type ProviderSettings struct {
	Enabled    bool   // true to enable this provider
	Endpoint   string // base URL of the provider API
	APIKey     string // API key, if the provider requires one
	Timeout    int    // per-lookup timeout in seconds
	MaxRetries int    // extra attempts on transient failures
}

// SpeciesSettings contains settings for the species resolution service
type SpeciesSettings struct {
	Debug             bool             // true to enable debug logging
	CacheTTL          int              // cache entry time-to-live in hours
	BackgroundRefresh bool             // true to refresh stale cache entries in the background
	Floralis          ProviderSettings // primary provider
	OpenPlantbook     ProviderSettings // secondary provider
}

// OutputSettings contains settings for the persistent stores
type OutputSettings struct {
	SQLite struct {
		Enabled bool   // true to enable the SQLite cache store
		Path    string // path to the SQLite database file
	}
}

// Settings contains all application settings
type Settings struct {
	Debug   bool   // true to enable debug behavior globally
	Version string // application version, set at build time

	Main    MainSettings
	Species SpeciesSettings
	Output  OutputSettings
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration into a new Settings instance and stores it
// as the package-level instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create config with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the embedded default config to the first default
// config path and re-reads it.
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(getDefaultConfig()), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading embedded config file: %v", err)
	}
	return string(data)
}

// SaveSettings writes the settings as YAML to the given path. The write is
// atomic: a temp file in the same directory is renamed over the target.
func SaveSettings(settings *Settings, configPath string) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temp config file: %w", err)
	}
	tmpName := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("error writing temp config file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("error closing temp config file: %w", err)
	}

	if err := os.Rename(tmpName, configPath); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("error replacing config file: %w", err)
	}
	return nil
}

// DumpYAML renders the settings as YAML for display.
func DumpYAML(settings *Settings) (string, error) {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return "", fmt.Errorf("error marshaling settings to YAML: %w", err)
	}
	return string(data), nil
}

// Setting returns the current settings instance, loading it on first use.
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}

// GetSettings returns the current settings instance without loading.
// Returns nil if Load has not been called.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SetSettings replaces the current settings instance. Intended for tests.
func SetSettings(s *Settings) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()
	settingsInstance = s
}
