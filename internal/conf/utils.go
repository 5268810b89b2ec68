package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// GetDefaultConfigPaths returns a list of directories to search for the
// config file, in priority order: current directory first, then the
// OS-specific user config directory.
func GetDefaultConfigPaths() ([]string, error) {
	var configPaths []string

	configPaths = append(configPaths, ".")

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user home directory: %w", err)
	}

	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			configPaths = append(configPaths, filepath.Join(appData, "gardenplan"))
		}
	default:
		configPaths = append(configPaths, filepath.Join(homeDir, ".config", "gardenplan"))
	}

	return configPaths, nil
}

// GetBasePath expands a relative path against the directory holding the
// config file, creating the directory if it does not exist.
func GetBasePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	basePath := "."
	if paths, err := GetDefaultConfigPaths(); err == nil && len(paths) > 0 {
		basePath = paths[0]
	}

	fullPath := filepath.Join(basePath, path)
	if err := os.MkdirAll(fullPath, 0o755); err != nil {
		return path
	}
	return fullPath
}
