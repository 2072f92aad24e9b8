package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/jo-hoe/digit-collector/internal/storage"
)

// Defaults cover running the collector without a config file: a local
// dataset directory next to the binary, on the port the collection tool
// expects.
const (
	DefaultPort             = 5001
	DefaultStorageDirectory = "dataset"
)

type ServiceConfig struct {
	Port    int            `yaml:"port"`
	Storage storage.Config `yaml:"storage"`
}

// LoadConfig loads configuration from the specified YAML file. A missing file
// is not an error and yields the defaults. The PORT environment variable,
// set by most deployment platforms, takes precedence over the configured
// port.
func LoadConfig(configPath string) (*ServiceConfig, error) {
	config := &ServiceConfig{
		Port: DefaultPort,
		Storage: storage.Config{
			Type:      storage.TypeFilesystem,
			Directory: DefaultStorageDirectory,
		},
	}

	// Read the config file
	data, err := os.ReadFile(configPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	// Parse YAML; keys absent from the file keep their defaults
	if err == nil {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	}

	if err := applyPortOverride(config); err != nil {
		return nil, err
	}

	// Validate storage selection
	if err := validateStorage(&config.Storage); err != nil {
		return nil, fmt.Errorf("invalid storage configuration: %w", err)
	}

	return config, nil
}

// applyPortOverride honors the PORT environment variable when it is set.
func applyPortOverride(config *ServiceConfig) error {
	portValue := os.Getenv("PORT")
	if portValue == "" {
		return nil
	}

	port, err := strconv.Atoi(portValue)
	if err != nil {
		return fmt.Errorf("invalid PORT value %q: %w", portValue, err)
	}
	config.Port = port
	return nil
}

// validateStorage ensures the configured backend names a known variant before
// any store construction is attempted.
func validateStorage(storageConfig *storage.Config) error {
	switch storageConfig.Type {
	case storage.TypeFilesystem, storage.TypeS3, storage.TypeSQLite:
		return nil
	default:
		return fmt.Errorf("unknown storage type: %s", storageConfig.Type)
	}
}
