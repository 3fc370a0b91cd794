package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file configuration.
const (
	EnvAddress     = "BULLETVERSE_ADDRESS"
	EnvHTTPAddress = "BULLETVERSE_HTTP_ADDRESS"
	EnvDBPath      = "BULLETVERSE_DB"
	EnvDifficulty  = "BULLETVERSE_DIFFICULTY"
)

// Load loads the server configuration and applies environment overrides.
// Search order: customPath -> ~/.bulletverse/config.yaml -> ./configs/bulletverse.yaml -> embedded default
// Values missing from a file keep their defaults.
func Load(customPath string) (Config, error) {
	cfg, err := loadFile(customPath)
	if err != nil {
		return cfg, err
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(customPath string) (Config, error) {
	cfg := Default()

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("config: failed to read %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: failed to parse %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath("config.yaml"); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if err := yaml.Unmarshal(data, &cfg); err == nil {
				return cfg, nil
			}
			cfg = Default()
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile("configs/bulletverse.yaml"); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err == nil {
			return cfg, nil
		}
		cfg = Default()
	}

	// Use embedded default YAML
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		return Default(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".bulletverse", filename)
}

// LoadDotEnv reads KEY=VALUE pairs from path into the process environment.
// Variables already set are left alone; a missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with any BULLETVERSE_* variables present.
func ApplyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv(EnvAddress); ok {
		cfg.Server.Address = v
	}
	if v, ok := os.LookupEnv(EnvHTTPAddress); ok {
		cfg.Server.HTTPAddress = v
	}
	if v, ok := os.LookupEnv(EnvDBPath); ok {
		cfg.Storage.DBPath = v
	}
	if v, ok := os.LookupEnv(EnvDifficulty); ok {
		preset, err := ParseDifficulty(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvDifficulty, err)
		}
		cfg.Difficulty.Default = preset
	}
	return nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("config: failed to encode: %w", err)
	}
	return data, nil
}
