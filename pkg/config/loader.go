package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, DATENBLICK_CONFIG env, ./config.yaml, /etc/datenblick/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. DATENBLICK_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/datenblick/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("DATENBLICK_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/datenblick/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps DATENBLICK_* environment variables to config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATENBLICK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DATENBLICK_BACKEND_URL"); v != "" {
		cfg.Completion.BackendURL = v
	}
	if v := os.Getenv("DATENBLICK_API_KEY"); v != "" {
		cfg.Completion.APIKey = v
	}
	if v := os.Getenv("DATENBLICK_MODEL"); v != "" {
		cfg.Completion.DefaultModel = v
	}
	if v := os.Getenv("DATENBLICK_SANDBOX_MODE"); v != "" {
		cfg.Sandbox.Mode = v
	}
	if v := os.Getenv("DATENBLICK_SANDBOX_URL"); v != "" {
		cfg.Sandbox.URL = v
	}
	if v := os.Getenv("DATENBLICK_SANDBOX_API_KEY"); v != "" {
		cfg.Sandbox.APIKey = v
	}
	if v := os.Getenv("DATENBLICK_SANDBOX_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sandbox.Timeout = d
		}
	}
	if v := os.Getenv("DATENBLICK_SANDBOX_TEMPLATE"); v != "" {
		cfg.Sandbox.Kubernetes.Template = v
	}
	if v := os.Getenv("DATENBLICK_SANDBOX_NAMESPACE"); v != "" {
		cfg.Sandbox.Kubernetes.Namespace = v
	}
	if v := os.Getenv("DATENBLICK_AUTH_TYPE"); v != "" {
		cfg.Auth.Type = v
	}
	if v := os.Getenv("DATENBLICK_JWT_SECRET"); v != "" {
		cfg.Auth.JWT.Secret = v
	}

	// DATENBLICK_API_KEYS: JSON array of API key configs.
	if v := os.Getenv("DATENBLICK_API_KEYS"); v != "" {
		keys, err := parseAPIKeysJSON(v)
		if err == nil && len(keys) > 0 {
			cfg.Auth.APIKeys = keys
		}
	}
}

// parseAPIKeysJSON parses a JSON array of API key configurations.
func parseAPIKeysJSON(jsonStr string) ([]APIKeyConfig, error) {
	var keys []APIKeyConfig
	if err := json.Unmarshal([]byte(jsonStr), &keys); err != nil {
		return nil, fmt.Errorf("parsing API keys JSON: %w", err)
	}
	return keys, nil
}

// resolveFileReferences reads _file fields and populates the corresponding
// value fields. For each field ending in _file, if the value field is empty
// and the file field is set, the file is read, whitespace is trimmed, and
// the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// completion.api_key_file -> completion.api_key
	if cfg.Completion.APIKeyFile != "" && cfg.Completion.APIKey == "" {
		val, err := readSecretFile(cfg.Completion.APIKeyFile)
		if err != nil {
			return fmt.Errorf("completion.api_key_file: %w", err)
		}
		cfg.Completion.APIKey = val
	}

	// sandbox.api_key_file -> sandbox.api_key
	if cfg.Sandbox.APIKeyFile != "" && cfg.Sandbox.APIKey == "" {
		val, err := readSecretFile(cfg.Sandbox.APIKeyFile)
		if err != nil {
			return fmt.Errorf("sandbox.api_key_file: %w", err)
		}
		cfg.Sandbox.APIKey = val
	}

	// auth.jwt.secret_file -> auth.jwt.secret
	if cfg.Auth.JWT.SecretFile != "" && cfg.Auth.JWT.Secret == "" {
		val, err := readSecretFile(cfg.Auth.JWT.SecretFile)
		if err != nil {
			return fmt.Errorf("auth.jwt.secret_file: %w", err)
		}
		cfg.Auth.JWT.Secret = val
	}

	// auth.api_keys[*].key_file -> auth.api_keys[*].key
	for i := range cfg.Auth.APIKeys {
		if cfg.Auth.APIKeys[i].KeyFile != "" && cfg.Auth.APIKeys[i].Key == "" {
			val, err := readSecretFile(cfg.Auth.APIKeys[i].KeyFile)
			if err != nil {
				return fmt.Errorf("auth.api_keys[%d].key_file: %w", i, err)
			}
			cfg.Auth.APIKeys[i].Key = val
		}
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
