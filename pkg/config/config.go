// Package config provides unified configuration for the datenblick service.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (DATENBLICK_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the datenblick service.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Completion    CompletionConfig    `yaml:"completion"`
	Sandbox       SandboxConfig       `yaml:"sandbox"`
	Auth          AuthConfig          `yaml:"auth"`
	Observability ObservabilityConfig `yaml:"observability"`
	Debug         DebugConfig         `yaml:"debug"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`          // default: 8080
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"` // default: 300s
	// MaxDatasetBytes bounds the accepted upload size. Default: 32 MiB.
	MaxDatasetBytes int64 `yaml:"max_dataset_bytes"`
}

// CompletionConfig holds Chat-Completions backend settings.
type CompletionConfig struct {
	BackendURL   string        `yaml:"backend_url"`   // required
	APIKey       string        `yaml:"api_key"`       // optional
	APIKeyFile   string        `yaml:"api_key_file"`  // _file variant for api_key
	DefaultModel string        `yaml:"default_model"` // required
	Timeout      time.Duration `yaml:"timeout"`       // default: 120s
}

// SandboxConfig holds interpreter sandbox settings.
type SandboxConfig struct {
	// Mode selects how sessions are provisioned: "static" opens sessions
	// against a fixed service URL, "kubernetes" provisions one sandbox
	// pod per turn.
	Mode       string           `yaml:"mode"` // "static" or "kubernetes", default: "static"
	URL        string           `yaml:"url"`  // required for mode=static
	APIKey     string           `yaml:"api_key"`
	APIKeyFile string           `yaml:"api_key_file"` // _file variant for api_key
	Timeout    time.Duration    `yaml:"timeout"`      // default: 120s
	Kubernetes KubernetesConfig `yaml:"kubernetes"`
}

// KubernetesConfig holds per-turn sandbox pod settings.
type KubernetesConfig struct {
	Template     string        `yaml:"template"`      // SandboxTemplate name, required for mode=kubernetes
	Namespace    string        `yaml:"namespace"`     // default: "default"
	ClaimTimeout time.Duration `yaml:"claim_timeout"` // default: 30s
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	Type    string         `yaml:"type"`     // "none", "apikey", or "jwt", default: "none"
	APIKeys []APIKeyConfig `yaml:"api_keys"` // API key entries for type=apikey
	JWT     JWTConfig      `yaml:"jwt"`      // settings for type=jwt
}

// APIKeyConfig describes a single API key entry.
type APIKeyConfig struct {
	Key     string `yaml:"key"`
	KeyFile string `yaml:"key_file"` // _file variant for key
	Subject string `yaml:"subject"`
}

// JWTConfig holds shared-secret JWT validation settings.
type JWTConfig struct {
	Secret     string `yaml:"secret"`
	SecretFile string `yaml:"secret_file"` // _file variant for secret
	Issuer     string `yaml:"issuer"`      // optional expected issuer
	Audience   string `yaml:"audience"`    // optional expected audience
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// DebugConfig holds debug logging settings.
type DebugConfig struct {
	Categories string `yaml:"categories"` // comma-separated, e.g. "engine,sandbox"
	LogLevel   string `yaml:"log_level"`  // ERROR, WARN, INFO, DEBUG, TRACE
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    300 * time.Second,
			MaxDatasetBytes: 32 << 20,
		},
		Completion: CompletionConfig{
			Timeout: 120 * time.Second,
		},
		Sandbox: SandboxConfig{
			Mode:    "static",
			Timeout: 120 * time.Second,
			Kubernetes: KubernetesConfig{
				Namespace:    "default",
				ClaimTimeout: 30 * time.Second,
			},
		},
		Auth: AuthConfig{
			Type: "none",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
