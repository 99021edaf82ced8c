package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	// completion.backend_url is required.
	if c.Completion.BackendURL == "" {
		errs = append(errs, fmt.Errorf("completion.backend_url is required"))
	}

	// completion.default_model is required: requests may omit the model.
	if c.Completion.DefaultModel == "" {
		errs = append(errs, fmt.Errorf("completion.default_model is required"))
	}

	// server.port must be positive.
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	if c.Server.MaxDatasetBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_dataset_bytes must be > 0, got %d", c.Server.MaxDatasetBytes))
	}

	// sandbox.mode must be a known value.
	switch c.Sandbox.Mode {
	case "static":
		if c.Sandbox.URL == "" {
			errs = append(errs, fmt.Errorf("sandbox.url is required when sandbox.mode is \"static\""))
		}
	case "kubernetes":
		if c.Sandbox.Kubernetes.Template == "" {
			errs = append(errs, fmt.Errorf("sandbox.kubernetes.template is required when sandbox.mode is \"kubernetes\""))
		}
	default:
		errs = append(errs, fmt.Errorf("sandbox.mode must be \"static\" or \"kubernetes\", got %q", c.Sandbox.Mode))
	}

	// auth.type must be a known value.
	switch c.Auth.Type {
	case "none", "apikey", "jwt":
		// valid
	default:
		errs = append(errs, fmt.Errorf("auth.type must be \"none\", \"apikey\", or \"jwt\", got %q", c.Auth.Type))
	}

	if c.Auth.Type == "apikey" && len(c.Auth.APIKeys) == 0 {
		errs = append(errs, fmt.Errorf("auth.api_keys must not be empty when auth.type is \"apikey\""))
	}

	if c.Auth.Type == "jwt" && c.Auth.JWT.Secret == "" && c.Auth.JWT.SecretFile == "" {
		errs = append(errs, fmt.Errorf("auth.jwt.secret or auth.jwt.secret_file is required when auth.type is \"jwt\""))
	}

	return errors.Join(errs...)
}
