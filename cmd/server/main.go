// Command server runs the datenblick analysis service.
//
// Configuration is layered: built-in defaults, a YAML config file
// (./config.yaml, /etc/datenblick/config.yaml, or DATENBLICK_CONFIG),
// then DATENBLICK_* environment overrides. The most common variables:
//
//	DATENBLICK_BACKEND_URL   - Chat Completions backend URL (required)
//	DATENBLICK_MODEL         - Default model name (required)
//	DATENBLICK_SANDBOX_URL   - Sandbox service URL (required for static mode)
//	DATENBLICK_SANDBOX_MODE  - "static" or "kubernetes" (default: static)
//	DATENBLICK_PORT          - Listen port (default: 8080)
//	DATENBLICK_AUTH_TYPE     - "none", "apikey", or "jwt" (default: none)
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"sigs.k8s.io/controller-runtime/pkg/client"
	ctrlconfig "sigs.k8s.io/controller-runtime/pkg/client/config"

	"github.com/datenblick/datenblick/pkg/auth"
	"github.com/datenblick/datenblick/pkg/auth/apikey"
	"github.com/datenblick/datenblick/pkg/auth/jwt"
	"github.com/datenblick/datenblick/pkg/completion"
	"github.com/datenblick/datenblick/pkg/config"
	"github.com/datenblick/datenblick/pkg/debug"
	"github.com/datenblick/datenblick/pkg/engine"
	"github.com/datenblick/datenblick/pkg/observability"
	"github.com/datenblick/datenblick/pkg/sandbox"
	"github.com/datenblick/datenblick/pkg/sandbox/kubernetes"
	"github.com/datenblick/datenblick/pkg/transport"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	debug.Init(cfg.Debug.Categories, cfg.Debug.LogLevel)
	if cats := debug.Categories(); len(cats) > 0 {
		slog.Info("debug logging enabled", "categories", cats)
	}

	// Completion backend.
	completionClient := completion.NewClient(cfg.Completion.BackendURL, cfg.Completion.APIKey, cfg.Completion.Timeout)
	defer completionClient.Close()

	// Sandbox session source.
	acquirer, cleanup, err := buildAcquirer(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	eng, err := engine.New(completionClient, acquirer, engine.Config{
		DefaultModel: cfg.Completion.DefaultModel,
	})
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}

	// HTTP surface.
	handler := transport.NewHandler(eng, completionClient, cfg.Server.MaxDatasetBytes)
	mux := handler.Routes()
	if cfg.Observability.Metrics.Enabled {
		mux.Handle("GET "+cfg.Observability.Metrics.Path, promhttp.Handler())
	}

	chain, err := buildAuthChain(cfg)
	if err != nil {
		return err
	}

	wrapped := transport.Chain(
		transport.Recovery(),
		transport.RequestID(),
		transport.Logging(slog.Default()),
		observability.MetricsMiddleware,
		auth.Middleware(chain, auth.DefaultBypassEndpoints),
	)(mux)

	srv := transport.NewServer(wrapped,
		transport.WithAddr(fmt.Sprintf(":%d", cfg.Server.Port)),
		transport.WithReadTimeout(cfg.Server.ReadTimeout),
		transport.WithWriteTimeout(cfg.Server.WriteTimeout),
	)

	slog.Info("starting datenblick",
		"port", cfg.Server.Port,
		"backend", cfg.Completion.BackendURL,
		"model", cfg.Completion.DefaultModel,
		"sandbox_mode", cfg.Sandbox.Mode,
		"auth", cfg.Auth.Type,
	)
	return srv.ListenAndServe()
}

// buildAcquirer constructs the session acquirer for the configured sandbox
// mode. The returned cleanup releases client resources.
func buildAcquirer(cfg *config.Config) (sandbox.Acquirer, func(), error) {
	switch cfg.Sandbox.Mode {
	case "static":
		sbClient := sandbox.NewClient(cfg.Sandbox.URL, cfg.Sandbox.APIKey, cfg.Sandbox.Timeout)
		return sandbox.NewStaticAcquirer(sbClient), func() { sbClient.Close() }, nil

	case "kubernetes":
		restCfg, err := ctrlconfig.GetConfig()
		if err != nil {
			return nil, nil, fmt.Errorf("loading kubernetes config: %w", err)
		}
		scheme, err := kubernetes.NewScheme()
		if err != nil {
			return nil, nil, fmt.Errorf("building kubernetes scheme: %w", err)
		}
		kubeClient, err := client.New(restCfg, client.Options{Scheme: scheme})
		if err != nil {
			return nil, nil, fmt.Errorf("creating kubernetes client: %w", err)
		}
		acq := kubernetes.NewClaimAcquirer(kubeClient, kubernetes.Config{
			Template:       cfg.Sandbox.Kubernetes.Template,
			Namespace:      cfg.Sandbox.Kubernetes.Namespace,
			ClaimTimeout:   cfg.Sandbox.Kubernetes.ClaimTimeout,
			SessionTimeout: cfg.Sandbox.Timeout,
		})
		return acq, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown sandbox mode %q", cfg.Sandbox.Mode)
	}
}

// buildAuthChain constructs the authenticator chain for the configured
// auth type. Type "none" accepts everything (development default).
func buildAuthChain(cfg *config.Config) (*auth.AuthChain, error) {
	switch cfg.Auth.Type {
	case "none":
		return &auth.AuthChain{DefaultDecision: auth.Yes}, nil

	case "apikey":
		entries := make([]apikey.RawKeyEntry, 0, len(cfg.Auth.APIKeys))
		for _, k := range cfg.Auth.APIKeys {
			entries = append(entries, apikey.RawKeyEntry{
				Key:      k.Key,
				Identity: auth.Identity{Subject: k.Subject},
			})
		}
		return &auth.AuthChain{
			Authenticators:  []auth.Authenticator{apikey.New(entries)},
			DefaultDecision: auth.No,
		}, nil

	case "jwt":
		authn := jwt.New(jwt.Config{
			Secret:   cfg.Auth.JWT.Secret,
			Issuer:   cfg.Auth.JWT.Issuer,
			Audience: cfg.Auth.JWT.Audience,
		})
		return &auth.AuthChain{
			Authenticators:  []auth.Authenticator{authn},
			DefaultDecision: auth.No,
		}, nil

	default:
		return nil, fmt.Errorf("unknown auth type %q", cfg.Auth.Type)
	}
}
