// Package kubernetes provides a sandbox.Acquirer that provisions a dedicated
// interpreter pod per analysis turn through agent-sandbox SandboxClaim CRDs.
//
// Each Acquire creates a SandboxClaim, waits for the bound Sandbox to become
// ready, and opens a session against the pod's sandbox service. Closing the
// session deletes the claim, so the pod's lifetime matches the turn's.
package kubernetes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	sandboxv1alpha1 "sigs.k8s.io/agent-sandbox/api/v1alpha1"
	extensionsv1alpha1 "sigs.k8s.io/agent-sandbox/extensions/api/v1alpha1"

	"github.com/datenblick/datenblick/pkg/sandbox"
)

// Ensure ClaimAcquirer implements sandbox.Acquirer.
var _ sandbox.Acquirer = (*ClaimAcquirer)(nil)

// Config holds the ClaimAcquirer settings.
type Config struct {
	// Template is the SandboxTemplate CRD name to claim from.
	Template string

	// Namespace is the Kubernetes namespace for SandboxClaims.
	Namespace string

	// ClaimTimeout bounds how long to wait for a claimed Sandbox to
	// become ready. Default: 30s.
	ClaimTimeout time.Duration

	// SessionTimeout is the HTTP timeout for the per-pod sandbox client.
	SessionTimeout time.Duration
}

// ClaimAcquirer provisions one sandbox pod per session via SandboxClaims.
type ClaimAcquirer struct {
	kube client.Client
	cfg  Config

	// openSession opens a session against a ready pod. Replaceable in
	// tests where no real pod answers at the service FQDN.
	openSession func(ctx context.Context, baseURL string) (*sandbox.Session, error)
}

// NewClaimAcquirer creates a ClaimAcquirer using the given Kubernetes client.
func NewClaimAcquirer(c client.Client, cfg Config) *ClaimAcquirer {
	if cfg.ClaimTimeout == 0 {
		cfg.ClaimTimeout = 30 * time.Second
	}
	return &ClaimAcquirer{
		kube: c,
		cfg:  cfg,
		openSession: func(ctx context.Context, baseURL string) (*sandbox.Session, error) {
			return sandbox.NewClient(baseURL, "", cfg.SessionTimeout).NewSession(ctx)
		},
	}
}

// NewScheme returns a runtime.Scheme with the agent-sandbox types registered.
func NewScheme() (*runtime.Scheme, error) {
	scheme := runtime.NewScheme()
	if err := sandboxv1alpha1.AddToScheme(scheme); err != nil {
		return nil, fmt.Errorf("register sandbox types: %w", err)
	}
	if err := extensionsv1alpha1.AddToScheme(scheme); err != nil {
		return nil, fmt.Errorf("register extensions types: %w", err)
	}
	return scheme, nil
}

// Acquire creates a SandboxClaim, waits for the pod, and opens a session on
// it. The returned session's Close deletes the claim after tearing down the
// remote session.
func (a *ClaimAcquirer) Acquire(ctx context.Context) (*sandbox.Session, error) {
	claimName := generateClaimNameFn()

	claim := &extensionsv1alpha1.SandboxClaim{
		ObjectMeta: metav1.ObjectMeta{
			Name:      claimName,
			Namespace: a.cfg.Namespace,
		},
		Spec: extensionsv1alpha1.SandboxClaimSpec{
			TemplateRef: extensionsv1alpha1.SandboxTemplateRef{
				Name: a.cfg.Template,
			},
		},
	}

	if err := a.kube.Create(ctx, claim); err != nil {
		return nil, fmt.Errorf("create SandboxClaim %q: %w", claimName, err)
	}

	slog.Debug("created SandboxClaim", "name", claimName, "namespace", a.cfg.Namespace, "template", a.cfg.Template)

	serviceFQDN, err := a.waitForReady(ctx, claimName)
	if err != nil {
		a.deleteClaim(context.Background(), claimName)
		return nil, err
	}

	baseURL := fmt.Sprintf("http://%s:8080", serviceFQDN)

	sess, err := a.openSession(ctx, baseURL)
	if err != nil {
		a.deleteClaim(context.Background(), claimName)
		return nil, fmt.Errorf("open session on sandbox pod %q: %w", claimName, err)
	}

	sess.OnClose(func() {
		a.deleteClaim(context.Background(), claimName)
	})

	slog.Debug("sandbox pod session acquired", "name", claimName, "url", baseURL, "session", sess.ID())
	return sess, nil
}

// waitForReady polls the Sandbox resource until its Ready condition is True
// and the service FQDN is populated, or the timeout expires.
func (a *ClaimAcquirer) waitForReady(ctx context.Context, sandboxName string) (string, error) {
	deadline := time.After(a.cfg.ClaimTimeout)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("context cancelled waiting for Sandbox %q: %w", sandboxName, ctx.Err())
		case <-deadline:
			return "", fmt.Errorf("timeout waiting for Sandbox %q to become ready (waited %s)", sandboxName, a.cfg.ClaimTimeout)
		case <-ticker.C:
			sb := &sandboxv1alpha1.Sandbox{}
			key := types.NamespacedName{Name: sandboxName, Namespace: a.cfg.Namespace}
			if err := a.kube.Get(ctx, key, sb); err != nil {
				// The controller may not have created the Sandbox yet.
				continue
			}

			if isReady(sb) && sb.Status.ServiceFQDN != "" {
				return sb.Status.ServiceFQDN, nil
			}
		}
	}
}

// isReady checks if the Sandbox has a Ready condition set to True.
func isReady(sb *sandboxv1alpha1.Sandbox) bool {
	for _, c := range sb.Status.Conditions {
		if c.Type == string(sandboxv1alpha1.SandboxConditionReady) && c.Status == metav1.ConditionTrue {
			return true
		}
	}
	return false
}

// deleteClaim deletes a SandboxClaim. Errors are logged but not returned
// since this runs from session teardown and cleanup paths.
func (a *ClaimAcquirer) deleteClaim(ctx context.Context, name string) {
	claim := &extensionsv1alpha1.SandboxClaim{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: a.cfg.Namespace,
		},
	}
	if err := a.kube.Delete(ctx, claim); err != nil {
		slog.Warn("failed to delete SandboxClaim", "name", name, "namespace", a.cfg.Namespace, "error", err.Error())
		return
	}
	slog.Debug("deleted SandboxClaim", "name", name, "namespace", a.cfg.Namespace)
}

// generateClaimNameFn creates a unique name for a SandboxClaim.
// Replaceable in tests for deterministic naming.
var generateClaimNameFn = func() string {
	return fmt.Sprintf("datenblick-turn-%d", time.Now().UnixNano())
}
