package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/datenblick/datenblick/pkg/api"
	"github.com/datenblick/datenblick/pkg/debug"
	"github.com/datenblick/datenblick/pkg/observability"
	"github.com/datenblick/datenblick/pkg/sandbox"
)

// Outcome is the result of executing generated code in a sandbox session.
// Exactly one of Artifacts or Failure is meaningful: when Failure is set
// the run raised a runtime error and Artifacts is nil, even if the code
// produced output before failing. Partial output is only visible through
// Logs, which are diagnostic channels, never artifacts.
type Outcome struct {
	Artifacts []api.Artifact
	Logs      sandbox.ExecutionLogs
	Failure   *sandbox.ExecutionError
}

// Failed reports whether the generated code raised a runtime error.
func (o *Outcome) Failed() bool {
	return o.Failure != nil
}

// Execute submits code to the session's interpreter and surfaces the
// captured console streams as log diagnostics: stderr at warning level,
// stdout at info level. The returned error covers transport failures only;
// a runtime error in the code itself is reported in the Outcome.
func Execute(ctx context.Context, sess *sandbox.Session, code string) (*Outcome, error) {
	start := time.Now()
	exec, err := sess.RunCode(ctx, code)
	if err != nil {
		observability.SandboxExecutionsTotal.WithLabelValues("transport_error").Inc()
		return nil, err
	}
	observability.SandboxExecutionLatency.Observe(time.Since(start).Seconds())

	// Diagnostic channels for operator visibility. These streams never
	// become part of the artifact sequence.
	if len(exec.Logs.Stderr) > 0 {
		slog.Warn("code execution warnings/errors",
			"session", sess.ID(),
			"stderr", strings.Join(exec.Logs.Stderr, ""),
		)
	}
	if len(exec.Logs.Stdout) > 0 {
		slog.Info("code execution output",
			"session", sess.ID(),
			"stdout", strings.Join(exec.Logs.Stdout, ""),
		)
	}

	if exec.Error != nil {
		observability.SandboxExecutionsTotal.WithLabelValues("runtime_error").Inc()
		slog.Warn("code execution failed",
			"session", sess.ID(),
			"error", exec.Error.Error(),
		)
		debug.Trace("engine", "execution traceback", "session", sess.ID(), "traceback", exec.Error.Traceback)
		return &Outcome{Logs: exec.Logs, Failure: exec.Error}, nil
	}

	observability.SandboxExecutionsTotal.WithLabelValues("success").Inc()
	return &Outcome{Artifacts: exec.Results, Logs: exec.Logs}, nil
}
