package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/datenblick/datenblick/pkg/api"
	"github.com/datenblick/datenblick/pkg/classify"
	"github.com/datenblick/datenblick/pkg/completion"
	"github.com/datenblick/datenblick/pkg/debug"
	"github.com/datenblick/datenblick/pkg/extract"
	"github.com/datenblick/datenblick/pkg/observability"
	"github.com/datenblick/datenblick/pkg/sandbox"
)

// Config carries engine-level settings.
type Config struct {
	// DefaultModel is used when a request does not name a model.
	DefaultModel string
}

// Engine runs analysis turns against a completion backend and a sandbox
// session source.
type Engine struct {
	completion *completion.Client
	sessions   sandbox.Acquirer
	cfg        Config
}

// New creates an Engine. Both the completion client and the session
// acquirer are required.
func New(client *completion.Client, sessions sandbox.Acquirer, cfg Config) (*Engine, error) {
	if client == nil {
		return nil, fmt.Errorf("completion client is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session acquirer is required")
	}
	return &Engine{completion: client, sessions: sessions, cfg: cfg}, nil
}

// AnalyzeParams are the inputs for a single analysis turn.
type AnalyzeParams struct {
	// Query is the user's natural-language question about the dataset.
	Query string
	// Model selects the completion model. Empty means the configured default.
	Model string
	// DatasetName is the client-supplied file name of the dataset.
	DatasetName string
	// Dataset is the raw CSV content.
	Dataset io.Reader
}

// Analyze runs one complete turn: acquire a session, stage the dataset,
// then run the turn against it. The session is always released when the
// turn finishes, whether it succeeded or not.
func (e *Engine) Analyze(ctx context.Context, params AnalyzeParams) (*api.TurnResult, error) {
	if params.Query == "" {
		return nil, api.NewInvalidRequestError("query", "query is required")
	}
	if params.Dataset == nil {
		return nil, api.NewInvalidRequestError("dataset", "dataset is required")
	}
	model := params.Model
	if model == "" {
		model = e.cfg.DefaultModel
	}

	sess, err := e.sessions.Acquire(ctx)
	if err != nil {
		observability.TurnsTotal.WithLabelValues(model, "error").Inc()
		return nil, err
	}
	defer sess.Close()

	handle, err := StageDataset(ctx, sess, params.DatasetName, params.Dataset)
	if err != nil {
		observability.TurnsTotal.WithLabelValues(model, "error").Inc()
		return nil, err
	}

	return e.RunTurn(ctx, sess, params.Query, handle, model)
}

// RunTurn executes one analysis turn against an already-prepared session:
// the dataset must have been staged and handle must carry its path.
//
// Hard failures (completion backend errors, sandbox transport errors)
// return an error. Soft conditions — the model replied without a code
// block, or the generated code raised a runtime error — produce a
// TurnResult carrying the reply text and a notice, with no artifacts.
func (e *Engine) RunTurn(ctx context.Context, sess *sandbox.Session, query string, handle api.DatasetHandle, model string) (*api.TurnResult, error) {
	req := &completion.ChatRequest{
		Model: model,
		Messages: []completion.ChatMessage{
			{Role: completion.RoleSystem, Content: systemPrompt(handle.SandboxPath)},
			{Role: completion.RoleUser, Content: query},
		},
	}

	start := time.Now()
	reply, err := e.completion.Complete(ctx, req)
	if err != nil {
		observability.TurnsTotal.WithLabelValues(model, "error").Inc()
		return nil, err
	}
	observability.CompletionLatency.WithLabelValues(model).Observe(time.Since(start).Seconds())

	code := extract.PythonBlock(reply)
	if code == "" {
		slog.Warn("model reply contains no python code block", "model", model)
		observability.TurnsTotal.WithLabelValues(model, "no_code").Inc()
		return &api.TurnResult{
			ReplyText: reply,
			Notice:    "no executable code found in reply",
		}, nil
	}

	debug.Log("engine", "extracted code block", "model", model, "chars", len(code), "code", debug.Truncate(code, 120))

	outcome, err := Execute(ctx, sess, code)
	if err != nil {
		observability.TurnsTotal.WithLabelValues(model, "error").Inc()
		return nil, err
	}
	if outcome.Failed() {
		observability.TurnsTotal.WithLabelValues(model, "execution_failed").Inc()
		return &api.TurnResult{
			ReplyText: reply,
			Notice:    "code execution failed: " + outcome.Failure.Error(),
		}, nil
	}

	classified := classify.All(outcome.Artifacts)
	for _, ca := range classified {
		observability.ArtifactsTotal.WithLabelValues(string(ca.Category)).Inc()
	}
	observability.TurnsTotal.WithLabelValues(model, "completed").Inc()

	return &api.TurnResult{
		ReplyText: reply,
		Artifacts: classified,
	}, nil
}
