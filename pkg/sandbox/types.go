package sandbox

import (
	"fmt"

	"github.com/datenblick/datenblick/pkg/api"
)

// createSessionResponse is the response from POST /v1/sessions.
type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

// runCodeRequest is the request body for POST /v1/sessions/{id}/code.
type runCodeRequest struct {
	Code string `json:"code"`
}

// writeFileRequest is the request body for POST /v1/sessions/{id}/files.
// Content is base64-encoded so binary datasets survive the JSON transport.
type writeFileRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Execution is the full result of running one code submission.
type Execution struct {
	// Results are the structured display values produced by the run, in
	// the order the execution emitted them.
	Results []api.Artifact `json:"results"`

	// Logs holds the text written to the interpreter's stdout and stderr
	// during the run. Logs are diagnostic only and are never part of
	// Results.
	Logs ExecutionLogs `json:"logs"`

	// Error is non-nil when the submitted code raised a runtime error.
	// When set, Results is empty even if the code produced output before
	// failing; partial output remains visible in Logs.
	Error *ExecutionError `json:"error,omitempty"`
}

// ExecutionLogs contains the captured console streams of a run.
type ExecutionLogs struct {
	Stdout []string `json:"stdout"`
	Stderr []string `json:"stderr"`
}

// ExecutionError describes a runtime error raised by submitted code.
type ExecutionError struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Traceback string `json:"traceback,omitempty"`
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	if e.Value == "" {
		return e.Name
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Value)
}
