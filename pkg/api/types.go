package api

import "encoding/base64"

// DatasetHandle is an opaque reference to a dataset staged inside a sandbox
// session. SandboxPath is the exact string embedded into the system prompt;
// generated code reads the CSV from this path, so the value must stay stable
// for the whole turn.
type DatasetHandle struct {
	SandboxPath string `json:"sandbox_path"`
}

// Category classifies an execution artifact for rendering.
type Category string

const (
	// CategoryImage is a rendered raster image carried as base64 PNG data.
	CategoryImage Category = "image"

	// CategoryFigure is a plotting-library figure handle.
	CategoryFigure Category = "figure"

	// CategoryInteractiveChart is an interactive chart object (e.g. plotly).
	CategoryInteractiveChart Category = "interactive_chart"

	// CategoryTabular is a table or single-column table value.
	CategoryTabular Category = "tabular"

	// CategoryRaw is everything else: scalars, plain strings.
	CategoryRaw Category = "raw"
)

// Artifact is one structured value produced by a sandbox execution. The
// sandbox protocol models display capabilities as explicit optional fields
// rather than runtime attribute probing; at most the relevant subset is
// populated per artifact.
type Artifact struct {
	// PNG holds base64-encoded PNG image data.
	PNG string `json:"png,omitempty"`

	// Figure holds an opaque plotting-library figure handle.
	Figure map[string]any `json:"figure,omitempty"`

	// Show holds an opaque interactive-chart object that knows how to
	// display itself.
	Show map[string]any `json:"show,omitempty"`

	// Table holds tabular data.
	Table *Table `json:"table,omitempty"`

	// Text holds the plain text representation (scalars, reprs).
	Text string `json:"text,omitempty"`
}

// ImageBytes decodes the base64 PNG payload into raw image bytes.
// Returns nil when the artifact carries no PNG data.
func (a *Artifact) ImageBytes() ([]byte, error) {
	if a.PNG == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(a.PNG)
}

// Table is a column-oriented tabular value. A single-column table represents
// a series.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// ClassifiedArtifact pairs an artifact with its rendering category.
type ClassifiedArtifact struct {
	Category Category `json:"category"`
	Artifact Artifact `json:"artifact"`
}

// TurnResult is the outcome of one analysis turn.
//
// Artifacts is nil when no code block was extracted from the reply or when
// the generated code failed at runtime; it is an empty non-nil slice when
// code ran and produced zero artifacts. The JSON encoding preserves the
// distinction (null vs []).
type TurnResult struct {
	// ReplyText is the completion backend's full reply. Never empty.
	ReplyText string `json:"reply_text"`

	// Artifacts are the classified execution results in execution order.
	Artifacts []ClassifiedArtifact `json:"artifacts"`

	// Notice carries a non-fatal advisory for the caller, such as "the
	// reply contained no executable code".
	Notice string `json:"notice,omitempty"`
}
