package transport

import (
	"context"
	"net/http"
	"strconv"

	"github.com/datenblick/datenblick/pkg/api"
	"github.com/datenblick/datenblick/pkg/completion"
	"github.com/datenblick/datenblick/pkg/dataset"
	"github.com/datenblick/datenblick/pkg/engine"
)

// Analyzer runs one analysis turn. Satisfied by *engine.Engine.
type Analyzer interface {
	Analyze(ctx context.Context, params engine.AnalyzeParams) (*api.TurnResult, error)
}

// ModelLister returns available completion models. Satisfied by
// *completion.Client.
type ModelLister interface {
	ListModels(ctx context.Context) ([]completion.ChatModel, error)
}

// Handler serves the analysis HTTP API.
type Handler struct {
	analyzer Analyzer
	models   ModelLister

	// maxDatasetBytes bounds the accepted multipart upload size.
	maxDatasetBytes int64
}

// NewHandler creates a Handler. maxDatasetBytes must be positive.
func NewHandler(analyzer Analyzer, models ModelLister, maxDatasetBytes int64) *Handler {
	return &Handler{
		analyzer:        analyzer,
		models:          models,
		maxDatasetBytes: maxDatasetBytes,
	}
}

// Routes registers the handler's endpoints on a fresh ServeMux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/analyze", h.handleAnalyze)
	mux.HandleFunc("POST /v1/preview", h.handlePreview)
	mux.HandleFunc("GET /v1/models", h.handleModels)
	mux.HandleFunc("GET /healthz", h.handleHealthz)
	mux.HandleFunc("GET /readyz", h.handleHealthz)
	return mux
}

// handleAnalyze accepts a multipart form with fields:
//   - dataset: the CSV file (required)
//   - query:   the natural-language question (required)
//   - model:   completion model override (optional)
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxDatasetBytes)

	if err := r.ParseMultipartForm(h.maxDatasetBytes); err != nil {
		writeError(w, api.NewInvalidRequestError("dataset", "invalid or oversized multipart form: "+err.Error()))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("dataset")
	if err != nil {
		writeError(w, api.NewInvalidRequestError("dataset", "dataset file is required"))
		return
	}
	defer file.Close()

	query := r.FormValue("query")
	if query == "" {
		writeError(w, api.NewInvalidRequestError("query", "query is required"))
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), engine.AnalyzeParams{
		Query:       query,
		Model:       r.FormValue("model"),
		DatasetName: header.Filename,
		Dataset:     file,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handlePreview accepts a multipart form with fields:
//   - dataset: the CSV file (required)
//   - rows:    number of rows to return (optional)
func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxDatasetBytes)

	if err := r.ParseMultipartForm(h.maxDatasetBytes); err != nil {
		writeError(w, api.NewInvalidRequestError("dataset", "invalid or oversized multipart form: "+err.Error()))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("dataset")
	if err != nil {
		writeError(w, api.NewInvalidRequestError("dataset", "dataset file is required"))
		return
	}
	defer file.Close()

	rows := 0
	if v := r.FormValue("rows"); v != "" {
		rows, err = strconv.Atoi(v)
		if err != nil || rows < 0 {
			writeError(w, api.NewInvalidRequestError("rows", "rows must be a non-negative integer"))
			return
		}
	}

	preview, err := dataset.Read(file, rows)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, preview)
}

// handleModels proxies the completion backend's model list.
func (h *Handler) handleModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.models.ListModels(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"object": "list",
		"data":   models,
	})
}

func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
