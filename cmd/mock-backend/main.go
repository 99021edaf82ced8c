// Command mock-backend runs deterministic stand-ins for the two services
// datenblick depends on: a Chat Completions backend and an interpreter
// sandbox service. It lets the full analysis pipeline run end to end
// without an LLM or a real interpreter.
//
// The mock completion backend answers every request with a reply that
// contains a Python code block reading the staged dataset. The mock
// sandbox accepts sessions and file uploads and returns canned execution
// results keyed on the submitted code.
//
// Configuration:
//
//	MOCK_COMPLETION_PORT - Chat Completions listen port (default: 9090)
//	MOCK_SANDBOX_PORT    - sandbox service listen port (default: 9091)
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

func main() {
	completionPort := envOrDefault("MOCK_COMPLETION_PORT", "9090")
	sandboxPort := envOrDefault("MOCK_SANDBOX_PORT", "9091")

	completionSrv := &http.Server{Addr: ":" + completionPort, Handler: completionMux()}
	sandboxSrv := &http.Server{Addr: ":" + sandboxPort, Handler: newMockSandbox().mux()}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("mock completion backend starting", "port", completionPort)
		if err := completionSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock completion backend failed", "error", err)
			os.Exit(1)
		}
	}()
	go func() {
		slog.Info("mock sandbox starting", "port", sandboxPort)
		if err := sandboxSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("mock sandbox failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("mock services shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	completionSrv.Shutdown(shutdownCtx)
	sandboxSrv.Shutdown(shutdownCtx)
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// --- Chat Completions mock ---

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func completionMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", handleChatCompletions)
	mux.HandleFunc("GET /v1/models", handleModels)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	return mux
}

func handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":{"message":"invalid request","type":"invalid_request_error"}}`, http.StatusBadRequest)
		return
	}

	model := req.Model
	if model == "" {
		model = "mock-model"
	}

	reply := buildReply(&req)

	resp := map[string]any{
		"id":     "chatcmpl-mock",
		"object": "chat.completion",
		"model":  model,
		"choices": []any{
			map[string]any{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{"prompt_tokens": 50, "completion_tokens": 80, "total_tokens": 130},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// buildReply generates a deterministic analysis reply. The dataset path is
// recovered from the system prompt so the generated code reads the staged
// file. Specific query keywords select error and no-code scenarios for
// testing the pipeline's soft-failure paths.
func buildReply(req *chatRequest) string {
	query := lastUserMessage(req)
	path := datasetPathFromSystemPrompt(req)

	switch {
	case strings.Contains(strings.ToLower(query), "fail"):
		return "Let me try this:\n```python\nraise RuntimeError('requested failure')\n```"
	case strings.Contains(strings.ToLower(query), "no code"):
		return "This question does not need code: the dataset speaks for itself."
	default:
		return fmt.Sprintf("I'll summarize the dataset.\n```python\nimport pandas as pd\ndf = pd.read_csv('%s')\ndf.describe()\n```\nThe summary statistics are shown above.", path)
	}
}

func lastUserMessage(req *chatRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			return req.Messages[i].Content
		}
	}
	return ""
}

// datasetPathFromSystemPrompt extracts the quoted dataset path from the
// system prompt, falling back to ./data.csv.
func datasetPathFromSystemPrompt(req *chatRequest) string {
	for _, msg := range req.Messages {
		if msg.Role != "system" {
			continue
		}
		if start := strings.Index(msg.Content, "'"); start >= 0 {
			rest := msg.Content[start+1:]
			if end := strings.Index(rest, "'"); end > 0 {
				return rest[:end]
			}
		}
	}
	return "./data.csv"
}

func handleModels(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"object": "list",
		"data": []map[string]any{
			{"id": "mock-model", "object": "model", "owned_by": "datenblick-mock"},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// --- Sandbox mock ---

// mockSandbox implements the sandbox session protocol in memory. Sessions
// hold uploaded files; code submissions return canned results.
type mockSandbox struct {
	mu       sync.Mutex
	sessions map[string]map[string][]byte // session id -> path -> content
	nextID   atomic.Int64
}

func newMockSandbox() *mockSandbox {
	return &mockSandbox{sessions: make(map[string]map[string][]byte)}
}

func (m *mockSandbox) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sessions", m.handleCreate)
	mux.HandleFunc("POST /v1/sessions/{id}/files", m.handleWriteFile)
	mux.HandleFunc("POST /v1/sessions/{id}/code", m.handleRunCode)
	mux.HandleFunc("DELETE /v1/sessions/{id}", m.handleDelete)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	return mux
}

func (m *mockSandbox) handleCreate(w http.ResponseWriter, r *http.Request) {
	id := fmt.Sprintf("mock-sess-%d", m.nextID.Add(1))
	m.mu.Lock()
	m.sessions[id] = make(map[string][]byte)
	m.mu.Unlock()

	slog.Info("session created", "session", id)
	writeJSON(w, map[string]string{"session_id": id})
}

func (m *mockSandbox) handleWriteFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		http.Error(w, "invalid content encoding", http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	files, ok := m.sessions[id]
	if ok {
		files[req.Path] = data
	}
	m.mu.Unlock()
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	slog.Info("file staged", "session", id, "path", req.Path, "bytes", len(data))
	w.WriteHeader(http.StatusOK)
}

func (m *mockSandbox) handleRunCode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	_, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	slog.Info("code submitted", "session", id, "bytes", len(req.Code))
	writeJSON(w, executionFor(req.Code))
}

// executionFor returns a canned execution result for the submitted code.
// Code that raises produces a runtime error; describe() produces a table.
func executionFor(code string) map[string]any {
	if strings.Contains(code, "raise ") {
		return map[string]any{
			"results": []any{},
			"logs":    map[string]any{"stdout": []string{}, "stderr": []string{}},
			"error": map[string]any{
				"name":      "RuntimeError",
				"value":     "requested failure",
				"traceback": "Traceback (most recent call last):\n  File \"<stdin>\", line 1\nRuntimeError: requested failure",
			},
		}
	}

	var results []any
	if strings.Contains(code, "describe()") {
		results = append(results, map[string]any{
			"table": map[string]any{
				"columns": []string{"metric", "value"},
				"rows":    [][]string{{"count", "3"}, {"mean", "12.5"}},
			},
		})
	}

	return map[string]any{
		"results": results,
		"logs":    map[string]any{"stdout": []string{"analysis complete\n"}, "stderr": []string{}},
	}
}

func (m *mockSandbox) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	slog.Info("session deleted", "session", id)
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
