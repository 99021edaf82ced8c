// Package integration provides integration tests for the datenblick API.
//
// Tests run against a real datenblick HTTP server backed by mock
// completion and sandbox services, all started in-process using
// net/http/httptest.
package integration

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/datenblick/datenblick/pkg/auth"
	"github.com/datenblick/datenblick/pkg/auth/apikey"
	"github.com/datenblick/datenblick/pkg/completion"
	"github.com/datenblick/datenblick/pkg/engine"
	"github.com/datenblick/datenblick/pkg/sandbox"
	"github.com/datenblick/datenblick/pkg/transport"
)

// testEnv holds the shared servers for all integration tests.
var testEnv *TestEnvironment

// testAPIKey authenticates requests against the test server.
const testAPIKey = "integration-test-key"

// TestEnvironment holds the datenblick server and its mock dependencies.
type TestEnvironment struct {
	Server        *httptest.Server
	MockBackend   *httptest.Server
	MockSandbox   *httptest.Server
	sandboxesOpen int
	mu            sync.Mutex
}

// TestMain starts the mock services and datenblick server before running tests.
func TestMain(m *testing.M) {
	testEnv = setupTestEnvironment()
	code := m.Run()
	testEnv.Teardown()
	os.Exit(code)
}

func setupTestEnvironment() *TestEnvironment {
	env := &TestEnvironment{}
	env.MockBackend = httptest.NewServer(mockCompletionHandler())
	env.MockSandbox = httptest.NewServer(env.mockSandboxHandler())

	completionClient := completion.NewClient(env.MockBackend.URL, "", 0)
	sbClient := sandbox.NewClient(env.MockSandbox.URL, "", 0)

	eng, err := engine.New(completionClient, sandbox.NewStaticAcquirer(sbClient), engine.Config{
		DefaultModel: "mock-model",
	})
	if err != nil {
		panic(fmt.Sprintf("creating engine: %v", err))
	}

	handler := transport.NewHandler(eng, completionClient, 1<<20)

	chain := &auth.AuthChain{
		Authenticators: []auth.Authenticator{
			apikey.New([]apikey.RawKeyEntry{
				{Key: testAPIKey, Identity: auth.Identity{Subject: "integration"}},
			}),
		},
		DefaultDecision: auth.No,
	}

	wrapped := transport.Chain(
		transport.Recovery(),
		transport.RequestID(),
		transport.Logging(slog.Default()),
		auth.Middleware(chain, auth.DefaultBypassEndpoints),
	)(handler.Routes())

	env.Server = httptest.NewServer(wrapped)
	return env
}

// Teardown shuts down all servers.
func (e *TestEnvironment) Teardown() {
	e.Server.Close()
	e.MockBackend.Close()
	e.MockSandbox.Close()
}

// BaseURL returns the datenblick server URL.
func (e *TestEnvironment) BaseURL() string {
	return e.Server.URL
}

// OpenSandboxes returns the number of sandbox sessions not yet deleted.
func (e *TestEnvironment) OpenSandboxes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sandboxesOpen
}

// mockCompletionHandler answers every chat request with a reply whose code
// block reads the staged path from the system prompt. Query keywords select
// the soft-failure scenarios.
func mockCompletionHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		var query, path string
		for _, m := range req.Messages {
			switch m.Role {
			case "user":
				query = m.Content
			case "system":
				if start := strings.Index(m.Content, "'"); start >= 0 {
					rest := m.Content[start+1:]
					if end := strings.Index(rest, "'"); end > 0 {
						path = rest[:end]
					}
				}
			}
		}

		var reply string
		switch {
		case strings.Contains(query, "fail please"):
			reply = "Trying:\n```python\nraise ValueError('boom')\n```"
		case strings.Contains(query, "prose only"):
			reply = "No code is needed to answer this."
		default:
			reply = fmt.Sprintf("Analysis:\n```python\nimport pandas as pd\ndf = pd.read_csv('%s')\ndf.describe()\n```", path)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{
				map[string]any{"message": map[string]any{"role": "assistant", "content": reply}},
			},
		})
	})
	mux.HandleFunc("GET /v1/models", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   []any{map[string]any{"id": "mock-model"}},
		})
	})
	return mux
}

// mockSandboxHandler implements the sandbox session protocol in memory and
// tracks how many sessions remain open.
func (e *TestEnvironment) mockSandboxHandler() http.Handler {
	var nextID int
	files := make(map[string]map[string][]byte)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		e.mu.Lock()
		nextID++
		id := fmt.Sprintf("it-sess-%d", nextID)
		files[id] = make(map[string][]byte)
		e.sandboxesOpen++
		e.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]string{"session_id": id})
	})
	mux.HandleFunc("POST /v1/sessions/{id}/files", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Path    string `json:"path"`
			Content string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		data, _ := base64.StdEncoding.DecodeString(req.Content)
		e.mu.Lock()
		if f, ok := files[r.PathValue("id")]; ok {
			f[req.Path] = data
		}
		e.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /v1/sessions/{id}/code", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Code string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		if strings.Contains(req.Code, "raise ") {
			json.NewEncoder(w).Encode(map[string]any{
				"results": []any{},
				"logs":    map[string]any{"stdout": []string{}, "stderr": []string{}},
				"error":   map[string]any{"name": "ValueError", "value": "boom"},
			})
			return
		}

		json.NewEncoder(w).Encode(map[string]any{
			"results": []any{
				map[string]any{"table": map[string]any{
					"columns": []string{"stat", "sales"},
					"rows":    [][]string{{"mean", "1191.25"}},
				}},
			},
			"logs": map[string]any{"stdout": []string{}, "stderr": []string{}},
		})
	})
	mux.HandleFunc("DELETE /v1/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		e.mu.Lock()
		if _, ok := files[r.PathValue("id")]; ok {
			delete(files, r.PathValue("id"))
			e.sandboxesOpen--
		}
		e.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// analyzeRequest posts a multipart analyze request with the test API key.
func analyzeRequest(t *testing.T, query string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("dataset", "sales.csv")
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	fw.Write([]byte("region,sales\nnorth,1250\nsouth,980\n"))
	mw.WriteField("query", query)
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, testEnv.BaseURL()+"/v1/analyze", &buf)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testAPIKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

// analyzePreviewRequest posts a multipart preview request.
func analyzePreviewRequest(t *testing.T) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("dataset", "sales.csv")
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	fw.Write([]byte("region,sales\nnorth,1250\nsouth,980\n"))
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, testEnv.BaseURL()+"/v1/preview", &buf)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testAPIKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

// getURL performs an authenticated GET.
func getURL(t *testing.T, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return string(data)
}
