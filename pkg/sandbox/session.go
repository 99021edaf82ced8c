package sandbox

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/datenblick/datenblick/pkg/api"
	"github.com/datenblick/datenblick/pkg/debug"
)

// Client talks to a sandbox service instance. Safe for concurrent use;
// each turn opens its own Session through it.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a Client for the sandbox service at baseURL. The apiKey
// is sent as a bearer token when non-empty. A zero timeout defaults to
// 120s, which bounds a single code execution round trip.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(baseURL, "/")

	if timeout == 0 {
		timeout = 120 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// NewSession opens a fresh interpreter session. The caller must Close the
// session when the turn ends, on every exit path.
func (c *Client) NewSession(ctx context.Context) (*Session, error) {
	var resp createSessionResponse
	if err := c.do(ctx, http.MethodPost, "/v1/sessions", nil, &resp); err != nil {
		return nil, err
	}
	if resp.SessionID == "" {
		return nil, api.NewServerError("sandbox returned empty session id")
	}
	return &Session{client: c, id: resp.SessionID}, nil
}

// do sends a JSON request and decodes a JSON response (out may be nil for
// responses without a body). Non-2xx statuses and network failures are
// mapped to APIErrors: a sandbox that is unreachable or rejects our
// credentials is fatal to the turn.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return api.NewServerError(fmt.Sprintf("failed to marshal sandbox request: %s", err.Error()))
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return api.NewServerError(fmt.Sprintf("failed to create sandbox request: %s", err.Error()))
	}
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return api.NewServerError(fmt.Sprintf("sandbox connection error: %s", err.Error()))
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4096))
		switch httpResp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return api.NewServerError("sandbox authentication failed")
		case http.StatusNotFound:
			return api.NewNotFoundError("sandbox session not found")
		case http.StatusTooManyRequests:
			return api.NewTooManyRequestsError("sandbox at capacity")
		default:
			return api.NewServerError(fmt.Sprintf("sandbox returned HTTP %d: %s", httpResp.StatusCode, string(respBody)))
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return api.NewServerError(fmt.Sprintf("failed to parse sandbox response: %s", err.Error()))
	}
	return nil
}

// Close releases client resources.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Session is one remote interpreter session. The session filesystem persists
// across code submissions within the session, so a dataset staged once is
// visible to every subsequent RunCode call of the same turn.
type Session struct {
	client *Client
	id     string

	// cleanup runs after the remote session is deleted. Set by acquirers
	// that provision per-session infrastructure (e.g. sandbox pods).
	cleanup func()
}

// ID returns the remote session identifier.
func (s *Session) ID() string {
	return s.id
}

// OnClose registers fn to run after the remote session is deleted. Used by
// acquirers that provision per-session infrastructure.
func (s *Session) OnClose(fn func()) {
	s.cleanup = fn
}

// RunCode submits source code to the session's interpreter and returns the
// full execution result. A runtime error in the submitted code is reported
// inside the Execution, not as a Go error; the returned error covers only
// transport-level failures.
func (s *Session) RunCode(ctx context.Context, code string) (*Execution, error) {
	debug.Log("sandbox", "code submission", "session", s.id, "bytes", len(code))
	debug.Raw("sandbox", code)

	var exec Execution
	if err := s.client.do(ctx, http.MethodPost, "/v1/sessions/"+s.id+"/code", &runCodeRequest{Code: code}, &exec); err != nil {
		return nil, err
	}
	return &exec, nil
}

// WriteFile writes the contents of r to path inside the session filesystem.
// An existing file at path is overwritten.
func (s *Session) WriteFile(ctx context.Context, path string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return api.NewStagingError(fmt.Sprintf("read upload: %s", err.Error()))
	}

	debug.Log("sandbox", "file write", "session", s.id, "path", path, "bytes", len(data))

	req := &writeFileRequest{
		Path:    path,
		Content: base64.StdEncoding.EncodeToString(data),
	}
	return s.client.do(ctx, http.MethodPost, "/v1/sessions/"+s.id+"/files", req, nil)
}

// Close tears down the remote session and any per-session infrastructure.
// Uses its own deadline so teardown still happens when the turn's context
// is already cancelled.
func (s *Session) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.client.do(ctx, http.MethodDelete, "/v1/sessions/"+s.id, nil, nil)
	if s.cleanup != nil {
		s.cleanup()
	}
	return err
}
