package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/datenblick/datenblick/pkg/api"
	"github.com/datenblick/datenblick/pkg/debug"
)

// Client performs HTTP requests against a Chat-Completions-compatible
// backend. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a Client for the backend at baseURL. The apiKey is sent
// as a bearer token when non-empty. A zero timeout defaults to 120s; LLM
// inference can legitimately take a while, but the turn must not hang
// forever on an unresponsive backend.
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

// Complete performs non-streaming inference and returns the first choice's
// message content. The backend always returns some text for a completed
// choice; an empty choice list is a backend error.
func (c *Client) Complete(ctx context.Context, req *ChatRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", api.NewServerError(fmt.Sprintf("failed to marshal request: %s", err.Error()))
	}

	url := c.baseURL + "/v1/chat/completions"
	debug.Log("completion", "chat request", "url", url, "model", req.Model, "messages", len(req.Messages))
	if debug.TraceIsEnabled("completion") {
		for _, m := range req.Messages {
			debug.Raw("completion", fmt.Sprintf("--- %s ---\n%s", m.Role, m.Content))
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", api.NewServerError(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", MapNetworkError(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return "", MapHTTPError(httpResp)
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&chatResp); err != nil {
		return "", api.NewServerError(fmt.Sprintf("failed to parse backend response: %s", err.Error()))
	}

	if len(chatResp.Choices) == 0 {
		return "", api.NewServerError("backend returned no choices")
	}

	content := chatResp.Choices[0].Message.Content
	debug.Log("completion", "chat reply", "model", req.Model, "chars", len(content))
	debug.Raw("completion", content)
	return content, nil
}

// ListModels returns available models from the backend's /v1/models endpoint.
func (c *Client) ListModels(ctx context.Context) ([]ChatModel, error) {
	url := c.baseURL + "/v1/models"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}

	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, MapNetworkError(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, MapHTTPError(httpResp)
	}

	var modelsResp ChatModelsResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&modelsResp); err != nil {
		return nil, api.NewServerError(fmt.Sprintf("failed to parse models response: %s", err.Error()))
	}

	return modelsResp.Data, nil
}

// Close releases client resources.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
