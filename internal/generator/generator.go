// Package generator talks to an OpenAI-compatible chat-completions endpoint
// to draft module content from a narrative prompt.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/starford/cinesuite/internal/apperr"
	"github.com/starford/cinesuite/internal/scene"
)

const (
	DefaultEndpoint = "https://api.groq.com/openai/v1/chat/completions"
	DefaultModel    = "llama-3.3-70b-versatile"
)

// Request asks for content for one module kind. Enrich asks for extra list
// items instead of a whole module; Prompt then carries the existing context.
type Request struct {
	Prompt     string
	Credential string
	Kind       scene.Kind
	Context    string
	Tone       string
	Enrich     bool
}

// Client returns raw model text. Parsing is left to the caller.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// HTTPClient calls a chat-completions endpoint. It does not retry.
type HTTPClient struct {
	endpoint string
	model    string
	client   *http.Client
	now      func() time.Time
}

// NewHTTPClient creates a client. Empty endpoint or model fall back to the defaults.
func NewHTTPClient(endpoint, model string, timeout time.Duration) *HTTPClient {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if model == "" {
		model = DefaultModel
	}
	return &HTTPClient{
		endpoint: endpoint,
		model:    model,
		client:   &http.Client{Timeout: timeout},
		now:      time.Now,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type completionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate sends one completion request and returns the first choice's content.
func (c *HTTPClient) Generate(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Credential) == "" {
		return "", apperr.ErrMissingCredential
	}
	if !req.Kind.Valid() {
		return "", fmt.Errorf("generate: unknown kind %q", req.Kind)
	}

	s := samplingFor(req)
	body, err := json.Marshal(completionRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt(req, c.now())},
			{Role: "user", Content: req.Prompt},
		},
		Temperature: s.Temperature,
		MaxTokens:   s.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.Credential)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("api request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var out completionResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			return "", fmt.Errorf("api error %d: %s", resp.StatusCode, out.Error.Message)
		}
		return "", fmt.Errorf("api error %d: check the credential", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrMalformedContent, decodeErr)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: empty completion", apperr.ErrMalformedContent)
	}
	return out.Choices[0].Message.Content, nil
}
