// Package llm wraps an OpenAI-compatible chat-completions endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/verdantlabs/farmpilot-backend/pkg/errors"
)

const (
	defaultEndpoint             = "https://api.openai.com"
	defaultModel                = "gpt-4o-mini"
	completionTimeout           = 25 * time.Second
	responseBodyReadLimit int64 = 2048
)

var errAPIKeyRequired = errors.New("llm api key is required")

// Message is one turn of a chat exchange.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client is the completion surface consumed by the copilot service.
type Client interface {
	Complete(ctx context.Context, system string, messages []Message) (string, error)
}

type openAI struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
}

// Option configures optional client behavior.
type Option func(*openAI)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *openAI) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithModel overrides the completion model.
func WithModel(model string) Option {
	return func(c *openAI) {
		trimmed := strings.TrimSpace(model)
		if trimmed != "" {
			c.model = trimmed
		}
	}
}

// NewOpenAI builds a client for an OpenAI-compatible endpoint.
func NewOpenAI(endpoint, apiKey string, opts ...Option) (Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &openAI{
		httpClient: &http.Client{Timeout: completionTimeout},
		endpoint:   defaultEndpoint,
		apiKey:     trimmedKey,
		model:      defaultModel,
	}
	if trimmed := strings.TrimSpace(endpoint); trimmed != "" {
		client.endpoint = trimmed
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Complete sends the system prompt plus history and returns the model's
// reply text.
func (c *openAI) Complete(ctx context.Context, system string, messages []Message) (string, error) {
	payload := map[string]any{
		"model":       c.model,
		"temperature": 0.2,
		"messages":    append([]Message{{Role: "system", Content: system}}, messages...),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal completion request")
	}

	url := strings.TrimRight(c.endpoint, "/") + "/v1/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build completion request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute completion request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "completion request failed")
	}

	var apiResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode completion response")
	}
	if len(apiResp.Choices) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "completion response has no choices")
	}

	content := strings.TrimSpace(apiResp.Choices[0].Message.Content)
	if content == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "completion response is empty")
	}
	return content, nil
}
