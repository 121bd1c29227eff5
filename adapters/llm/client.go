package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config holds LLM adapter configuration.
type Config struct {
	Model       string        // e.g. "gpt-4o-mini"
	APIKey      string        // OpenAI API key
	BaseURL     string        // Optional override (default: https://api.openai.com/v1)
	Temperature float64       // Higher for paraphrase diversity
	MaxTokens   int           // Max tokens in response
	Timeout     time.Duration // Request timeout
}

// Client is the minimal text-completion surface the paraphrase adapter
// needs: one system message, one user prompt, one text response.
type Client interface {
	ChatCompletion(ctx context.Context, system, prompt string) (string, error)
}

// newClient creates a client from config.
func newClient(config Config) (Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("missing OpenAI API key")
	}
	baseURL := strings.TrimSpace(config.BaseURL)
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIClient{
		APIKey:      config.APIKey,
		Model:       config.Model,
		BaseURL:     baseURL,
		Timeout:     config.Timeout,
		Temperature: config.Temperature,
		MaxTokens:   config.MaxTokens,
	}, nil
}

// MockClient is a scripted client for tests.
type MockClient struct {
	Response string
	Error    error
}

func (m *MockClient) ChatCompletion(ctx context.Context, system, prompt string) (string, error) {
	if m.Error != nil {
		return "", m.Error
	}
	return m.Response, nil
}

// OpenAIClient implements Client against the chat completions API.
type OpenAIClient struct {
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

func (c *OpenAIClient) ChatCompletion(ctx context.Context, system, prompt string) (string, error) {
	if strings.TrimSpace(c.Model) == "" {
		return "", fmt.Errorf("missing model")
	}
	maxTokens := c.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 800
	}

	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	type reqBody struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature,omitempty"`
		MaxTokens   int     `json:"max_tokens,omitempty"`
	}
	body := reqBody{
		Model: c.Model,
		Messages: []msg{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: c.Temperature,
		MaxTokens:   maxTokens,
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	client := &http.Client{Timeout: c.Timeout}
	url := strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	respRaw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("openai http %d: %s", resp.StatusCode, string(respRaw))
	}

	type choice struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	type respBody struct {
		Choices []choice `json:"choices"`
	}
	var decoded respBody
	if err := json.Unmarshal(respRaw, &decoded); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("openai response missing choices")
	}
	return decoded.Choices[0].Message.Content, nil
}
