package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pkordes/trip-planner/internal/metrics"
)

const (
	defaultOpenAIURL   = "https://api.openai.com/v1"
	defaultChatTimeout = 90 * time.Second
)

// OpenAI calls the chat completion API. One request carries an ordered list
// of system messages and returns the first choice's text content.
// There is no retry here: a failed generation is an unrecoverable item error
// for the advice record being processed, and the dead-letter sink is the
// only failure-capture path in this pipeline.
type OpenAI struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewOpenAI creates a chat client for the given API key and model.
func NewOpenAI(apiKey, model string) *OpenAI {
	return &OpenAI{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultOpenAIURL,
		httpClient: &http.Client{
			Timeout: defaultChatTimeout,
		},
	}
}

// NewOpenAIWithBaseURL creates a client pointing at a custom base URL
// (for testing).
func NewOpenAIWithBaseURL(apiKey, model, baseURL string) *OpenAI {
	c := NewOpenAI(apiKey, model)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// CompleteChat sends the ordered system prompts and returns the first
// choice's content. A non-2xx response surfaces as an error carrying the
// upstream status and body.
func (c *OpenAI) CompleteChat(ctx context.Context, systemPrompts []string) (string, error) {
	timer := prometheus.NewTimer(metrics.ProviderDuration.WithLabelValues("openai"))
	defer timer.ObserveDuration()

	messages := make([]chatMessage, len(systemPrompts))
	for i, p := range systemPrompts {
		messages[i] = chatMessage{Role: "system", Content: p}
	}

	body, err := json.Marshal(chatRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("openai: marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("openai: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai: executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("openai: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("openai: decoding response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai: response contained no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
