package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coro-biz/journey-coach/config"
)

// Message is one turn of a chat-completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer is the LLM collaborator. The coach service only needs "messages
// in, text out"; everything else about the provider stays behind this.
type Completer interface {
	Complete(ctx context.Context, model string, messages []Message, temperature float64) (string, error)
}

// OpenAIClient talks to an OpenAI-compatible chat-completions endpoint.
type OpenAIClient struct {
	cfg    config.CoachConfig
	client *http.Client
}

func NewOpenAIClient(cfg config.CoachConfig) *OpenAIClient {
	return &OpenAIClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *OpenAIClient) Complete(ctx context.Context, model string, messages []Message, temperature float64) (string, error) {
	payload, err := json.Marshal(completionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}

	u := fmt.Sprintf("%s/chat/completions", c.cfg.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	res, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	var body completionResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("completion api: decode response: %w", err)
	}
	if body.Error != nil {
		return "", fmt.Errorf("completion api: %s", body.Error.Message)
	}
	if res.StatusCode >= 400 {
		return "", fmt.Errorf("completion api: http %d", res.StatusCode)
	}
	if len(body.Choices) == 0 {
		return "", fmt.Errorf("completion api: empty response")
	}

	return body.Choices[0].Message.Content, nil
}
