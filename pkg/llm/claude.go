package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultClaudeModel = "claude-sonnet-4-20250514"
	claudeBaseURL      = "https://api.anthropic.com"
)

type Claude struct {
	apiKey  string
	client  *http.Client
	model   string
	baseURL string
}

func NewClaude(apiKey string) *Claude {
	return NewClaudeWithModel(apiKey, DefaultClaudeModel)
}

func NewClaudeWithModel(apiKey, model string) *Claude {
	return &Claude{
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 180 * time.Second},
		model:   model,
		baseURL: claudeBaseURL,
	}
}

// WithBaseURL points the client at another Messages API endpoint.
func (c *Claude) WithBaseURL(url string) *Claude {
	c.baseURL = url
	return c
}

func (c *Claude) Chat(ctx context.Context, prompt string) (string, error) {
	body := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{{
			"role":    "user",
			"content": prompt,
		}},
		"max_tokens":  maxTokens,
		"temperature": 0,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Provider: "Claude", StatusCode: resp.StatusCode, Body: string(respBytes)}
	}

	var claudeResp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBytes, &claudeResp); err != nil {
		return "", fmt.Errorf("decode Claude response: %w", err)
	}
	if claudeResp.Error.Message != "" {
		return "", fmt.Errorf("Claude API error: %s", claudeResp.Error.Message)
	}
	for _, block := range claudeResp.Content {
		if block.Text != "" {
			return block.Text, nil
		}
	}
	return "", errors.New("empty response from Claude")
}

func (c *Claude) GetModel() string {
	return c.model
}
