package llm

import (
	"context"
	"fmt"
)

// LLM is a single-turn chat completion backend.
type LLM interface {
	Chat(ctx context.Context, prompt string) (string, error)
	GetModel() string
}

// APIError is a non-200 answer from a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// Temporary reports whether retrying the same request later may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

const maxTokens = 4000
