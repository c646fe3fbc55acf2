package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/helmcode/gamemodel-ai/pkg/config"
)

// Provider represents the LLM provider type
type Provider string

const (
	ProviderClaude Provider = "claude"
	ProviderOpenAI Provider = "openai"
)

// Factory creates LLM instances based on provider
type Factory struct {
	// Secret resolves an API key by environment variable name.
	Secret func(envName string) (string, error)
}

// NewFactory creates a factory reading keys with config.ResolveSecret.
func NewFactory() *Factory {
	return &Factory{Secret: config.ResolveSecret}
}

// CreateLLM creates an LLM instance based on provider and configuration
func (f *Factory) CreateLLM(provider Provider, settings map[string]string) (LLM, error) {
	switch provider {
	case ProviderClaude:
		apiKey := settings["api_key"]
		if apiKey == "" {
			return nil, fmt.Errorf("Claude API key is required")
		}
		if model := settings["model"]; model != "" {
			return NewClaudeWithModel(apiKey, model), nil
		}
		return NewClaude(apiKey), nil

	case ProviderOpenAI:
		apiKey := settings["api_key"]
		if apiKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		if model := settings["model"]; model != "" {
			return NewOpenAIWithModel(apiKey, model), nil
		}
		return NewOpenAI(apiKey), nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s (supported: claude, openai)", provider)
	}
}

// FromConfig builds the client selected by cfg. An empty provider picks
// whichever API key is present, preferring Claude.
func (f *Factory) FromConfig(cfg config.LLMConfig) (LLM, error) {
	provider := Provider(strings.ToLower(cfg.Provider))
	if provider == "" {
		if key, _ := f.secret("OPENAI_API_KEY"); key != "" {
			provider = ProviderOpenAI
		}
		if key, _ := f.secret("ANTHROPIC_API_KEY"); key != "" {
			provider = ProviderClaude
		}
		if provider == "" {
			provider = ProviderClaude
		}
	}

	var envKey, envModel string
	switch provider {
	case ProviderClaude:
		envKey, envModel = "ANTHROPIC_API_KEY", "CLAUDE_MODEL"
	case ProviderOpenAI:
		envKey, envModel = "OPENAI_API_KEY", "OPENAI_MODEL"
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s (supported: claude, openai)", provider)
	}

	apiKey, err := f.secret(envKey)
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%s environment variable not set", envKey)
	}
	model := cfg.Model
	if model == "" {
		model = os.Getenv(envModel)
	}
	return f.CreateLLM(provider, map[string]string{"api_key": apiKey, "model": model})
}

func (f *Factory) secret(name string) (string, error) {
	if f.Secret == nil {
		return config.ResolveSecret(name)
	}
	return f.Secret(name)
}

// GetAvailableProviders returns a list of available LLM providers
func (f *Factory) GetAvailableProviders() []Provider {
	return []Provider{ProviderClaude, ProviderOpenAI}
}
