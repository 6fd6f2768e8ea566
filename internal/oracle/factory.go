package oracle

import (
	"fmt"
	"strings"
)

// NewProvider creates a language-model provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "ollama", "":
		// Ollama is the default: a local endpoint needing no API key
		return NewOllamaProvider(config)

	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	default:
		return nil, fmt.Errorf("unknown oracle provider: %s (supported: ollama, openai, anthropic)", config.Provider)
	}
}
