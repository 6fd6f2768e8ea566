package oracle

import (
	"context"
	"time"

	"github.com/nocap-ai/nocap/internal/model"
)

// Provider defines the interface for language-model backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate produces a completion for the given request
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// IsAvailable checks if the provider is properly configured and reachable
	IsAvailable(ctx context.Context) bool
}

// GenerateRequest contains the input for a generation call
type GenerateRequest struct {
	// Prompt is the user prompt
	Prompt string

	// System is an optional system instruction
	System string

	// Model overrides the configured model for this call
	Model string

	// JSONMode asks the backend to emit a single valid JSON object
	JSONMode bool

	// MaxTokens limits the response length
	MaxTokens int
}

// GenerateResponse contains the model's output
type GenerateResponse struct {
	// Text is the raw completion text
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption (estimated when the backend
	// does not report counts)
	TokensUsed int
}

// Config holds provider configuration
type Config struct {
	// Provider name: "ollama", "openai", "anthropic"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g. Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout time.Duration

	// MaxTokens for response generation
	MaxTokens int
}

// ConfigFromModel converts model.OracleConfig to oracle.Config
func ConfigFromModel(cfg model.OracleConfig) Config {
	return Config{
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		MaxTokens: cfg.MaxTokens,
	}
}
