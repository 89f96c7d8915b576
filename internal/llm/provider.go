// Package llm talks to the AI vendors used by the verification pipeline:
// provider adapters, the cross-vendor router and defensive decoding of
// JSON-only responses.
package llm

import (
	"context"

	"github.com/ppiankov/citecheck/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider (vendor) name
	Name() string

	// Complete sends one single-turn request and returns the raw reply.
	// Replies are expected to be a JSON object but are not validated here.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest is a single-turn, JSON-only completion
type CompletionRequest struct {
	// System sets the role and output contract
	System string

	// Prompt is the user message
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// CompletionResponse is the raw reply of a provider
type CompletionResponse struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// TotalTokens returns input plus output tokens
func (r *CompletionResponse) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific default when a request names none)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int
}

// ConfigFromModel converts a vendor configuration to an llm.Config
func ConfigFromModel(vendor model.VendorConfig, maxTokens int) Config {
	return Config{
		Provider:  vendor.Provider,
		APIKey:    vendor.APIKey,
		BaseURL:   vendor.BaseURL,
		Timeout:   vendor.Timeout,
		MaxTokens: maxTokens,
	}
}

func (c Config) maxTokens(requested int) int {
	if requested > 0 {
		return requested
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 1200
}
