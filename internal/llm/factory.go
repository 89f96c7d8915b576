package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/citecheck/internal/model"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case VendorOpenAI:
		return NewOpenAIProvider(config)

	case VendorAnthropic, "claude":
		return NewAnthropicProvider(config)

	case VendorOllama:
		return NewOllamaProvider(config)

	case "":
		return nil, fmt.Errorf("no LLM provider configured")

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// NewProviders builds the primary and adversarial providers keyed by vendor.
// A missing API key for a hosted vendor is a configuration error.
func NewProviders(cfg model.LLMConfig) (map[string]Provider, error) {
	providers := make(map[string]Provider, 2)
	for _, vendor := range []model.VendorConfig{cfg.Primary, cfg.Adversarial} {
		name := normalizeVendor(vendor.Provider)
		if _, ok := providers[name]; ok {
			continue
		}
		if name != VendorOllama && strings.TrimSpace(vendor.APIKey) == "" {
			return nil, fmt.Errorf("%s API key: %w", name, model.ErrMissingCredentials)
		}
		p, err := NewProvider(ConfigFromModel(vendor, cfg.MaxTokens))
		if err != nil {
			return nil, err
		}
		providers[name] = p
	}
	return providers, nil
}
