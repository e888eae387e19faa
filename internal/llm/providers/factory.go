package providers

import (
	"fmt"

	"github.com/grazerhq/grazer/internal/llm"
)

// NewProvider creates an LLM provider from the configuration.
func NewProvider(cfg llm.Config) (llm.Provider, error) {
	switch cfg.Provider {
	case llm.ProviderAnthropic:
		return NewAnthropicProvider(cfg)

	case llm.ProviderOpenAI:
		return NewOpenAIProvider(cfg)

	case llm.ProviderOllama:
		return NewOllamaProvider(cfg)

	case llm.ProviderMock:
		return NewMockProvider([]string{"Mock response"}), nil

	default:
		return nil, llm.NewInvalidRequestError(fmt.Sprintf("unknown provider type: %s", cfg.Provider))
	}
}
