package llm

import (
	"fmt"
	"strings"

	"github.com/grazerhq/grazer/internal/types"
)

// ProviderType represents the type of LLM provider.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderOllama    ProviderType = "ollama"
	ProviderMock      ProviderType = "mock"
)

// Config contains the provider configuration for the planner's single model
// slot. Both the selection and narration stages share it.
type Config struct {
	Provider    ProviderType `mapstructure:"provider" yaml:"provider" validate:"required,oneof=anthropic openai ollama mock"`
	Model       string       `mapstructure:"model" yaml:"model" validate:"required"`
	APIKey      string       `mapstructure:"api_key" yaml:"api_key"`
	BaseURL     string       `mapstructure:"base_url" yaml:"base_url"`
	Temperature float64      `mapstructure:"temperature" yaml:"temperature" validate:"gte=0,lte=1"`
	TopP        float64      `mapstructure:"top_p" yaml:"top_p" validate:"gte=0,lte=1"`
	Seed        int          `mapstructure:"seed" yaml:"seed"`
	MaxTokens   int          `mapstructure:"max_tokens" yaml:"max_tokens" validate:"min=0"`
	CachePath   string       `mapstructure:"cache_path" yaml:"cache_path"`
	Retry       RetryConfig  `mapstructure:"retry" yaml:"retry"`
}

// DefaultConfig returns the model slot defaults. Sampling is deliberately
// pinned (fixed seed) so cached runs replay byte-identically.
func DefaultConfig() Config {
	return Config{
		Provider:    ProviderOpenAI,
		Model:       "gpt-4o-mini",
		Temperature: 0.7,
		TopP:        0.95,
		Seed:        42,
		CachePath:   ".cache/completions.db",
		Retry:       DefaultRetryConfig(),
	}
}

// Validate performs validation on the Config.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderAnthropic, ProviderOpenAI, ProviderOllama, ProviderMock:
	case "":
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "llm provider cannot be empty")
	default:
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("invalid llm provider '%s', must be one of: anthropic, openai, ollama, mock", c.Provider))
	}

	if c.Model == "" && c.Provider != ProviderMock {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "llm model cannot be empty")
	}

	if c.Temperature < 0 || c.Temperature > 1 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("temperature must be between 0 and 1, got %f", c.Temperature))
	}

	if c.TopP < 0 || c.TopP > 1 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("top_p must be between 0 and 1, got %f", c.TopP))
	}

	return nil
}

// NewRequest builds a completion request carrying the slot's sampling
// parameters for the given messages.
func (c *Config) NewRequest(messages []Message) CompletionRequest {
	return CompletionRequest{
		Model:       c.Model,
		Messages:    messages,
		Temperature: c.Temperature,
		TopP:        c.TopP,
		MaxTokens:   c.MaxTokens,
		Seed:        c.Seed,
	}
}

// NormalizeProviderName normalizes provider names for consistent lookup.
func NormalizeProviderName(name string) ProviderType {
	return ProviderType(strings.ToLower(strings.TrimSpace(name)))
}
