package llm

import (
	"context"
)

// Provider defines the interface that all LLM providers must implement.
// It provides a unified abstraction for the hosted and local services the
// planner can talk to (Anthropic Claude, OpenAI GPT, Ollama models).
type Provider interface {
	// Name returns the provider name (e.g., "anthropic", "openai", "ollama")
	Name() string

	// Complete sends a completion request and returns the full response.
	// This is a blocking call that waits for the entire response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// Invalidator is implemented by providers that memoize completions.
// InvalidateCompletion evicts the stored response for a request so a repeat
// of the identical request produces a fresh completion. Callers type-assert
// for it before retrying a request whose response was rejected downstream.
type Invalidator interface {
	InvalidateCompletion(ctx context.Context, req CompletionRequest) error
}
