package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grazerhq/grazer/internal/llm"
)

func TestNewProvider(t *testing.T) {
	t.Run("mock", func(t *testing.T) {
		p, err := NewProvider(llm.Config{Provider: llm.ProviderMock})
		require.NoError(t, err)
		assert.Equal(t, "mock", p.Name())
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := NewProvider(llm.Config{Provider: "telex"})
		require.Error(t, err)
	})

	t.Run("openai requires api key", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "")
		_, err := NewProvider(llm.Config{Provider: llm.ProviderOpenAI, Model: "gpt-4o"})
		require.Error(t, err)
	})

	t.Run("anthropic requires api key", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")
		_, err := NewProvider(llm.Config{Provider: llm.ProviderAnthropic, Model: "claude-3-haiku-20240307"})
		require.Error(t, err)
	})
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider([]string{"first", "second"})
	ctx := context.Background()
	req := llm.CompletionRequest{Model: "mock-model", Messages: []llm.Message{llm.NewUserMessage("hi")}}

	resp, err := p.Complete(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Message.Content)

	resp, err = p.Complete(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Message.Content)

	resp, err = p.Complete(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Message.Content, "responses wrap around")

	assert.Len(t, p.GetCalls(), 3)

	p.Reset()
	p.FailWith(0, llm.NewRateLimitError("mock"))
	_, err = p.Complete(ctx, req)
	require.Error(t, err)
	assert.True(t, llm.IsRetryable(err))
}
