package llm

import (
	"testing"

	"github.com/santiagomed/appcannon/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCapability(t *testing.T) {
	tests := []struct {
		model    string
		provider Provider
	}{
		{"claude-3-5-sonnet-20241022", ProviderAnthropic},
		{"claude-3-opus-20240229", ProviderAnthropic},
		{"gpt-4o-mini", ProviderOpenAI},
		{"o1-preview", ProviderOpenAI},
		{"o3-mini", ProviderOpenAI},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			c, err := ParseCapability(tt.model)
			require.NoError(t, err)
			assert.Equal(t, tt.provider, c.Provider)
			assert.Equal(t, tt.model, c.Model)
		})
	}
}

func TestParseCapability_Unsupported(t *testing.T) {
	_, err := ParseCapability("llama3:8b")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedCapability)
	assert.False(t, IsTransient(err))
}

func TestNewClient(t *testing.T) {
	c, err := NewClient(&LlmConfig{APIKey: "k", ModelName: "claude-3-5-sonnet-20241022"}, logger.NewNullLogger())
	require.NoError(t, err)
	assert.IsType(t, &AnthropicClient{}, c)

	c, err = NewClient(&LlmConfig{APIKey: "k", ModelName: "gpt-4o"}, logger.NewNullLogger())
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)

	_, err = NewClient(&LlmConfig{APIKey: "k", ModelName: "mistral-large"}, logger.NewNullLogger())
	assert.ErrorIs(t, err, ErrUnsupportedCapability)

	_, err = NewClient(&LlmConfig{ModelName: "gpt-4o"}, logger.NewNullLogger())
	require.Error(t, err)
	assert.False(t, IsTransient(err))
}

func TestEnsureBatchID(t *testing.T) {
	id := EnsureBatchID("my-project")
	assert.Len(t, id, 24)
	assert.True(t, isValidBatchID(id))
	assert.Equal(t, id, EnsureBatchID(id))
}
