package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/Schorakbi/roboto-ai/internal/config"
)

type stubModel struct {
	resp     *llms.ContentResponse
	err      error
	messages []llms.MessageContent
	options  llms.CallOptions
}

func (s *stubModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	s.messages = messages
	for _, opt := range options {
		opt(&s.options)
	}
	return s.resp, s.err
}

func (s *stubModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, s, prompt, options...)
}

func TestComplete_SendsSystemAndUserMessagesInJSONMode(t *testing.T) {
	model := &stubModel{
		resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: `{"action":"CHARGE","valid_command":true}`}}},
	}
	provider := NewProvider(model)

	content, err := provider.Complete(context.Background(), "system text", "user text")

	require.NoError(t, err)
	assert.Equal(t, `{"action":"CHARGE","valid_command":true}`, content)
	assert.True(t, model.options.JSONMode)

	require.Len(t, model.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Equal(t, []llms.ContentPart{llms.TextContent{Text: "system text"}}, model.messages[0].Parts)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[1].Role)
	assert.Equal(t, []llms.ContentPart{llms.TextContent{Text: "user text"}}, model.messages[1].Parts)
}

func TestComplete_PropagatesUpstreamError(t *testing.T) {
	upstreamErr := errors.New("401 Unauthorized")
	provider := NewProvider(&stubModel{err: upstreamErr})

	_, err := provider.Complete(context.Background(), "s", "u")

	assert.ErrorIs(t, err, upstreamErr)
	assert.Equal(t, "401 Unauthorized", err.Error())
}

func TestComplete_NoChoices(t *testing.T) {
	provider := NewProvider(&stubModel{resp: &llms.ContentResponse{}})

	_, err := provider.Complete(context.Background(), "s", "u")

	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestNewAzureOpenAIProvider(t *testing.T) {
	provider, err := NewAzureOpenAIProvider(&config.Config{
		AzureEndpoint:   "https://example.openai.azure.com/",
		AzureAPIKey:     "test-key",
		AzureAPIVersion: "2025-01-01-preview",
		AzureDeployment: "o4-mini",
	})

	require.NoError(t, err)
	assert.NotNil(t, provider)
}
