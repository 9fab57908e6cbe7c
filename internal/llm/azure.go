package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/Schorakbi/roboto-ai/internal/config"
)

// AzureOpenAIProvider sends chat completions to an Azure OpenAI deployment in JSON mode.
type AzureOpenAIProvider struct {
	model llms.Model
}

func NewAzureOpenAIProvider(cfg *config.Config) (*AzureOpenAIProvider, error) {
	client, err := openai.New(
		openai.WithAPIType(openai.APITypeAzure),
		openai.WithBaseURL(cfg.AzureEndpoint),
		openai.WithAPIVersion(cfg.AzureAPIVersion),
		openai.WithToken(cfg.AzureAPIKey),
		// Azure routes by deployment name rather than model name.
		openai.WithModel(cfg.AzureDeployment),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure OpenAI client: %w", err)
	}

	return NewProvider(client), nil
}

// NewProvider wraps any langchaingo model.
func NewProvider(model llms.Model) *AzureOpenAIProvider {
	return &AzureOpenAIProvider{model: model}
}

func (p *AzureOpenAIProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	resp, err := p.model.GenerateContent(ctx, messages, llms.WithJSONMode())
	if err != nil {
		return "", err
	}

	if resp == nil || len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return resp.Choices[0].Content, nil
}
