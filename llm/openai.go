package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/santiagomed/appcannon/logger"
	tellm "github.com/santiagomed/tellm/sdk"
	"github.com/sashabaranov/go-openai"
)

const openAIMaxTokens = 4096

// OpenAIClient is the LlmClient for OpenAI chat models.
type OpenAIClient struct {
	openAIClient *openai.Client
	config       *LlmConfig
	tellmClient  *tellm.Client
	logger       logger.Logger
}

func NewOpenAIClient(cfg *LlmConfig, logger logger.Logger) (LlmClient, error) {
	if cfg.APIKey == "" {
		return nil, &CapabilityError{Kind: Fatal, Provider: ProviderOpenAI, Err: errors.New("OpenAI API key is required")}
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIClient{
		openAIClient: openai.NewClientWithConfig(clientCfg),
		config:       cfg,
		tellmClient:  newTellmClient(cfg),
		logger:       logger,
	}, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.openAIClient.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:     c.config.ModelName,
			MaxTokens: openAIMaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: system,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: user,
				},
			},
		},
	)
	if err != nil {
		return "", c.classify(ctx, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &CapabilityError{Kind: Fatal, Provider: ProviderOpenAI, Err: ErrEmptyResponse}
	}
	usage := resp.Usage
	res := resp.Choices[0].Message.Content
	logCompletion(c.tellmClient, c.config, c.logger, user, res, usage.PromptTokens, usage.CompletionTokens)

	return res, nil
}

func (c *OpenAIClient) classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	apiErr := &openai.APIError{}
	if errors.As(err, &apiErr) {
		return newStatusError(ProviderOpenAI, apiErr.HTTPStatusCode, fmt.Errorf("OpenAI API error: %w", err))
	}

	reqErr := &openai.RequestError{}
	if errors.As(err, &reqErr) {
		return newStatusError(ProviderOpenAI, reqErr.HTTPStatusCode, fmt.Errorf("OpenAI request error: %w", err))
	}

	// transport failure before any HTTP status was received
	return &CapabilityError{Kind: Transient, Provider: ProviderOpenAI, Err: err}
}
