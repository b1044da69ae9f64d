package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/santiagomed/appcannon/logger"
	tellm "github.com/santiagomed/tellm/sdk"
)

const (
	anthropicURL       = "https://api.anthropic.com/v1/messages"
	anthropicVersion   = "2023-06-01"
	anthropicMaxTokens = 8192
)

type AnthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
		Type string `json:"type"`
	} `json:"content"`
	ID           string  `json:"id"`
	Model        string  `json:"model"`
	Role         string  `json:"role"`
	StopReason   string  `json:"stop_reason"`
	StopSequence *string `json:"stop_sequence"`
	Type         string  `json:"type"`
	Usage        struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type AnthropicErrorResponse struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type AnthropicRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []Message `json:"messages"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type AnthropicClient struct {
	config      *LlmConfig
	url         string
	tellmClient *tellm.Client
	logger      logger.Logger
	httpClient  *http.Client
}

func NewAnthropicClient(cfg *LlmConfig, logger logger.Logger) (LlmClient, error) {
	if cfg.APIKey == "" {
		return nil, &CapabilityError{Kind: Fatal, Provider: ProviderAnthropic, Err: errors.New("anthropic API key is required")}
	}
	url := anthropicURL
	if cfg.BaseURL != "" {
		url = cfg.BaseURL
	}
	return &AnthropicClient{
		config:      cfg,
		url:         url,
		tellmClient: newTellmClient(cfg),
		logger:      logger,
		httpClient:  &http.Client{},
	}, nil
}

func (a *AnthropicClient) Complete(ctx context.Context, system, user string) (string, error) {
	req := AnthropicRequest{
		Model:     a.config.ModelName,
		MaxTokens: anthropicMaxTokens,
		System:    system,
		Messages: []Message{
			{Role: "user", Content: user},
		},
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return "", &CapabilityError{Kind: Fatal, Provider: ProviderAnthropic, Err: fmt.Errorf("error marshaling request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", &CapabilityError{Kind: Fatal, Provider: ProviderAnthropic, Err: fmt.Errorf("error creating request: %w", err)}
	}

	httpReq.Header.Set("x-api-key", a.config.APIKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("content-type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &CapabilityError{Kind: Transient, Provider: ProviderAnthropic, Err: fmt.Errorf("error sending request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &CapabilityError{Kind: Transient, Provider: ProviderAnthropic, Err: fmt.Errorf("error reading response body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		var errResp AnthropicErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil {
			return "", newStatusError(ProviderAnthropic, resp.StatusCode, fmt.Errorf("unreadable error response: %s", string(body)))
		}
		return "", newStatusError(ProviderAnthropic, resp.StatusCode, fmt.Errorf("%s - %s", errResp.Error.Type, errResp.Error.Message))
	}

	var anthropicResp AnthropicResponse
	if err := json.Unmarshal(body, &anthropicResp); err != nil {
		return "", &CapabilityError{Kind: Fatal, Provider: ProviderAnthropic, Err: fmt.Errorf("error unmarshaling response: %w", err)}
	}

	if len(anthropicResp.Content) == 0 {
		return "", &CapabilityError{Kind: Fatal, Provider: ProviderAnthropic, Err: ErrEmptyResponse}
	}

	res := anthropicResp.Content[0].Text
	logCompletion(a.tellmClient, a.config, a.logger, user, res, anthropicResp.Usage.InputTokens, anthropicResp.Usage.OutputTokens)

	return res, nil
}
