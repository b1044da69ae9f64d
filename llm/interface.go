package llm

import "context"

// LlmClient sends a system/user prompt pair to a model capability and
// returns the raw response text. Implementations never retry.
type LlmClient interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type LlmConfig struct {
	APIKey    string
	ModelName string
	BatchID   string
	TellmURL  string
	// BaseURL overrides the provider endpoint. Empty means the provider default.
	BaseURL string
}
