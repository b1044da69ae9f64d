package llm

import (
	"fmt"
	"strings"

	"github.com/santiagomed/appcannon/logger"
)

type Provider int

const (
	ProviderUnknown Provider = iota
	ProviderAnthropic
	ProviderOpenAI
)

func (p Provider) String() string {
	switch p {
	case ProviderAnthropic:
		return "anthropic"
	case ProviderOpenAI:
		return "openai"
	default:
		return "unknown"
	}
}

// Capability is a model identifier resolved to the provider that serves it.
type Capability struct {
	Provider Provider
	Model    string
}

var capabilityPrefixes = []struct {
	prefix   string
	provider Provider
}{
	{"claude", ProviderAnthropic},
	{"gpt-", ProviderOpenAI},
	{"o1", ProviderOpenAI},
	{"o3", ProviderOpenAI},
	{"o4", ProviderOpenAI},
}

// ParseCapability resolves a model identifier by its naming convention.
func ParseCapability(model string) (Capability, error) {
	for _, cp := range capabilityPrefixes {
		if strings.HasPrefix(model, cp.prefix) {
			return Capability{Provider: cp.provider, Model: model}, nil
		}
	}
	return Capability{}, &CapabilityError{
		Kind:     Fatal,
		Provider: ProviderUnknown,
		Err:      fmt.Errorf("%w: %q", ErrUnsupportedCapability, model),
	}
}

// NewClient resolves cfg.ModelName once and builds the matching adapter.
func NewClient(cfg *LlmConfig, logger logger.Logger) (LlmClient, error) {
	c, err := ParseCapability(cfg.ModelName)
	if err != nil {
		return nil, err
	}
	switch c.Provider {
	case ProviderAnthropic:
		return NewAnthropicClient(cfg, logger)
	case ProviderOpenAI:
		return NewOpenAIClient(cfg, logger)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedCapability, cfg.ModelName)
}
