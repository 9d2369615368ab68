package llm

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// BackendConfig selects and configures a generator backend.
type BackendConfig struct {
	Provider string // "openai" or "anthropic"
	Endpoint string // OpenAI-compatible base URL; ignored for anthropic
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// NewClientFromConfig creates the backend client named by the config.
func NewClientFromConfig(cfg *BackendConfig, logger *zap.Logger) (Client, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(&OpenAIConfig{
			Endpoint: cfg.Endpoint,
			Model:    cfg.Model,
			APIKey:   cfg.APIKey,
			Timeout:  cfg.Timeout,
		}, logger)
	case "anthropic":
		return NewAnthropicClient(&AnthropicConfig{
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
			Timeout: cfg.Timeout,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
