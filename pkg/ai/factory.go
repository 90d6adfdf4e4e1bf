package ai

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// FactoryConfig selects and configures a judge provider.
type FactoryConfig struct {
	Provider        string
	Model           string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AnthropicAPIKey string
	MaxAttempts     int
	Logger          zerolog.Logger
}

// NewJudge builds the configured judge. A "none" provider returns a nil judge, which makes every
// subjective answer use the deterministic fallback.
func NewJudge(cfg FactoryConfig) (Judge, error) {
	var (
		judge Judge
		err   error
	)

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "none":
		return nil, nil
	case "openai":
		judge, err = NewOpenAIJudge(OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.Model,
			BaseURL: cfg.OpenAIBaseURL,
			Logger:  cfg.Logger,
		})
	case "anthropic":
		judge, err = NewAnthropicJudge(AnthropicConfig{
			APIKey: cfg.AnthropicAPIKey,
			Model:  cfg.Model,
		})
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return WithRetry(judge, RetryConfig{MaxAttempts: cfg.MaxAttempts}), nil
}
