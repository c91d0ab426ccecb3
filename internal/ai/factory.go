package ai

import (
	"fmt"
	"strings"

	"github.com/campusfind/campusfind/config"
)

// NewProvider creates an AI provider based on configuration. An empty
// provider name yields the disabled no-op provider, so the rest of the
// application never has to nil-check.
func NewProvider(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini", "google":
		return NewGeminiProvider(cfg)

	case "openai":
		return NewOpenAIProvider(cfg)

	case "":
		return Disabled{}, nil

	default:
		return nil, fmt.Errorf("unknown AI provider: %s (supported: gemini, openai)", cfg.Provider)
	}
}

// ConfigFromApp converts the application AI config.
func ConfigFromApp(appCfg config.AIConfig) Config {
	return Config{
		Provider:          appCfg.Provider,
		APIKey:            appCfg.APIKey,
		Model:             appCfg.Model,
		VisionModel:       appCfg.VisionModel,
		BaseURL:           appCfg.BaseURL,
		Timeout:           appCfg.TimeoutSecs,
		RequestsPerMinute: appCfg.RequestsPerMinute,
	}
}
