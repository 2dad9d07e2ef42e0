package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/inkling/internal/config"
	"github.com/abhisek/inkling/internal/logger"
)

// NewProvider creates a Provider from configuration, wrapped with the full
// middleware chain: caller → retry → breaker → logging → base.
func NewProvider(ctx context.Context, cfg config.AIConfig, recorder CallRecorder, log *logger.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "openai":
		base, err = NewOpenAIProvider(Options{
			APIKey:  cfg.OpenAI.APIKey,
			Model:   cfg.OpenAI.Model,
			BaseURL: cfg.OpenAI.BaseURL,
		})
	case "anthropic":
		base, err = NewAnthropicProvider(Options{
			APIKey: cfg.Anthropic.APIKey,
			Model:  cfg.Anthropic.Model,
		})
	case "gemini":
		base, err = NewGeminiProvider(ctx, Options{
			APIKey: cfg.Gemini.APIKey,
			Model:  cfg.Gemini.Model,
		})
	case "openrouter":
		base, err = NewOpenAIProvider(Options{
			APIKey:  cfg.OpenRouter.APIKey,
			Model:   cfg.OpenRouter.Model,
			BaseURL: cfg.OpenRouter.BaseURL,
		})
	case "local":
		base, err = NewOpenAIProvider(Options{
			Model:   cfg.Local.Model,
			BaseURL: cfg.Local.BaseURL,
		})
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	logged := WithLogging(base, recorder, log)
	broken := WithBreaker(logged, log)
	return WithRetry(broken, DefaultRetryConfig(cfg.MaxAttempts)), nil
}
