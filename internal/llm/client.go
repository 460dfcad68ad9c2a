package llm

import (
	"context"

	"github.com/tamo2918/voicord/internal/config"
	"github.com/tamo2918/voicord/internal/errdefs"
)

// Client is a chat-completion provider used by the summarizer.
type Client interface {
	// Generate sends a system instruction and a user prompt and returns the
	// model's text response.
	Generate(ctx context.Context, system, prompt string) (string, error)
	// Available reports whether the provider is reachable and the configured
	// model can be served. The second return value is a human-readable hint
	// when it is not.
	Available(ctx context.Context) (bool, string)
	// Name identifies the provider for logs.
	Name() string
}

// New builds the provider named by cfg.LLMProvider.
func New(cfg *config.Config) (Client, error) {
	switch cfg.LLMProvider {
	case "ollama":
		return NewOllamaClient(cfg.OllamaHost, cfg.OllamaModel), nil
	case "openai":
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel), nil
	default:
		return nil, errdefs.Newf(errdefs.CodeUnknown, "unknown llm provider %q", cfg.LLMProvider)
	}
}
