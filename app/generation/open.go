package generation

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/boardswallah/boards-press/app/catalog"
	"github.com/boardswallah/boards-press/app/cfg"
)

// NewFromConfig builds a client for the configured provider and output mode.
func NewFromConfig(config *cfg.Cfg, catalogStore *catalog.Store) (*Client, error) {
	httpClient := &http.Client{}

	var provider Provider
	switch config.LLMProvider {
	case "chat":
		provider = NewChatProvider(config.LLMEndpoint, config.LLMModel, config.LLMAPIKey, httpClient)
	case "anthropic":
		provider = NewAnthropicProvider(config.LLMModel, config.LLMAPIKey)
	default:
		return nil, fmt.Errorf("unknown generation provider %q", config.LLMProvider)
	}

	mode := Mode(config.OutputMode)
	if mode != ModeStructured && mode != ModeStatements {
		return nil, fmt.Errorf("unknown output mode %q", config.OutputMode)
	}

	if config.LLMAPIKey == "" {
		slog.Warn("No generation API key configured, provider calls will be rejected", "provider", provider.Name())
	}

	return NewClient(provider, catalogStore,
		WithMode(mode),
		WithTimeout(config.GenerationTimeout),
		WithFetcher(NewSourceFetcher(httpClient, config.UserAgent, DefaultSourceChars)),
	), nil
}
