package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"grimoire/internal/bootstrap/config"
	"grimoire/internal/domain/spellbook"
	"grimoire/internal/ports"
)

// NewContentGenerator builds the configured provider. The config layer has
// already validated the provider name; unknown values still error here so
// manual construction fails loudly.
func NewContentGenerator(cfg config.LLMConfig) (ports.ContentGenerator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "openai":
		return NewOpenAIGenerator(cfg), nil
	case "anthropic":
		return NewAnthropicGenerator(cfg), nil
	case "mock":
		return NewMockGenerator(), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

// classifyProviderError maps transport failures onto the domain sentinels.
func classifyProviderError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", spellbook.ErrProviderTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %v", spellbook.ErrProviderUpstream, err)
	}
}
