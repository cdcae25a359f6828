package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"grimoire/internal/bootstrap/config"
	"grimoire/internal/domain/spellbook"
	"grimoire/internal/ports"
)

// AnthropicGenerator produces spell content and patches through the
// Anthropic messages API. The API has no JSON mode, so responses are
// trimmed to the outermost JSON object before decoding.
type AnthropicGenerator struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	enabled   bool
}

func NewAnthropicGenerator(cfg config.LLMConfig) *AnthropicGenerator {
	return &AnthropicGenerator{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
		enabled:   cfg.APIKey != "",
	}
}

func (g *AnthropicGenerator) Provider() string { return "anthropic" }

func (g *AnthropicGenerator) GenerateSpellContent(ctx context.Context, input ports.SpellContentInput) (ports.SpellContent, error) {
	if ctx == nil {
		return ports.SpellContent{}, errors.New("context is required")
	}
	if !g.enabled {
		return ports.SpellContent{}, spellbook.ErrProviderNotConfigured
	}

	text, err := g.complete(ctx, buildSpellContentPrompt(input))
	if err != nil {
		return ports.SpellContent{}, err
	}
	return spellContentFromJSON(text)
}

func (g *AnthropicGenerator) GeneratePatch(ctx context.Context, prompt string) (ports.PatchPayload, error) {
	if ctx == nil {
		return ports.PatchPayload{}, errors.New("context is required")
	}
	if !g.enabled {
		return ports.PatchPayload{}, spellbook.ErrProviderNotConfigured
	}

	text, err := g.complete(ctx, prompt)
	if err != nil {
		return ports.PatchPayload{}, err
	}
	return patchPayloadFromJSON(text)
}

func (g *AnthropicGenerator) complete(ctx context.Context, prompt string) (string, error) {
	msg, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: g.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", classifyProviderError(err)
	}
	if len(msg.Content) == 0 {
		return "", spellbook.ErrProviderUpstream
	}

	return extractJSONObject(msg.Content[0].Text), nil
}

// extractJSONObject returns the substring between the first '{' and the
// last '}'. Claude tends to wrap JSON answers in prose.
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return text
	}
	return text[start : end+1]
}
