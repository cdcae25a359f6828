package llm

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"grimoire/internal/bootstrap/config"
	"grimoire/internal/domain/spellbook"
	"grimoire/internal/ports"
)

// OpenAIGenerator produces spell content and patches through the OpenAI
// chat completions API in JSON mode.
type OpenAIGenerator struct {
	client    openai.Client
	model     string
	maxTokens int64
	enabled   bool
}

func NewOpenAIGenerator(cfg config.LLMConfig) *OpenAIGenerator {
	return &OpenAIGenerator{
		client:    openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
		enabled:   cfg.APIKey != "",
	}
}

func (g *OpenAIGenerator) Provider() string { return "openai" }

func (g *OpenAIGenerator) GenerateSpellContent(ctx context.Context, input ports.SpellContentInput) (ports.SpellContent, error) {
	if ctx == nil {
		return ports.SpellContent{}, errors.New("context is required")
	}
	if !g.enabled {
		return ports.SpellContent{}, spellbook.ErrProviderNotConfigured
	}

	text, err := g.complete(ctx, 0.7, []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(contentSystemPrompt),
		openai.UserMessage(buildSpellContentPrompt(input)),
	})
	if err != nil {
		return ports.SpellContent{}, err
	}
	return spellContentFromJSON(text)
}

func (g *OpenAIGenerator) GeneratePatch(ctx context.Context, prompt string) (ports.PatchPayload, error) {
	if ctx == nil {
		return ports.PatchPayload{}, errors.New("context is required")
	}
	if !g.enabled {
		return ports.PatchPayload{}, spellbook.ErrProviderNotConfigured
	}

	// Lower temperature keeps patches deterministic.
	text, err := g.complete(ctx, 0.3, []openai.ChatCompletionMessageParamUnion{
		openai.UserMessage(prompt),
	})
	if err != nil {
		return ports.PatchPayload{}, err
	}
	return patchPayloadFromJSON(text)
}

func (g *OpenAIGenerator) complete(ctx context.Context, temperature float64, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(g.model),
		Messages:    messages,
		MaxTokens:   openai.Int(g.maxTokens),
		Temperature: openai.Float(temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return "", classifyProviderError(err)
	}
	if len(resp.Choices) == 0 {
		return "", spellbook.ErrProviderUpstream
	}
	return resp.Choices[0].Message.Content, nil
}
