package llm

import (
	"context"
	"strings"
	"testing"

	"grimoire/internal/bootstrap/config"
	"grimoire/internal/ports"
)

func TestNewContentGenerator(t *testing.T) {
	for _, provider := range []string{"openai", "anthropic", "mock"} {
		gen, err := NewContentGenerator(config.LLMConfig{Provider: provider, Model: "m", MaxTokens: 100})
		if err != nil {
			t.Fatalf("NewContentGenerator(%q) error = %v", provider, err)
		}
		if gen.Provider() != provider {
			t.Fatalf("Provider() = %q, want %q", gen.Provider(), provider)
		}
	}

	if _, err := NewContentGenerator(config.LLMConfig{Provider: "cohere"}); err == nil {
		t.Fatalf("NewContentGenerator(unknown) expected error")
	}
}

func TestSpellContentFromJSONDefaults(t *testing.T) {
	content, err := spellContentFromJSON(`{"description":"d","solution_code":"s"}`)
	if err != nil {
		t.Fatalf("spellContentFromJSON() error = %v", err)
	}
	if content.Title != defaultContentTitle {
		t.Fatalf("Title = %q, want default", content.Title)
	}
	if content.ConfidenceScore != defaultContentConfidence {
		t.Fatalf("ConfidenceScore = %d, want default", content.ConfidenceScore)
	}

	if _, err := spellContentFromJSON("not json"); err == nil {
		t.Fatalf("spellContentFromJSON(garbage) expected error")
	}
}

func TestPatchPayloadFromJSON(t *testing.T) {
	payload, err := patchPayloadFromJSON(`{"patch":"diff --git a/x b/x","files_touched":["x"],"rationale":"r"}`)
	if err != nil {
		t.Fatalf("patchPayloadFromJSON() error = %v", err)
	}
	if payload.Error != "" || payload.Patch == "" || len(payload.FilesTouched) != 1 {
		t.Fatalf("payload = %+v", payload)
	}

	payload, err = patchPayloadFromJSON(`{"patch":"diff"}`)
	if err != nil {
		t.Fatalf("patchPayloadFromJSON(partial) error = %v", err)
	}
	if !strings.Contains(payload.Error, "missing required fields") {
		t.Fatalf("payload.Error = %q", payload.Error)
	}

	payload, err = patchPayloadFromJSON(`{"error":"cannot adapt"}`)
	if err != nil {
		t.Fatalf("patchPayloadFromJSON(error) error = %v", err)
	}
	if payload.Error != "cannot adapt" {
		t.Fatalf("payload.Error = %q", payload.Error)
	}
}

func TestMockGeneratorDeterministic(t *testing.T) {
	gen := NewMockGenerator()
	ctx := context.Background()

	content, err := gen.GenerateSpellContent(ctx, ports.SpellContentInput{
		ErrorType: "TypeError",
		Message:   "Pull request opened in acme/api",
	})
	if err != nil {
		t.Fatalf("GenerateSpellContent() error = %v", err)
	}
	if !strings.HasPrefix(content.Title, "Fix TypeError:") {
		t.Fatalf("Title = %q", content.Title)
	}
	if content.ConfidenceScore != 85 {
		t.Fatalf("ConfidenceScore = %d", content.ConfidenceScore)
	}

	payload, err := gen.GeneratePatch(ctx, "Language: python\nRepository: acme/api")
	if err != nil {
		t.Fatalf("GeneratePatch() error = %v", err)
	}
	if !strings.HasPrefix(payload.Patch, "diff --git") {
		t.Fatalf("Patch = %q", payload.Patch)
	}
	if len(payload.FilesTouched) != 1 || payload.FilesTouched[0] != "app/main.py" {
		t.Fatalf("FilesTouched = %v", payload.FilesTouched)
	}
}

func TestExtractJSONObject(t *testing.T) {
	got := extractJSONObject("Here is the JSON:\n{\"a\": 1}\nHope that helps.")
	if got != `{"a": 1}` {
		t.Fatalf("extractJSONObject() = %q", got)
	}

	if got := extractJSONObject("no braces"); got != "no braces" {
		t.Fatalf("extractJSONObject(no braces) = %q", got)
	}
}
