package ports

import "context"

// SpellContentInput carries the synthesized error description and the
// pull-request context it came from.
type SpellContentInput struct {
	ErrorType    string
	Message      string
	Context      string
	StackTrace   string
	Repo         string
	PRNumber     int
	FilesChanged []string
}

type SpellContent struct {
	Title           string
	Description     string
	SolutionCode    string
	ConfidenceScore int
}

// PatchPayload is the provider's answer to a patch-adaptation prompt.
// A non-empty Error means the provider declined or failed to produce a
// patch; the remaining fields are then meaningless.
type PatchPayload struct {
	Patch        string
	FilesTouched []string
	Rationale    string
	Error        string
}

type ContentGenerator interface {
	Provider() string
	GenerateSpellContent(ctx context.Context, input SpellContentInput) (SpellContent, error)
	GeneratePatch(ctx context.Context, prompt string) (PatchPayload, error)
}
