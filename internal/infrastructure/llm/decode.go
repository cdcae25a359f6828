package llm

import (
	"encoding/json"

	"grimoire/internal/errs"
	"grimoire/internal/ports"
)

const (
	defaultContentTitle      = "Auto-generated spell"
	defaultContentConfidence = 50
)

type contentResponse struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	SolutionCode    string `json:"solution_code"`
	ConfidenceScore *int   `json:"confidence_score"`
}

func spellContentFromJSON(raw string) (ports.SpellContent, error) {
	var decoded contentResponse
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return ports.SpellContent{}, errs.Wrap(err, "decode spell content response")
	}

	content := ports.SpellContent{
		Title:           decoded.Title,
		Description:     decoded.Description,
		SolutionCode:    decoded.SolutionCode,
		ConfidenceScore: defaultContentConfidence,
	}
	if content.Title == "" {
		content.Title = defaultContentTitle
	}
	if decoded.ConfidenceScore != nil {
		content.ConfidenceScore = *decoded.ConfidenceScore
	}
	return content, nil
}

type patchResponse struct {
	Patch        *string   `json:"patch"`
	FilesTouched *[]string `json:"files_touched"`
	Rationale    *string   `json:"rationale"`
	Error        string    `json:"error"`
}

// patchPayloadFromJSON decodes a patch response. A provider-declared error
// or a missing required field lands in PatchPayload.Error so the caller can
// treat both as validation failures.
func patchPayloadFromJSON(raw string) (ports.PatchPayload, error) {
	var decoded patchResponse
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return ports.PatchPayload{}, errs.Wrap(err, "decode patch response")
	}

	if decoded.Error != "" {
		return ports.PatchPayload{Error: decoded.Error}, nil
	}
	if decoded.Patch == nil || decoded.FilesTouched == nil || decoded.Rationale == nil {
		return ports.PatchPayload{Error: "provider response missing required fields (patch, files_touched, rationale)"}, nil
	}

	return ports.PatchPayload{
		Patch:        *decoded.Patch,
		FilesTouched: *decoded.FilesTouched,
		Rationale:    *decoded.Rationale,
	}, nil
}
