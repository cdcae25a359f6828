package spellbook

import (
	"fmt"
	"strings"

	domainspellbook "grimoire/internal/domain/spellbook"
	"grimoire/internal/ports"
)

const patchSystemPrompt = `You are an automated code patch generator. You will be given:
(1) failing context (stack trace, failing test name, repo language & version)
(2) a canonical spell incantation (git diff or code solution)
(3) adaptation constraints

Produce a git unified diff that applies to the repository at the specified commit SHA.

Do not output anything other than: a JSON object with keys "patch" (string with unified git diff), "files_touched" (list of paths), and "rationale" (short, 1-2 lines).

Do NOT include explanations outside the JSON. If unable, return {"error": "..."}.`

func buildPatchPrompt(spell ports.Spell, fc FailingContext, constraints domainspellbook.AdaptationConstraints) string {
	contextParts := []string{
		fmt.Sprintf("- repository: %s", fc.Repository),
		fmt.Sprintf("- commit_sha: %s", fc.CommitSHA),
	}
	if fc.Language != "" {
		contextParts = append(contextParts, fmt.Sprintf("- language: %s", fc.Language))
	}
	if fc.Version != "" {
		contextParts = append(contextParts, fmt.Sprintf("- version: %s", fc.Version))
	}
	if fc.FailingTest != "" {
		contextParts = append(contextParts, fmt.Sprintf("- failing_test: %s", fc.FailingTest))
	}
	if fc.StackTrace != "" {
		contextParts = append(contextParts, fmt.Sprintf("- stack_trace: %s", fc.StackTrace))
	}

	constraintParts := []string{
		fmt.Sprintf("- Limit changes to at most %d files", constraints.MaxFiles),
	}
	if constraints.PreserveStyle {
		constraintParts = append(constraintParts, "- Keep coding style intact")
	}
	if len(constraints.ExcludedPatterns) > 0 {
		constraintParts = append(constraintParts,
			fmt.Sprintf("- Do not change: %s", strings.Join(constraints.ExcludedPatterns, ", ")))
	}

	return fmt.Sprintf(`%s

Context:
%s

Spell (incantation):
%s

Constraints:
%s

Return:
{"patch": "...git diff...", "files_touched": ["..."], "rationale": "..."}`,
		patchSystemPrompt,
		strings.Join(contextParts, "\n"),
		spell.SolutionCode,
		strings.Join(constraintParts, "\n"),
	)
}
