package spellbook

import (
	"fmt"
	"strings"

	domainspellbook "grimoire/internal/domain/spellbook"
)

// buildErrorDescription reduces a processed pull request to the synthetic
// error description the matcher and generator consume.
func buildErrorDescription(action string, pr PRProcessingResult) domainspellbook.ErrorDescription {
	repo := pr.Repo
	if repo == "" {
		repo = "unknown"
	}
	if action == "" {
		action = "unknown"
	}

	contextParts := []string{
		fmt.Sprintf("Repository: %s", repo),
		fmt.Sprintf("PR #%d", pr.PRNumber),
		fmt.Sprintf("Action: %s", action),
		fmt.Sprintf("Files changed: %d", len(pr.FilesChanged)),
	}

	if len(pr.FilesChanged) > 0 {
		shown := pr.FilesChanged
		if len(shown) > 5 {
			shown = shown[:5]
		}
		contextParts = append(contextParts, fmt.Sprintf("Modified files: %s", strings.Join(shown, ", ")))
		if extra := len(pr.FilesChanged) - 5; extra > 0 {
			contextParts = append(contextParts, fmt.Sprintf("... and %d more", extra))
		}
	}

	return domainspellbook.ErrorDescription{
		ErrorType:  "PullRequestChange",
		Message:    fmt.Sprintf("Pull request %s in %s", action, repo),
		Context:    strings.Join(contextParts, " | "),
		StackTrace: "",
	}
}
