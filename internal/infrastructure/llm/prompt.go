package llm

import (
	"fmt"
	"strings"

	"grimoire/internal/ports"
)

const contentSystemPrompt = "You are a helpful code assistant that generates structured solutions for code errors."

func buildSpellContentPrompt(input ports.SpellContentInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are a code assistant helping to document error patterns and solutions.

Given the following error information, generate a spell (reusable solution pattern):

Error Type: %s
Error Message: %s
Code Context: %s
`, input.ErrorType, input.Message, input.Context)

	if input.Repo != "" {
		files := input.FilesChanged
		if len(files) > 5 {
			files = files[:5]
		}
		fmt.Fprintf(&b, `
Pull Request Context:
- Repository: %s
- PR Number: %d
- Files Changed: %s
`, input.Repo, input.PRNumber, strings.Join(files, ", "))
	}

	b.WriteString(`
Please provide:
1. A short, descriptive title (max 100 chars)
2. A detailed description explaining the error and solution approach
3. Example solution code or pattern
4. A confidence score (0-100) indicating how confident you are in this solution

Format your response as JSON:
{
  "title": "...",
  "description": "...",
  "solution_code": "...",
  "confidence_score": 85
}
`)

	return b.String()
}
