package spellbook

import "strings"

// ChangedFiles extracts the post-image paths from a unified git diff.
// Only "diff --git" header lines are inspected; hunk content is ignored.
func ChangedFiles(diff string) []string {
	files := make([]string, 0, 8)

	for _, line := range strings.Split(diff, "\n") {
		if !strings.HasPrefix(line, "diff --git") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 4 {
			continue
		}

		// The fourth field carries the "b/" path-type prefix.
		path := parts[3]
		if len(path) > 2 {
			path = path[2:]
		}
		files = append(files, path)
	}

	return files
}
