package spellbook

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

const DefaultMaxPatchFiles = 3

// AdaptationConstraints bound what an adapted patch is allowed to do.
type AdaptationConstraints struct {
	MaxFiles         int
	ExcludedPatterns []string
	PreserveStyle    bool
}

func DefaultConstraints() AdaptationConstraints {
	return AdaptationConstraints{
		MaxFiles:         DefaultMaxPatchFiles,
		ExcludedPatterns: []string{"package.json", "*.lock"},
		PreserveStyle:    true,
	}
}

var patchFilePattern = regexp.MustCompile(`diff --git a/(\S+) b/(\S+)`)

// ValidatePatch checks a provider-produced patch for structural sanity and
// constraint compliance. Failures come back as *ValidationError.
func ValidatePatch(patch string, filesTouched []string, constraints AdaptationConstraints) error {
	if !strings.HasPrefix(strings.TrimSpace(patch), "diff --git") {
		return NewValidationError("Patch must start with valid git diff header (diff --git)")
	}

	hasFileMarkers := strings.Contains(patch, "+++") && strings.Contains(patch, "---")
	hasHunkMarkers := strings.Contains(patch, "@@")
	if !hasFileMarkers || !hasHunkMarkers {
		return NewValidationError("Patch must contain valid unified diff markers (+++, ---, @@)")
	}

	if len(filesTouched) > constraints.MaxFiles {
		return NewValidationError(fmt.Sprintf(
			"Patch modifies %d files, exceeds limit of %d", len(filesTouched), constraints.MaxFiles,
		))
	}

	declared := make(map[string]struct{}, len(filesTouched))
	for _, path := range filesTouched {
		declared[path] = struct{}{}
	}

	missing := make([]string, 0, 2)
	seen := make(map[string]struct{})
	for _, match := range patchFilePattern.FindAllStringSubmatch(patch, -1) {
		// The post-image path is authoritative.
		path := match[2]
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}
		if _, ok := declared[path]; !ok {
			missing = append(missing, path)
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return NewValidationError(fmt.Sprintf(
			"Patch contains files not listed in files_touched: %s", strings.Join(missing, ", "),
		))
	}

	return nil
}
