package spellbook

import (
	"regexp"
	"sort"
	"strings"
)

var (
	singleQuotedPattern = regexp.MustCompile(`'[^']*'`)
	doubleQuotedPattern = regexp.MustCompile(`"[^"]*"`)
	numberPattern       = regexp.MustCompile(`\b\d+\b`)
)

// GeneralizeErrorPattern turns a concrete error message into a reusable
// matching pattern: quoted values and numbers become wildcards. An empty
// message generalizes to the match-anything pattern.
func GeneralizeErrorPattern(message string) string {
	if message == "" {
		return ".*"
	}

	pattern := singleQuotedPattern.ReplaceAllString(message, "'.*'")
	pattern = doubleQuotedPattern.ReplaceAllString(pattern, `".*"`)
	pattern = numberPattern.ReplaceAllString(pattern, `\d+`)

	return pattern
}

// tagExtensions are the file extensions that contribute tags.
var tagExtensions = map[string]struct{}{
	"py": {}, "js": {}, "ts": {}, "java": {}, "go": {},
	"rb": {}, "php": {}, "cpp": {}, "c": {},
}

// DeriveTags builds the comma-joined, sorted tag set for an auto-generated
// spell: the lowercased error type, the recognized extensions of the files
// changed, and the auto-generated marker.
func DeriveTags(errorType string, filesChanged []string) string {
	tags := map[string]struct{}{"auto-generated": {}}

	if t := strings.ToLower(errorType); t != "" {
		tags[t] = struct{}{}
	}

	for _, path := range filesChanged {
		parts := strings.Split(path, ".")
		ext := strings.ToLower(parts[len(parts)-1])
		if _, ok := tagExtensions[ext]; ok {
			tags[ext] = struct{}{}
		}
	}

	sorted := make([]string, 0, len(tags))
	for tag := range tags {
		sorted = append(sorted, tag)
	}
	sort.Strings(sorted)

	return strings.Join(sorted, ",")
}

var extensionLanguages = map[string]string{
	"py":    "python",
	"js":    "javascript",
	"jsx":   "javascript",
	"ts":    "typescript",
	"tsx":   "typescript",
	"java":  "java",
	"cpp":   "cpp",
	"c":     "c",
	"h":     "c",
	"hpp":   "cpp",
	"cs":    "csharp",
	"rb":    "ruby",
	"go":    "go",
	"rs":    "rust",
	"php":   "php",
	"swift": "swift",
	"kt":    "kotlin",
	"scala": "scala",
	"r":     "r",
	"m":     "objective-c",
	"sh":    "bash",
	"bash":  "bash",
	"sql":   "sql",
	"html":  "html",
	"css":   "css",
	"scss":  "css",
	"sass":  "css",
	"json":  "json",
	"xml":   "xml",
	"yaml":  "yaml",
	"yml":   "yaml",
	"md":    "markdown",
}

var filePathPattern = regexp.MustCompile(`\b[\w/\-.]+\.(\w+)\b`)

// InferLanguage guesses the programming language from file paths mentioned
// in solution code. Ties resolve to the language seen first. Returns ""
// when nothing can be inferred.
func InferLanguage(solutionCode string) string {
	counts := make(map[string]int)
	order := make([]string, 0, 4)

	for _, match := range filePathPattern.FindAllStringSubmatch(solutionCode, -1) {
		lang, ok := extensionLanguages[strings.ToLower(match[1])]
		if !ok {
			continue
		}
		if counts[lang] == 0 {
			order = append(order, lang)
		}
		counts[lang]++
	}

	best := ""
	bestCount := 0
	for _, lang := range order {
		if counts[lang] > bestCount {
			best = lang
			bestCount = counts[lang]
		}
	}

	return best
}
