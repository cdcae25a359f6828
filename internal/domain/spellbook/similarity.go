package spellbook

import (
	"regexp"
	"strings"
)

// ErrorDescription is the synthesized error a webhook event is reduced to
// before matching.
type ErrorDescription struct {
	ErrorType  string
	Message    string
	Context    string
	StackTrace string
}

// Spell carries the matching-relevant fields of a stored solution record.
type Spell struct {
	SpellID      uint64
	Description  string
	ErrorPattern string
	ErrorType    string
}

// stopWords are excluded from keyword extraction along with tokens of
// length <= 2.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "he": {}, "in": {}, "is": {},
	"it": {}, "its": {}, "of": {}, "on": {}, "that": {}, "the": {}, "to": {},
	"was": {}, "will": {}, "with": {},
}

var wordPattern = regexp.MustCompile(`\b\w+\b`)

// ExtractKeywords lowercases the text and returns the set of word tokens
// longer than two characters, stop words removed.
func ExtractKeywords(text string) map[string]struct{} {
	keywords := make(map[string]struct{})

	for _, token := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if len(token) <= 2 {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		keywords[token] = struct{}{}
	}

	return keywords
}

// Similarity scores an error description against a stored spell. The base
// score is the Jaccard index over keyword sets drawn from message+context
// versus description+pattern. A case-insensitive exact error-type match
// adds 0.2; the result is clamped to [0, 1].
func Similarity(desc ErrorDescription, spell Spell) float64 {
	errorKeywords := ExtractKeywords(desc.Message + " " + desc.Context)
	spellKeywords := ExtractKeywords(spell.Description + " " + spell.ErrorPattern)

	if len(errorKeywords) == 0 || len(spellKeywords) == 0 {
		return 0
	}

	intersection := 0
	for kw := range errorKeywords {
		if _, ok := spellKeywords[kw]; ok {
			intersection++
		}
	}
	union := len(errorKeywords) + len(spellKeywords) - intersection

	score := float64(intersection) / float64(union)

	if desc.ErrorType != "" && spell.ErrorType != "" &&
		strings.EqualFold(desc.ErrorType, spell.ErrorType) {
		score += 0.2
	}

	if score > 1 {
		score = 1
	}
	return score
}
