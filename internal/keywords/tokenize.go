package keywords

import "strings"

var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "for": {},
	"to": {}, "of": {}, "in": {}, "on": {}, "with": {}, "how": {},
	"what": {}, "why": {}, "when": {}, "where": {}, "is": {}, "are": {},
	"was": {}, "were": {}, "be": {}, "by": {}, "from": {}, "at": {},
	"your": {}, "you": {}, "me": {}, "my": {}, "we": {}, "our": {}, "us": {},
}

// Tokenize lowercases, strips punctuation, and drops stopwords.
func Tokenize(text string) []string {
	cleaned := Normalize(text)
	if cleaned == "" {
		return nil
	}

	var tokens []string
	for _, token := range strings.Fields(cleaned) {
		if _, stop := stopwords[token]; stop {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// OverlapRatio returns the fraction of distinct keyword tokens present
// in the field's token set.
func OverlapRatio(keywordTokens, fieldTokens []string) float64 {
	if len(keywordTokens) == 0 {
		return 0
	}

	fieldSet := make(map[string]struct{}, len(fieldTokens))
	for _, token := range fieldTokens {
		fieldSet[token] = struct{}{}
	}

	seen := make(map[string]struct{}, len(keywordTokens))
	unique, overlap := 0, 0
	for _, token := range keywordTokens {
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		unique++
		if _, ok := fieldSet[token]; ok {
			overlap++
		}
	}

	return float64(overlap) / float64(unique)
}
