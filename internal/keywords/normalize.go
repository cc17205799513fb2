package keywords

import "strings"

// Normalize canonicalizes a keyword: lowercase, non-alphanumeric runs
// collapsed to single spaces, trimmed. Two keywords are duplicates iff
// their normalized forms are equal.
func Normalize(value string) string {
	var b strings.Builder
	b.Grow(len(value))

	lastSpace := false
	for _, r := range strings.ToLower(value) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if alnum {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}

	return strings.TrimSpace(b.String())
}

// IsLowSignalVariant flags autocomplete noise: a candidate that only
// adds a single one-character token to the seed (prepended, appended,
// or trailing within a ±2 character envelope).
func IsLowSignalVariant(keyword, seed string) bool {
	normalizedKeyword := Normalize(keyword)
	normalizedSeed := Normalize(seed)

	if normalizedKeyword == "" || normalizedSeed == "" {
		return false
	}
	if normalizedKeyword == normalizedSeed {
		return false
	}

	keywordTokens := strings.Fields(normalizedKeyword)
	seedTokens := strings.Fields(normalizedSeed)

	if len(keywordTokens) == len(seedTokens)+1 {
		last := keywordTokens[len(keywordTokens)-1]
		first := keywordTokens[0]
		if len(last) == 1 && strings.Join(keywordTokens[:len(keywordTokens)-1], " ") == normalizedSeed {
			return true
		}
		if len(first) == 1 && strings.Join(keywordTokens[1:], " ") == normalizedSeed {
			return true
		}
	}

	last := ""
	if len(keywordTokens) > 0 {
		last = keywordTokens[len(keywordTokens)-1]
	}
	if len(last) == 1 &&
		strings.HasPrefix(normalizedKeyword, normalizedSeed) &&
		abs(len(normalizedKeyword)-len(normalizedSeed)) <= 2 {
		return true
	}

	if len(normalizedKeyword)-len(normalizedSeed) <= 2 &&
		strings.HasPrefix(normalizedKeyword, normalizedSeed) {
		suffix := strings.TrimSpace(normalizedKeyword[len(normalizedSeed):])
		if len(suffix) == 1 {
			return true
		}
	}

	return false
}

// MatchesIncludeExclude applies include/exclude term filters to a
// keyword. Every include term must be present; no exclude term may be.
func MatchesIncludeExclude(keyword string, includeTerms, excludeTerms []string) bool {
	normalizedKeyword := Normalize(keyword)

	for _, term := range includeTerms {
		normalized := Normalize(term)
		if normalized == "" {
			continue
		}
		if !strings.Contains(normalizedKeyword, normalized) {
			return false
		}
	}

	for _, term := range excludeTerms {
		normalized := Normalize(term)
		if normalized == "" {
			continue
		}
		if strings.Contains(normalizedKeyword, normalized) {
			return false
		}
	}

	return true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
