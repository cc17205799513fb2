package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SHA256Hex returns the hex-encoded SHA256 hash of the input string.
func SHA256Hex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// KeywordBatchKey hashes a keyword list into a stable cache key.
// Keywords are lowercased and trimmed before hashing so equivalent
// batches collapse to the same key regardless of input casing.
func KeywordBatchKey(keywords []string) string {
	normalized := make([]string, len(keywords))
	for i, kw := range keywords {
		normalized[i] = strings.ToLower(strings.TrimSpace(kw))
	}
	return SHA256Hex(strings.Join(normalized, "|"))
}
