package hash

import (
	"testing"
)

func TestSHA256Hex(t *testing.T) {
	// Known SHA256 of "hello"
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	got := SHA256Hex("hello")
	if got != want {
		t.Errorf("SHA256Hex(\"hello\") = %s, want %s", got, want)
	}
}

func TestSHA256Hex_Empty(t *testing.T) {
	// SHA256 of empty string
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	got := SHA256Hex("")
	if got != want {
		t.Errorf("SHA256Hex(\"\") = %s, want %s", got, want)
	}
}

func TestKeywordBatchKey(t *testing.T) {
	key := KeywordBatchKey([]string{"video editing", "color grading"})

	// Should be 64 hex chars (SHA256 output)
	if len(key) != 64 {
		t.Errorf("KeywordBatchKey length = %d, want 64", len(key))
	}

	// Casing and surrounding whitespace collapse to the same key
	same := KeywordBatchKey([]string{"  Video Editing ", "COLOR GRADING"})
	if key != same {
		t.Error("equivalent batches should produce the same key")
	}

	// Order matters: a reordered batch is a different cache entry
	reordered := KeywordBatchKey([]string{"color grading", "video editing"})
	if key == reordered {
		t.Error("reordered batches should produce different keys")
	}

	// Different keywords produce different keys
	other := KeywordBatchKey([]string{"video editing", "audio mixing"})
	if key == other {
		t.Error("different batches should produce different keys")
	}
}
