package middleware

import (
	"strings"
	"testing"
)

func TestValidateSeed(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantSeed string
		wantErr  bool
	}{
		{"valid", "video editing", "video editing", false},
		{"trims whitespace", "  video editing  ", "video editing", false},
		{"exactly 2", "go", "go", false},
		{"empty", "", "", true},
		{"whitespace only", "   ", "", true},
		{"single char", "x", "", true},
		{"too long", strings.Repeat("x", 121), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ValidateSeed(tt.input)
			if tt.wantErr && errMsg == "" {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && errMsg != "" {
				t.Errorf("unexpected error: %s", errMsg)
			}
			if got != tt.wantSeed {
				t.Errorf("got %q, want %q", got, tt.wantSeed)
			}
		})
	}
}

func TestClampRange(t *testing.T) {
	tests := []struct {
		name  string
		value int
		want  int
	}{
		{"zero uses fallback", 0, 25},
		{"in range", 10, 10},
		{"below min", -3, 1},
		{"above max", 500, 50},
		{"at min", 1, 1},
		{"at max", 50, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampRange(tt.value, 1, 50, 25); got != tt.want {
				t.Errorf("ClampRange(%d) = %d, want %d", tt.value, got, tt.want)
			}
		})
	}
}
