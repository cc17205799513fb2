package keywords

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"mixed case and punctuation", " How to Edit Videos!! ", "how to edit videos"},
		{"collapses runs", "video---editing___tips", "video editing tips"},
		{"already clean", "premiere pro", "premiere pro"},
		{"digits kept", "top 10 plugins (2026)", "top 10 plugins 2026"},
		{"only punctuation", "!!!", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsLowSignalVariant(t *testing.T) {
	tests := []struct {
		name    string
		keyword string
		seed    string
		want    bool
	}{
		{"single letter appended", "video editing a", "video editing", true},
		{"single letter prepended", "a video editing", "video editing", true},
		{"trailing letter glued", "video editing s", "video editing", true},
		{"identical to seed", "video editing", "video editing", false},
		{"real extension", "video editing software", "video editing", false},
		{"unrelated keyword", "color grading", "video editing", false},
		{"empty seed", "video editing a", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsLowSignalVariant(tt.keyword, tt.seed); got != tt.want {
				t.Errorf("IsLowSignalVariant(%q, %q) = %v, want %v", tt.keyword, tt.seed, got, tt.want)
			}
		})
	}
}

func TestMatchesIncludeExclude(t *testing.T) {
	tests := []struct {
		name    string
		keyword string
		include []string
		exclude []string
		want    bool
	}{
		{"no filters", "video editing tips", nil, nil, true},
		{"include present", "video editing tips", []string{"editing"}, nil, true},
		{"include absent", "video editing tips", []string{"premiere"}, nil, false},
		{"exclude present", "free video editing", nil, []string{"free"}, false},
		{"exclude absent", "video editing tips", nil, []string{"free"}, true},
		{"include normalized match", "Video-Editing tips", []string{"video editing"}, nil, true},
		{"blank terms skipped", "video editing", []string{"  "}, []string{"!"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesIncludeExclude(tt.keyword, tt.include, tt.exclude); got != tt.want {
				t.Errorf("MatchesIncludeExclude(%q) = %v, want %v", tt.keyword, got, tt.want)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"drops stopwords", "how to edit videos", []string{"edit", "videos"}},
		{"all stopwords", "how to", nil},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Tokenize(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestOverlapRatio(t *testing.T) {
	tests := []struct {
		name     string
		keyword  []string
		field    []string
		want     float64
	}{
		{"full overlap", []string{"edit", "videos"}, []string{"edit", "videos", "fast"}, 1.0},
		{"half overlap", []string{"edit", "videos"}, []string{"edit"}, 0.5},
		{"no overlap", []string{"edit"}, []string{"grading"}, 0},
		{"empty keyword", nil, []string{"edit"}, 0},
		{"duplicate keyword tokens counted once", []string{"edit", "edit"}, []string{"edit"}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OverlapRatio(tt.keyword, tt.field)
			if got != tt.want {
				t.Errorf("OverlapRatio = %.2f, want %.2f", got, tt.want)
			}
		})
	}
}
