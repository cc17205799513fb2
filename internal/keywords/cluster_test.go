package keywords

import (
	"testing"

	"github.com/enzo-prism/yt-keywords/internal/model"
)

func TestClusterGroupsTokenEquivalents(t *testing.T) {
	ideas := []model.KeywordIdea{
		{Keyword: "how to edit videos", Volume: 1000},
		{Keyword: "edit videos", Volume: 4000},
		{Keyword: "videos edit", Volume: 100},
		{Keyword: "color grading", Volume: 900},
	}

	clusters := Cluster(ideas)
	if len(clusters) != 2 {
		t.Fatalf("got %d clusters, want 2", len(clusters))
	}

	// Insertion order: the edit-videos group was seen first.
	first := clusters[0]
	if len(first.Keywords) != 3 {
		t.Fatalf("first cluster has %d keywords, want 3", len(first.Keywords))
	}
	if first.Label != "edit videos" {
		t.Errorf("label = %q, want highest-volume member %q", first.Label, "edit videos")
	}

	second := clusters[1]
	if second.Label != "color grading" || len(second.Keywords) != 1 {
		t.Errorf("second cluster = %+v, want singleton color grading", second)
	}
}

func TestClusterLabelTieBreak(t *testing.T) {
	ideas := []model.KeywordIdea{
		{Keyword: "editing videos quickly", Volume: 500},
		{Keyword: "quickly editing videos", Volume: 500},
	}

	clusters := Cluster(ideas)
	if len(clusters) != 1 {
		t.Fatalf("got %d clusters, want 1", len(clusters))
	}
	// Equal volume: shorter keyword wins; equal length: first wins.
	if clusters[0].Label != "editing videos quickly" {
		t.Errorf("label = %q, want first member on tie", clusters[0].Label)
	}
}

func TestClusterStopwordOnlyKeyword(t *testing.T) {
	ideas := []model.KeywordIdea{
		{Keyword: "how to", Volume: 10},
		{Keyword: "what is", Volume: 20},
	}

	// No content tokens: each falls back to its normalized form, so
	// they stay separate.
	clusters := Cluster(ideas)
	if len(clusters) != 2 {
		t.Fatalf("got %d clusters, want 2", len(clusters))
	}
}
