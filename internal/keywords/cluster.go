package keywords

import (
	"sort"
	"strings"

	"github.com/enzo-prism/yt-keywords/internal/model"
)

// Cluster groups ideas whose sorted stopword-free token multisets are
// identical. The cluster label is the highest-volume member, ties
// broken by shorter keyword. Deterministic for a given input set; no
// similarity thresholds involved.
func Cluster(ideas []model.KeywordIdea) []model.KeywordCluster {
	type bucket struct {
		id    string
		items []model.KeywordIdea
	}

	buckets := make(map[string]*bucket)
	var order []string

	for _, idea := range ideas {
		tokens := Tokenize(idea.Keyword)
		sort.Strings(tokens)
		key := strings.Join(tokens, " ")
		if key == "" {
			key = Normalize(idea.Keyword)
		}
		if key == "" {
			key = idea.Keyword
		}

		entry, ok := buckets[key]
		if !ok {
			entry = &bucket{id: key}
			buckets[key] = entry
			order = append(order, key)
		}
		entry.items = append(entry.items, idea)
	}

	clusters := make([]model.KeywordCluster, 0, len(order))
	for _, key := range order {
		entry := buckets[key]

		sorted := make([]model.KeywordIdea, len(entry.items))
		copy(sorted, entry.items)
		sort.SliceStable(sorted, func(i, j int) bool {
			if sorted[i].Volume != sorted[j].Volume {
				return sorted[i].Volume > sorted[j].Volume
			}
			return len(sorted[i].Keyword) < len(sorted[j].Keyword)
		})

		kws := make([]string, len(entry.items))
		for i, item := range entry.items {
			kws[i] = item.Keyword
		}

		clusters = append(clusters, model.KeywordCluster{
			ID:       entry.id,
			Label:    sorted[0].Keyword,
			Keywords: kws,
		})
	}

	return clusters
}
