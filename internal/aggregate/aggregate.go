// Package aggregate computes word frequencies and top-N rankings from entries.
package aggregate

import (
	"sort"

	"github.com/nuvemlab/nuvem/internal/models"
	"github.com/nuvemlab/nuvem/internal/tokenizer"
)

// DefaultTopN is the ranking size used when a request does not specify one.
const DefaultTopN = 15

// Frequencies holds token counts together with first-seen ordering, which is
// used to break ties deterministically. Counts are recomputed from scratch on
// every call, so they can never go stale.
type Frequencies struct {
	counts    map[string]int
	firstSeen map[string]int
	total     int
}

// Count tokenizes every entry and tallies the surviving tokens, O(total tokens).
func Count(entries []models.Entry) *Frequencies {
	f := &Frequencies{
		counts:    make(map[string]int),
		firstSeen: make(map[string]int),
	}
	for _, entry := range entries {
		for _, token := range tokenizer.Normalize(entry.Text) {
			if _, seen := f.counts[token]; !seen {
				f.firstSeen[token] = f.total
			}
			f.counts[token]++
			f.total++
		}
	}
	return f
}

// Tokens returns every valid token from entries in submission order,
// duplicates included. This backs the admin "filtered" history view.
func Tokens(entries []models.Entry) []string {
	var tokens []string
	for _, entry := range entries {
		tokens = append(tokens, tokenizer.Normalize(entry.Text)...)
	}
	return tokens
}

// Total returns the number of valid tokens counted, duplicates included.
func (f *Frequencies) Total() int { return f.total }

// Unique returns the number of distinct tokens.
func (f *Frequencies) Unique() int { return len(f.counts) }

// TopN returns at most n word counts, descending by count, ties broken by
// first-seen order. n <= 0 falls back to DefaultTopN.
func (f *Frequencies) TopN(n int) []models.WordCount {
	if n <= 0 {
		n = DefaultTopN
	}
	ranked := make([]models.WordCount, 0, len(f.counts))
	for word, count := range f.counts {
		ranked = append(ranked, models.WordCount{Word: word, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return f.firstSeen[ranked[i].Word] < f.firstSeen[ranked[j].Word]
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
