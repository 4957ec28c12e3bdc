package analytics

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/neilberkman/gptrider/pkg/chatarchive"
)

// DefaultMinWordLength is the shortest token WordFrequencies counts.
const DefaultMinWordLength = 3

// WordCount is one word's occurrence count across the titles in scope.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Titles returns the non-null titles in row order.
func Titles(rows []chatarchive.Conversation) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.Title != "" {
			out = append(out, row.Title)
		}
	}
	return out
}

// WordFrequencies lowercases and whitespace-tokenizes the titles, drops
// tokens shorter than minLength runes, and counts the rest. Ordering is
// descending by count with ties kept in first-seen order. A minLength of
// zero or below falls back to the default.
func WordFrequencies(titles []string, minLength int) []WordCount {
	if minLength <= 0 {
		minLength = DefaultMinWordLength
	}

	counts := make(map[string]int)
	var order []string
	for _, title := range titles {
		for _, token := range strings.Fields(strings.ToLower(title)) {
			if utf8.RuneCountInString(token) < minLength {
				continue
			}
			if _, ok := counts[token]; !ok {
				order = append(order, token)
			}
			counts[token]++
		}
	}

	out := make([]WordCount, 0, len(order))
	for _, word := range order {
		out = append(out, WordCount{Word: word, Count: counts[word]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
