// Package tokenizer normalizes raw submissions into valid word tokens.
package tokenizer

import (
	"regexp"
	"strings"
)

// minTokenLength is the shortest token kept after normalization.
const minTokenLength = 2

// wordRe matches maximal runs of lowercase Latin letters, including the
// accented range used by Portuguese. Everything else is a separator and is
// discarded whole, never partially kept.
var wordRe = regexp.MustCompile(`[a-zà-ÿ]+`)

// Normalize extracts the valid tokens from raw text, in original order.
// Input is lowercased and trimmed; candidate tokens shorter than two runes
// or present in the stopword set are dropped. The result may be empty.
func Normalize(raw string) []string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return nil
	}
	var tokens []string
	for _, candidate := range wordRe.FindAllString(raw, -1) {
		if valid(candidate) {
			tokens = append(tokens, candidate)
		}
	}
	return tokens
}

// Clean normalizes a single candidate token: lowercases, strips every
// non-letter rune, and returns "" when what remains is too short or a
// stopword. Used for one-word submissions.
func Clean(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	token := strings.Join(wordRe.FindAllString(raw, -1), "")
	if !valid(token) {
		return ""
	}
	return token
}

func valid(token string) bool {
	if len([]rune(token)) < minTokenLength {
		return false
	}
	if _, stop := stopwords[token]; stop {
		return false
	}
	return true
}
