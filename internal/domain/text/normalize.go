// Package text holds the shared tokenization rules for keyword extraction
// and relevance scoring.
package text

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	nonWord   = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
	rakeToken = regexp.MustCompile(`[\p{L}\p{N}_]+|[^\p{L}\p{N}_\s]+`)
	wordRun   = regexp.MustCompile(`^[\p{L}\p{N}_]+$`)
)

// Normalize lowercases s, replaces non-word runs with a space and removes
// stopwords and URL noise terms. The result is single-space separated.
func Normalize(s string) string {
	s = nonWord.ReplaceAllString(strings.ToLower(s), " ")
	fields := strings.Fields(s)
	out := fields[:0]
	for _, f := range fields {
		if !IsNoise(f) {
			out = append(out, f)
		}
	}
	return strings.Join(out, " ")
}

// Tokens splits s into lowercase word and punctuation tokens, in order.
func Tokens(s string) []string {
	return rakeToken.FindAllString(strings.ToLower(s), -1)
}

// IsWord reports whether tok consists only of word characters.
func IsWord(tok string) bool { return wordRun.MatchString(tok) }

// Valid reports whether s is well-formed UTF-8.
func Valid(s string) bool { return utf8.ValidString(s) }
