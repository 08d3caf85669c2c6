// Package keyword ranks keyword phrases in free text using co-occurrence
// degree scoring (RAKE).
package keyword

import (
	"net/url"
	"sort"
	"strings"
	"unicode"

	"github.com/kailas-cloud/linkrank/internal/domain"
	"github.com/kailas-cloud/linkrank/internal/domain/text"
)

// DefaultCount is the number of phrases returned when none is configured.
const DefaultCount = 10

// NoContent is the display value for empty input.
const NoContent = "No content"

// Result is the outcome of one extraction. Err is set when the text could
// not be processed; Phrases is then empty.
type Result struct {
	Phrases []string
	Err     error
}

// String joins phrases for display. Empty phrases yield NoContent.
func (r Result) String() string {
	if len(r.Phrases) == 0 {
		return NoContent
	}
	return strings.Join(r.Phrases, ", ")
}

// Extractor produces ranked keyword phrases.
type Extractor struct {
	count int
}

// NewExtractor creates an extractor returning at most count phrases.
func NewExtractor(count int) *Extractor {
	if count <= 0 {
		count = DefaultCount
	}
	return &Extractor{count: count}
}

// Count returns the configured phrase cap.
func (e *Extractor) Count() int { return e.count }

// Extract ranks phrases in s. It never panics and never returns an error
// directly; failures are reported through Result.Err.
func (e *Extractor) Extract(s string) Result {
	return e.ExtractN(s, e.count)
}

// ExtractN is Extract with an explicit phrase cap.
func (e *Extractor) ExtractN(s string, n int) (res Result) {
	if n <= 0 {
		n = e.count
	}
	if strings.TrimSpace(s) == "" {
		return Result{}
	}
	if !text.Valid(s) {
		return Result{Err: domain.ErrMalformedText}
	}
	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: domain.ErrMalformedText}
		}
	}()

	phrases := candidatePhrases(text.Tokens(s))
	if len(phrases) == 0 {
		return Result{}
	}
	scores := wordScores(phrases)

	type scored struct {
		phrase string
		score  float64
	}
	ranked := make([]scored, 0, len(phrases))
	for _, p := range phrases {
		var sc float64
		for _, w := range p {
			sc += scores[w]
		}
		ranked = append(ranked, scored{phrase: strings.Join(p, " "), score: sc})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	seen := make(map[string]struct{}, len(ranked))
	out := make([]string, 0, n)
	for _, r := range ranked {
		if _, ok := seen[r.phrase]; ok {
			continue
		}
		seen[r.phrase] = struct{}{}
		out = append(out, r.phrase)
		if len(out) == n {
			break
		}
	}
	return Result{Phrases: out}
}

// candidatePhrases splits the token stream into maximal runs of content
// words. Punctuation and stopwords end a run.
func candidatePhrases(tokens []string) [][]string {
	var (
		phrases [][]string
		cur     []string
	)
	flush := func() {
		if len(cur) > 0 {
			phrases = append(phrases, cur)
			cur = nil
		}
	}
	for _, tok := range tokens {
		if !text.IsWord(tok) || text.IsStopword(tok) {
			flush()
			continue
		}
		cur = append(cur, tok)
	}
	flush()
	return phrases
}

// wordScores returns degree(w)/freq(w) where degree sums the lengths of the
// phrases containing w and freq counts its occurrences.
func wordScores(phrases [][]string) map[string]float64 {
	degree := make(map[string]int)
	freq := make(map[string]int)
	for _, p := range phrases {
		for _, w := range p {
			freq[w]++
			degree[w] += len(p)
		}
	}
	scores := make(map[string]float64, len(freq))
	for w, f := range freq {
		scores[w] = float64(degree[w]) / float64(f)
	}
	return scores
}

// FromURL returns alphabetic, non-stopword terms from the URL path slug,
// e.g. "/blog/anti-counterfeit-labels" yields [anti counterfeit labels].
func FromURL(raw string) []string {
	path := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		path = u.Path
	}
	var out []string
	seen := make(map[string]struct{})
	for _, part := range strings.FieldsFunc(strings.ToLower(path), func(r rune) bool {
		return r == '/' || r == '-' || r == '_'
	}) {
		if !isAlpha(part) || text.IsNoise(part) {
			continue
		}
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}

// Merge appends extra terms not already present in phrases.
func Merge(phrases, extra []string) []string {
	seen := make(map[string]struct{}, len(phrases))
	out := make([]string, 0, len(phrases)+len(extra))
	for _, p := range phrases {
		seen[p] = struct{}{}
		out = append(out, p)
	}
	for _, e := range extra {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
