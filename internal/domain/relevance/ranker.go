// Package relevance ranks corpus pages by topical similarity to new content.
package relevance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/kailas-cloud/linkrank/internal/domain"
	"github.com/kailas-cloud/linkrank/internal/domain/text"
)

// Defaults.
const (
	DefaultTitleWeight = 2
	DefaultThreshold   = 0.15
	DefaultTopK        = 10
)

// Document is one corpus entry: a page with its keyword string.
type Document struct {
	URL      string
	Title    string
	Keywords string
}

// Suggestion is a ranked link candidate.
type Suggestion struct {
	Title            string  `json:"title"`
	URL              string  `json:"url"`
	RelevancePercent float64 `json:"relevance_percent"`
	Keywords         string  `json:"keywords,omitempty"`
}

// Scorer returns the similarity of query to each doc, in doc order.
// Scores are expected in [0,1].
type Scorer interface {
	Name() string
	Score(ctx context.Context, query string, docs []string) ([]float64, error)
}

// Options tune a ranking request. Zero values take the defaults; a nil
// Threshold takes the default, a zero one keeps every scored page.
type Options struct {
	TitleWeight int
	Threshold   *float64
	TopK        int
}

// Threshold returns a pointer to v for Options.Threshold.
func Threshold(v float64) *float64 { return &v }

func (o Options) withDefaults(def Options) Options {
	if o.TitleWeight <= 0 {
		o.TitleWeight = def.TitleWeight
	}
	if o.Threshold == nil {
		o.Threshold = def.Threshold
	}
	if o.TopK <= 0 {
		o.TopK = def.TopK
	}
	return o
}

// Ranker selects the top matches above a similarity threshold.
type Ranker struct {
	scorer   Scorer
	defaults Options
}

// NewRanker creates a ranker over scorer with per-request defaults.
func NewRanker(scorer Scorer, defaults Options) *Ranker {
	return &Ranker{
		scorer: scorer,
		defaults: defaults.withDefaults(Options{
			TitleWeight: DefaultTitleWeight,
			Threshold:   Threshold(DefaultThreshold),
			TopK:        DefaultTopK,
		}),
	}
}

// ScorerName returns the backend name, for metrics.
func (r *Ranker) ScorerName() string { return r.scorer.Name() }

// Rank scores corpus against content. An empty corpus, empty content or a
// degenerate vocabulary yields an empty result, not an error.
func (r *Ranker) Rank(ctx context.Context, content string, corpus []Document, opts Options) ([]Suggestion, error) {
	opts = opts.withDefaults(r.defaults)

	query := text.Normalize(content)
	if query == "" || len(corpus) == 0 {
		return []Suggestion{}, nil
	}

	docs := make([]string, len(corpus))
	for i, d := range corpus {
		docs[i] = Combine(d.Keywords, d.Title, opts.TitleWeight)
	}

	scores, err := r.scorer.Score(ctx, query, docs)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyVocabulary) {
			return []Suggestion{}, nil
		}
		return nil, fmt.Errorf("score corpus: %w", err)
	}
	if len(scores) != len(corpus) {
		return nil, fmt.Errorf("scorer %s returned %d scores for %d documents", r.scorer.Name(), len(scores), len(corpus))
	}

	type hit struct {
		doc   int
		score float64
	}
	hits := make([]hit, 0, len(corpus))
	for i, s := range scores {
		if s >= *opts.Threshold {
			hits = append(hits, hit{doc: i, score: s})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > opts.TopK {
		hits = hits[:opts.TopK]
	}

	out := make([]Suggestion, len(hits))
	for i, h := range hits {
		d := corpus[h.doc]
		out[i] = Suggestion{
			Title:            d.Title,
			URL:              d.URL,
			RelevancePercent: Percent(h.score),
			Keywords:         d.Keywords,
		}
	}
	return out, nil
}

// Combine builds the scored representation of a page: normalised keywords
// followed by the normalised title repeated weight times.
func Combine(keywords, title string, weight int) string {
	parts := make([]string, 0, weight+1)
	if kw := text.Normalize(keywords); kw != "" {
		parts = append(parts, kw)
	}
	if t := text.Normalize(title); t != "" {
		for range weight {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Percent converts a similarity to a percentage rounded to two decimals.
func Percent(similarity float64) float64 {
	return math.Round(similarity*10000) / 100
}
