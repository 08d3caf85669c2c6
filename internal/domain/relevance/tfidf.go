package relevance

import (
	"context"

	"github.com/kailas-cloud/linkrank/internal/domain/tfidf"
)

// TFIDFScorer vectorises corpus and query as one batch, so both share the
// same vocabulary and IDF weights.
type TFIDFScorer struct {
	vec *tfidf.Vectorizer
}

// NewTFIDFScorer creates the default lexical scorer.
func NewTFIDFScorer(cfg tfidf.Config) *TFIDFScorer {
	return &TFIDFScorer{vec: tfidf.New(cfg)}
}

// Name implements Scorer.
func (s *TFIDFScorer) Name() string { return "tfidf" }

// Score implements Scorer. It returns domain.ErrEmptyVocabulary when no
// term survives pruning.
func (s *TFIDFScorer) Score(_ context.Context, query string, docs []string) ([]float64, error) {
	batch := make([]string, 0, len(docs)+1)
	batch = append(batch, docs...)
	batch = append(batch, query)

	m, err := s.vec.FitTransform(batch)
	if err != nil {
		return nil, err
	}
	q := m.Rows[len(docs)]
	out := make([]float64, len(docs))
	for i := range docs {
		out[i] = tfidf.Cosine(q, m.Rows[i])
	}
	return out, nil
}
