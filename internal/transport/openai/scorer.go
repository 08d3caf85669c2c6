package openai

import (
	"context"
	"fmt"
	"math"

	"github.com/kailas-cloud/linkrank/internal/domain"
)

// Scorer ranks documents by cosine similarity of their embeddings to the
// query embedding. It satisfies relevance.Scorer.
type Scorer struct {
	embedder domain.BatchEmbedder
}

// NewScorer creates an embedding-backed scorer.
func NewScorer(e domain.BatchEmbedder) *Scorer {
	return &Scorer{embedder: e}
}

// Name implements relevance.Scorer.
func (s *Scorer) Name() string { return "embedding" }

// Score embeds query and docs in one batch. Negative similarities clip to 0.
func (s *Scorer) Score(ctx context.Context, query string, docs []string) ([]float64, error) {
	if len(docs) == 0 {
		return []float64{}, nil
	}
	batch := make([]string, 0, len(docs)+1)
	batch = append(batch, query)
	batch = append(batch, docs...)

	res, err := s.embedder.BatchEmbed(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("embed corpus: %w", err)
	}
	if len(res.Embeddings) != len(batch) {
		return nil, fmt.Errorf("got %d embeddings for %d texts", len(res.Embeddings), len(batch))
	}

	q := res.Embeddings[0]
	out := make([]float64, len(docs))
	for i := range docs {
		out[i] = clip(cosine(q, res.Embeddings[i+1]))
	}
	return out, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func clip(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
