package relevance

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/linkrank/internal/domain"
	"github.com/kailas-cloud/linkrank/internal/domain/tfidf"
)

type fakeScorer struct {
	scores    []float64
	err       error
	gotQuery  string
	gotDocs   []string
	callCount int
}

func (f *fakeScorer) Name() string { return "fake" }

func (f *fakeScorer) Score(_ context.Context, query string, docs []string) ([]float64, error) {
	f.callCount++
	f.gotQuery = query
	f.gotDocs = docs
	return f.scores, f.err
}

func corpus() []Document {
	return []Document{
		{URL: "https://a.com/supply", Title: "Supply Chain Security Guide", Keywords: "supply chain security"},
		{URL: "https://a.com/cake", Title: "Chocolate Cake Recipe", Keywords: "chocolate cake recipe"},
		{URL: "https://a.com/garden", Title: "Growing Tomatoes", Keywords: "garden tomato growing"},
		{URL: "https://a.com/labels", Title: "Labels", Keywords: "supply chain labels"},
	}
}

func TestRank_ThresholdSortAndTopK(t *testing.T) {
	f := &fakeScorer{scores: []float64{0.2, 0.9, 0.1, 0.9}}
	r := NewRanker(f, Options{})

	got, err := r.Rank(context.Background(), "some content", corpus(), Options{Threshold: Threshold(0.15), TopK: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	// equal scores keep corpus order
	if got[0].URL != "https://a.com/cake" || got[1].URL != "https://a.com/labels" {
		t.Errorf("order = %s, %s", got[0].URL, got[1].URL)
	}
	if got[0].RelevancePercent != 90 {
		t.Errorf("RelevancePercent = %v, want 90", got[0].RelevancePercent)
	}
	if got[0].Keywords != "chocolate cake recipe" {
		t.Errorf("Keywords = %q", got[0].Keywords)
	}
}

func TestRank_NothingBelowThreshold(t *testing.T) {
	f := &fakeScorer{scores: []float64{0.149, 0.15, 0.5, 0}}
	got, err := NewRanker(f, Options{}).Rank(context.Background(), "x content", corpus(), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	for i, s := range got {
		if s.RelevancePercent < DefaultThreshold*100 {
			t.Errorf("result %d below threshold: %v", i, s.RelevancePercent)
		}
		if i > 0 && s.RelevancePercent > got[i-1].RelevancePercent {
			t.Error("results not sorted non-increasing")
		}
	}
}

func TestRank_ZeroThresholdKeepsEveryPage(t *testing.T) {
	f := &fakeScorer{scores: []float64{0.2, 0, 0.5, 0}}
	r := NewRanker(f, Options{})

	got, err := r.Rank(context.Background(), "x content", corpus(), Options{Threshold: Threshold(0)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	if got[3].RelevancePercent != 0 {
		t.Errorf("last RelevancePercent = %v, want 0", got[3].RelevancePercent)
	}
}

func TestNewRanker_ZeroDefaultThreshold(t *testing.T) {
	f := &fakeScorer{scores: []float64{0.2, 0, 0.5, 0}}
	got, err := NewRanker(f, Options{Threshold: Threshold(0)}).Rank(context.Background(), "x content", corpus(), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("len = %d, want 4", len(got))
	}
}

func TestRank_EmptyInputs(t *testing.T) {
	f := &fakeScorer{}
	r := NewRanker(f, Options{})

	got, err := r.Rank(context.Background(), "content", nil, Options{})
	if err != nil || len(got) != 0 {
		t.Errorf("empty corpus: got %v, %v", got, err)
	}
	got, err = r.Rank(context.Background(), "the of and", corpus(), Options{})
	if err != nil || len(got) != 0 {
		t.Errorf("empty content: got %v, %v", got, err)
	}
	if f.callCount != 0 {
		t.Errorf("scorer called %d times, want 0", f.callCount)
	}
}

func TestRank_EmptyVocabularyIsEmptyResult(t *testing.T) {
	f := &fakeScorer{err: domain.ErrEmptyVocabulary}
	got, err := NewRanker(f, Options{}).Rank(context.Background(), "content", corpus(), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty non-nil", got)
	}
}

func TestRank_ScorerError(t *testing.T) {
	f := &fakeScorer{err: domain.ErrEmbeddingProviderError}
	_, err := NewRanker(f, Options{}).Rank(context.Background(), "content", corpus(), Options{})
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("err = %v", err)
	}
}

func TestRank_ScoreCountMismatch(t *testing.T) {
	f := &fakeScorer{scores: []float64{0.5}}
	if _, err := NewRanker(f, Options{}).Rank(context.Background(), "content", corpus(), Options{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestRank_NormalizesQueryAndDocs(t *testing.T) {
	f := &fakeScorer{scores: []float64{0}}
	_, _ = NewRanker(f, Options{}).Rank(context.Background(), "The BEST, https://www.x.com!", corpus()[:1], Options{TitleWeight: 1})
	if f.gotQuery != "best x" {
		t.Errorf("query = %q", f.gotQuery)
	}
	if f.gotDocs[0] != "supply chain security supply chain security guide" {
		t.Errorf("doc = %q", f.gotDocs[0])
	}
}

func TestCombine_TitleWeight(t *testing.T) {
	if got := Combine("Go, Crawler", "Intro", 3); got != "go crawler intro intro intro" {
		t.Errorf("Combine() = %q", got)
	}
	if got := Combine("", "Only Title", 2); got != "title title" {
		t.Errorf("Combine() = %q", got)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0.123456, 12.35},
		{1, 100},
		{0, 0},
		{0.15, 15},
	}
	for _, tc := range tests {
		if got := Percent(tc.in); got != tc.want {
			t.Errorf("Percent(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRank_TFIDF_IdenticalBeatsUnrelated(t *testing.T) {
	docs := corpus()
	r := NewRanker(NewTFIDFScorer(tfidf.DefaultConfig()), Options{})

	content := Combine(docs[0].Keywords, docs[0].Title, DefaultTitleWeight)
	scorer := NewTFIDFScorer(tfidf.DefaultConfig())
	combined := make([]string, len(docs))
	for i, d := range docs {
		combined[i] = Combine(d.Keywords, d.Title, DefaultTitleWeight)
	}
	scores, err := scorer.Score(context.Background(), content, combined)
	if err != nil {
		t.Fatalf("Score() error: %v", err)
	}
	if scores[0] <= scores[1] {
		t.Errorf("identical doc score %v not above unrelated %v", scores[0], scores[1])
	}

	got, err := r.Rank(context.Background(), content, docs, Options{Threshold: Threshold(0.01)})
	if err != nil {
		t.Fatalf("Rank() error: %v", err)
	}
	if len(got) == 0 || got[0].URL != docs[0].URL {
		t.Fatalf("top result = %+v, want %s", got, docs[0].URL)
	}
}

func TestTFIDFScorer_DegenerateVocabulary(t *testing.T) {
	r := NewRanker(NewTFIDFScorer(tfidf.DefaultConfig()), Options{})
	got, err := r.Rank(context.Background(), "completely unrelated words", corpus()[:1], Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}
