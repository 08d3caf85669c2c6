package tfidf

import (
	"errors"
	"math"
	"testing"

	"github.com/kailas-cloud/linkrank/internal/domain"
)

const eps = 1e-9

func TestFitTransform_EmptyBatch(t *testing.T) {
	_, err := New(DefaultConfig()).FitTransform(nil)
	if !errors.Is(err, domain.ErrEmptyVocabulary) {
		t.Fatalf("err = %v, want ErrEmptyVocabulary", err)
	}
}

func TestFitTransform_NoSurvivingTerms(t *testing.T) {
	// every term appears in exactly one doc, min_df=2 prunes all
	_, err := New(DefaultConfig()).FitTransform([]string{"alpha beta", "gamma delta"})
	if !errors.Is(err, domain.ErrEmptyVocabulary) {
		t.Fatalf("err = %v, want ErrEmptyVocabulary", err)
	}
}

func TestFitTransform_MaxDFPrunesCommonTerms(t *testing.T) {
	docs := []string{
		"shared apple", "shared apple", "shared pear", "shared pear", "shared kiwi",
	}
	m, err := New(Config{NgramMax: 1, MinDF: 2, MaxDF: 0.8}).FitTransform(docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, term := range m.Terms {
		if term == "shared" {
			t.Error("term in 100% of docs must be pruned")
		}
		if term == "kiwi" {
			t.Error("term below min_df must be pruned")
		}
	}
	if len(m.Terms) != 2 {
		t.Errorf("Terms = %v, want [apple pear]", m.Terms)
	}
}

func TestFitTransform_Bigrams(t *testing.T) {
	docs := []string{"supply chain", "supply chain", "other thing", "other thing", "x y"}
	m, err := New(Config{NgramMax: 2, MinDF: 2, MaxDF: 0.8}).FitTransform(docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, term := range m.Terms {
		if term == "supply chain" {
			found = true
		}
		if term == "x" || term == "y" {
			t.Error("single-character tokens must be dropped")
		}
	}
	if !found {
		t.Errorf("Terms = %v, missing bigram", m.Terms)
	}
}

func TestFitTransform_SmoothIDF(t *testing.T) {
	docs := []string{"apple pear", "apple", "pear", "plum"}
	m, err := New(Config{NgramMax: 1, MinDF: 1, MaxDF: 1}).FitTransform(docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, term := range m.Terms {
		want := math.Log(5.0/3.0) + 1
		if term == "plum" {
			want = math.Log(5.0/2.0) + 1
		}
		if math.Abs(m.IDF[i]-want) > eps {
			t.Errorf("idf(%s) = %v, want %v", term, m.IDF[i], want)
		}
	}
}

func TestFitTransform_RowsNormalised(t *testing.T) {
	docs := []string{"apple pear apple", "apple", "pear plum", "plum"}
	m, err := New(Config{NgramMax: 1, MinDF: 1, MaxDF: 1}).FitTransform(docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, row := range m.Rows {
		if math.Abs(Cosine(row, row)-1) > eps {
			t.Errorf("row %d self-similarity = %v", i, Cosine(row, row))
		}
	}
}

func TestFitTransform_MaxFeatures(t *testing.T) {
	docs := []string{"aa bb cc", "aa bb", "aa", "dd"}
	m, err := New(Config{NgramMax: 1, MinDF: 1, MaxDF: 1, MaxFeatures: 2}).FitTransform(docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Terms) != 2 || m.Terms[0] != "aa" || m.Terms[1] != "bb" {
		t.Errorf("Terms = %v, want [aa bb]", m.Terms)
	}
}

func TestCosine(t *testing.T) {
	a := Vector{Idx: []int{0, 2}, Val: []float64{0.6, 0.8}}
	b := Vector{Idx: []int{1, 2}, Val: []float64{0.6, 0.8}}
	if got := Cosine(a, b); math.Abs(got-0.64) > eps {
		t.Errorf("Cosine() = %v, want 0.64", got)
	}
	if Cosine(a, Vector{}) != 0 {
		t.Error("cosine with zero vector must be 0")
	}
}

func TestFitTransform_OrderPreserved(t *testing.T) {
	docs := []string{"apple apple", "pear pear", "apple pear"}
	m, err := New(Config{NgramMax: 1, MinDF: 1, MaxDF: 1}).FitTransform(docs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Rows) != 3 {
		t.Fatalf("len(Rows) = %d", len(m.Rows))
	}
	if Cosine(m.Rows[0], m.Rows[1]) != 0 {
		t.Error("disjoint docs must have zero similarity")
	}
	if Cosine(m.Rows[0], m.Rows[2]) <= 0 {
		t.Error("overlapping docs must have positive similarity")
	}
}
