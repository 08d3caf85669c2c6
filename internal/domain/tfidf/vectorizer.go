// Package tfidf builds TF-IDF vectors for a batch of documents and compares
// them with cosine similarity.
package tfidf

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/kailas-cloud/linkrank/internal/domain"
)

var tokenRe = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Config bounds the vocabulary.
type Config struct {
	MaxFeatures int     // keep the most frequent terms; 0 means unbounded
	NgramMax    int     // 1 = unigrams, 2 = unigrams+bigrams
	MinDF       int     // minimum document count
	MaxDF       float64 // maximum document proportion, (0,1]
}

// DefaultConfig matches the ranking defaults.
func DefaultConfig() Config {
	return Config{MaxFeatures: 5000, NgramMax: 2, MinDF: 2, MaxDF: 0.8}
}

// Vector is a sparse, L2-normalised row. Indices are ascending.
type Vector struct {
	Idx []int
	Val []float64
}

// Len returns the number of non-zero entries.
func (v Vector) Len() int { return len(v.Idx) }

// Cosine returns the cosine similarity of two L2-normalised vectors.
func Cosine(a, b Vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(a.Idx) && j < len(b.Idx) {
		switch {
		case a.Idx[i] == b.Idx[j]:
			sum += a.Val[i] * b.Val[j]
			i++
			j++
		case a.Idx[i] < b.Idx[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Matrix is the fitted vocabulary plus one vector per input document.
type Matrix struct {
	Terms []string
	IDF   []float64
	Rows  []Vector
}

// Vectorizer fits a vocabulary over a document batch.
type Vectorizer struct {
	cfg Config
}

// New creates a vectorizer. Out-of-range bounds fall back to permissive values.
func New(cfg Config) *Vectorizer {
	def := DefaultConfig()
	if cfg.NgramMax <= 0 {
		cfg.NgramMax = def.NgramMax
	}
	if cfg.MinDF <= 0 {
		cfg.MinDF = 1
	}
	if cfg.MaxDF <= 0 || cfg.MaxDF > 1 {
		cfg.MaxDF = 1
	}
	return &Vectorizer{cfg: cfg}
}

// FitTransform learns the vocabulary and IDF weights from docs and returns
// their vectors, in input order. ErrEmptyVocabulary is returned when no
// term survives document-frequency pruning.
func (v *Vectorizer) FitTransform(docs []string) (*Matrix, error) {
	n := len(docs)
	if n == 0 {
		return nil, domain.ErrEmptyVocabulary
	}

	counts := make([]map[string]int, n)
	df := make(map[string]int)
	total := make(map[string]int)
	for i, d := range docs {
		c := v.termCounts(d)
		counts[i] = c
		for t, k := range c {
			df[t]++
			total[t] += k
		}
	}

	maxDocs := v.cfg.MaxDF * float64(n)
	terms := make([]string, 0, len(df))
	for t, d := range df {
		if d < v.cfg.MinDF || float64(d) > maxDocs {
			continue
		}
		terms = append(terms, t)
	}
	if len(terms) == 0 {
		return nil, domain.ErrEmptyVocabulary
	}

	if v.cfg.MaxFeatures > 0 && len(terms) > v.cfg.MaxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if total[terms[i]] != total[terms[j]] {
				return total[terms[i]] > total[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:v.cfg.MaxFeatures]
	}
	sort.Strings(terms)

	index := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	for i, t := range terms {
		index[t] = i
		idf[i] = math.Log(float64(1+n)/float64(1+df[t])) + 1
	}

	rows := make([]Vector, n)
	for i, c := range counts {
		rows[i] = weigh(c, index, idf)
	}
	return &Matrix{Terms: terms, IDF: idf, Rows: rows}, nil
}

func weigh(counts map[string]int, index map[string]int, idf []float64) Vector {
	var vec Vector
	for t, k := range counts {
		if j, ok := index[t]; ok {
			vec.Idx = append(vec.Idx, j)
			vec.Val = append(vec.Val, float64(k)*idf[j])
		}
	}
	sort.Sort(byIndex(vec))

	var norm float64
	for _, x := range vec.Val {
		norm += x * x
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec.Val {
			vec.Val[i] /= norm
		}
	}
	return vec
}

func (v *Vectorizer) termCounts(doc string) map[string]int {
	tokens := tokenRe.FindAllString(strings.ToLower(doc), -1)
	counts := make(map[string]int, len(tokens)*v.cfg.NgramMax)
	for size := 1; size <= v.cfg.NgramMax; size++ {
		for i := 0; i+size <= len(tokens); i++ {
			counts[strings.Join(tokens[i:i+size], " ")]++
		}
	}
	return counts
}

type byIndex Vector

func (b byIndex) Len() int           { return len(b.Idx) }
func (b byIndex) Less(i, j int) bool { return b.Idx[i] < b.Idx[j] }
func (b byIndex) Swap(i, j int) {
	b.Idx[i], b.Idx[j] = b.Idx[j], b.Idx[i]
	b.Val[i], b.Val[j] = b.Val[j], b.Val[i]
}
