// Package suggest assembles the corpus and ranks internal link candidates.
package suggest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/linkrank/internal/domain"
	"github.com/kailas-cloud/linkrank/internal/domain/linkfilter"
	dompage "github.com/kailas-cloud/linkrank/internal/domain/page"
	"github.com/kailas-cloud/linkrank/internal/domain/relevance"
	"github.com/kailas-cloud/linkrank/internal/domain/text"
	"github.com/kailas-cloud/linkrank/internal/metrics"
	"github.com/kailas-cloud/linkrank/internal/usecase/crawl"
)

// Request is one suggestion query. Zero tuning fields and a nil Threshold
// take the ranker defaults.
type Request struct {
	Content     string
	TitleWeight int
	Threshold   *float64
	Limit       int
	// URLs restricts the corpus when non-empty.
	URLs []string
}

// Response carries ranked suggestions.
type Response struct {
	Suggestions []relevance.Suggestion `json:"suggestions"`
	CorpusSize  int                    `json:"corpus_size"`
	Warnings    []string               `json:"warnings,omitempty"`
}

// Service ranks cached pages against new content.
type Service struct {
	pages  PageLister
	lists  ListLoader
	ranker Ranker
	logger *zap.Logger
}

// New creates a suggestion service.
func New(pages PageLister, lists ListLoader, ranker Ranker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{pages: pages, lists: lists, ranker: ranker, logger: logger}
}

// Suggest returns the pages most relevant to req.Content.
func (s *Service) Suggest(ctx context.Context, req Request) (Response, error) {
	if !text.Valid(req.Content) {
		return Response{}, fmt.Errorf("content is not valid utf-8: %w", domain.ErrInvalidRequest)
	}
	if t := req.Threshold; t != nil && (*t < 0 || *t > 1) {
		return Response{}, fmt.Errorf("threshold must be within [0,1]: %w", domain.ErrInvalidRequest)
	}
	if req.TitleWeight < 0 || req.Limit < 0 {
		return Response{}, fmt.Errorf("title_weight and limit must not be negative: %w", domain.ErrInvalidRequest)
	}

	lists, warnings, err := crawl.LoadLists(s.lists)
	if err != nil {
		return Response{}, err //nolint:wrapcheck // already wrapped
	}

	pages, err := s.pages.List(ctx)
	if err != nil {
		return Response{}, fmt.Errorf("list pages: %w", err)
	}
	corpus := Corpus(pages, lists, req.URLs)

	start := time.Now()
	suggestions, err := s.ranker.Rank(ctx, req.Content, corpus, relevance.Options{
		TitleWeight: req.TitleWeight,
		Threshold:   req.Threshold,
		TopK:        req.Limit,
	})
	metrics.ObserveRank(s.ranker.ScorerName(), start, err)
	if err != nil {
		return Response{}, fmt.Errorf("rank: %w", err)
	}

	s.logger.Debug("ranked corpus",
		zap.String("scorer", s.ranker.ScorerName()),
		zap.Int("corpus", len(corpus)),
		zap.Int("suggestions", len(suggestions)),
	)
	return Response{Suggestions: suggestions, CorpusSize: len(corpus), Warnings: warnings}, nil
}

// Corpus builds the ranking corpus from stored pages. Error pages and
// excluded pages are dropped; a non-empty only restricts the corpus to those
// URLs. Inclusion-list pages come first, each group keeping its order.
func Corpus(pages []dompage.Page, lists linkfilter.Lists, only []string) []relevance.Document {
	var allow map[string]struct{}
	if len(only) > 0 {
		allow = make(map[string]struct{}, len(only))
		for _, u := range only {
			allow[strings.TrimSpace(u)] = struct{}{}
		}
	}

	var prio, rest []relevance.Document
	for i := range pages {
		p := &pages[i]
		if p.Failed() {
			continue
		}
		if allow != nil {
			if _, ok := allow[p.URL()]; !ok {
				continue
			}
		}
		doc := relevance.Document{URL: p.URL(), Title: p.Title(), Keywords: p.KeywordString()}
		switch linkfilter.Match(p.URL(), lists) {
		case linkfilter.Excluded:
			continue
		case linkfilter.Included:
			prio = append(prio, doc)
		default:
			rest = append(rest, doc)
		}
	}
	return append(prio, rest...)
}
