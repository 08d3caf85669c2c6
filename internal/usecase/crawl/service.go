// Package crawl runs the sitemap to keyword-enriched page pipeline.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/linkrank/internal/domain"
	"github.com/kailas-cloud/linkrank/internal/domain/linkfilter"
	"github.com/kailas-cloud/linkrank/internal/transport/web"
	"github.com/kailas-cloud/linkrank/internal/usecase/fetch"
)

// Request is one crawl run.
type Request struct {
	Sitemaps  []string
	WordLimit int
	Refresh   bool
}

// Outcome is the per-page result of a crawl.
type Outcome struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Class    string `json:"class"`
	Source   string `json:"source"`
	Keywords string `json:"keywords,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Report summarises a crawl run.
type Report struct {
	SitemapURLs     int                  `json:"sitemap_urls"`
	Duplicates      int                  `json:"duplicates"`
	Included        int                  `json:"included"`
	Excluded        int                  `json:"excluded"`
	Remaining       int                  `json:"remaining"`
	CacheHits       int                  `json:"cache_hits"`
	Fetched         int                  `json:"fetched"`
	Failed          int                  `json:"failed"`
	KeywordFailures int                  `json:"keyword_failures"`
	SitemapFailures []web.SitemapFailure `json:"sitemap_failures"`
	Warnings        []string             `json:"warnings,omitempty"`
	Pages           []Outcome            `json:"pages"`
}

// Service orchestrates resolve, dedupe, classify and fetch.
type Service struct {
	resolver SitemapResolver
	fetcher  PageFetcher
	lists    ListLoader
	workers  int
	logger   *zap.Logger
}

// New creates a crawl service. workers bounds concurrent page fetches.
func New(resolver SitemapResolver, fetcher PageFetcher, lists ListLoader, workers int, logger *zap.Logger) *Service {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{resolver: resolver, fetcher: fetcher, lists: lists, workers: workers, logger: logger}
}

// Run crawls the sitemaps. Per-sitemap and per-page failures are reported,
// never returned; only an invalid request or an unreadable list fails the run.
func (s *Service) Run(ctx context.Context, req Request) (Report, error) {
	sitemaps := cleanURLs(req.Sitemaps)
	if len(sitemaps) == 0 {
		return Report{}, fmt.Errorf("at least one sitemap url is required: %w", domain.ErrInvalidRequest)
	}

	resolved := s.resolver.Resolve(ctx, sitemaps)
	rep := Report{
		SitemapURLs:     len(resolved.URLs),
		SitemapFailures: resolved.Failures,
		Pages:           []Outcome{},
	}
	if rep.SitemapFailures == nil {
		rep.SitemapFailures = []web.SitemapFailure{}
	}

	urls, dropped := linkfilter.Dedupe(resolved.URLs)
	rep.Duplicates = dropped

	lists, warnings, err := LoadLists(s.lists)
	if err != nil {
		return Report{}, err
	}
	rep.Warnings = warnings
	for _, w := range warnings {
		s.logger.Warn("crawling without list", zap.String("reason", w))
	}

	cls := linkfilter.Classify(urls, lists)
	rep.Included, rep.Excluded, rep.Remaining = len(cls.Included), len(cls.Excluded), len(cls.Remaining)

	// prioritised pages first
	queue := make([]Outcome, 0, len(cls.Included)+len(cls.Remaining))
	for _, u := range cls.Included {
		queue = append(queue, Outcome{URL: u, Class: linkfilter.Included.String()})
	}
	for _, u := range cls.Remaining {
		queue = append(queue, Outcome{URL: u, Class: linkfilter.Remaining.String()})
	}

	results := s.fetchAll(ctx, queue, fetch.Request{WordLimit: req.WordLimit, Refresh: req.Refresh})
	for i, res := range results {
		out := queue[i]
		out.Title = res.Page.Title()
		out.Source = res.Source
		out.Keywords = res.Page.KeywordString()
		switch res.Source {
		case fetch.SourceCache:
			rep.CacheHits++
		case fetch.SourceNetwork:
			rep.Fetched++
		default:
			rep.Failed++
		}
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
		if res.KeywordErr != nil {
			rep.KeywordFailures++
		}
		rep.Pages = append(rep.Pages, out)
	}

	s.logger.Info("crawl finished",
		zap.Int("sitemaps", len(sitemaps)),
		zap.Int("sitemap_failures", len(rep.SitemapFailures)),
		zap.Int("urls", rep.SitemapURLs),
		zap.Int("cache_hits", rep.CacheHits),
		zap.Int("fetched", rep.Fetched),
		zap.Int("failed", rep.Failed),
	)
	return rep, nil
}

// fetchAll fetches in parallel and returns results in queue order. Workers
// never return errors, so one failure cannot cancel its siblings.
func (s *Service) fetchAll(ctx context.Context, queue []Outcome, req fetch.Request) []fetch.Result {
	results := make([]fetch.Result, len(queue))
	var g errgroup.Group
	g.SetLimit(s.workers)
	for i := range queue {
		g.Go(func() error {
			results[i] = s.fetcher.Fetch(ctx, queue[i].URL, req)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Classify partitions urls, optionally dropping duplicates first. A missing
// list file fails with domain.ErrListNotFound.
func (s *Service) Classify(urls []string, dedupe bool) (linkfilter.Classification, int, error) {
	lists, err := s.lists.Load()
	if err != nil {
		return linkfilter.Classification{}, 0, fmt.Errorf("load lists: %w", err)
	}
	dropped := 0
	if dedupe {
		urls, dropped = linkfilter.Dedupe(urls)
	}
	return linkfilter.Classify(urls, lists), dropped, nil
}

// LoadLists loads lists in degraded mode: a missing file becomes a warning
// and an empty list. Other read errors are returned.
func LoadLists(l ListLoader) (linkfilter.Lists, []string, error) {
	lists, err := l.Load()
	if err == nil {
		return lists, nil, nil
	}
	var warnings []string
	for _, e := range splitJoined(err) {
		var lnf *domain.ListNotFoundError
		if !errors.As(e, &lnf) {
			return linkfilter.Lists{}, nil, fmt.Errorf("load lists: %w", err)
		}
		warnings = append(warnings, lnf.Error())
	}
	return lists, warnings, nil
}

func splitJoined(err error) []error {
	if _, ok := err.(*domain.ListNotFoundError); ok { //nolint:errorlint // a single list error
		return []error{err}
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok { //nolint:errorlint // errors.Join result
		return j.Unwrap()
	}
	return []error{err}
}

func cleanURLs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, u := range in {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}
