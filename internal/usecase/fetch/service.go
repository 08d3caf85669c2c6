// Package fetch retrieves pages through the page store cache.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/linkrank/internal/domain"
	"github.com/kailas-cloud/linkrank/internal/domain/keyword"
	dompage "github.com/kailas-cloud/linkrank/internal/domain/page"
	"github.com/kailas-cloud/linkrank/internal/metrics"
	"github.com/kailas-cloud/linkrank/internal/transport/web"
)

// Page sources reported in Result.Source.
const (
	SourceCache   = metrics.SourceCache
	SourceNetwork = metrics.SourceNetwork
	SourceError   = metrics.SourceError
)

// Result is the typed outcome of one fetch. Page is always usable: on
// failure it is the sentinel error page and Err carries the cause.
type Result struct {
	Page       dompage.Page
	Source     string
	Err        error
	KeywordErr error
}

// Request tunes a single fetch.
type Request struct {
	WordLimit int
	// Refresh skips the cache read; the fresh page still overwrites the entry.
	Refresh bool
}

// Options configures the service.
type Options struct {
	WordLimit       int
	IncludeURLTerms bool
	Logger          *zap.Logger
}

// Service is the cache-first content fetcher.
type Service struct {
	repo            Repository
	dl              Downloader
	kw              KeywordExtractor
	wordLimit       int
	includeURLTerms bool
	logger          *zap.Logger
	now             func() time.Time
}

// New creates a fetch service.
func New(repo Repository, dl Downloader, kw KeywordExtractor, opts Options) *Service {
	if opts.WordLimit <= 0 {
		opts.WordLimit = web.DefaultWordLimit
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Service{
		repo:            repo,
		dl:              dl,
		kw:              kw,
		wordLimit:       opts.WordLimit,
		includeURLTerms: opts.IncludeURLTerms,
		logger:          opts.Logger,
		now:             time.Now,
	}
}

// Fetch returns the cached page for url or downloads, extracts, enriches
// and stores it. It never fails: errors are carried in the Result.
func (s *Service) Fetch(ctx context.Context, url string, req Request) Result {
	if !req.Refresh {
		p, err := s.repo.Get(ctx, url)
		switch {
		case err == nil:
			metrics.PageFetchTotal.WithLabelValues(SourceCache).Inc()
			return Result{Page: p, Source: SourceCache}
		case !errors.Is(err, domain.ErrPageNotFound):
			s.logger.Warn("page cache read failed", zap.String("url", url), zap.Error(err))
		}
	}

	limit := req.WordLimit
	if limit <= 0 {
		limit = s.wordLimit
	}

	start := s.now()
	p, err := s.download(ctx, url, limit)
	metrics.PageFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PageFetchTotal.WithLabelValues(SourceError).Inc()
		s.logger.Warn("page fetch failed", zap.String("url", url), zap.Error(err))
		return Result{Page: dompage.NewError(url, err, s.now()), Source: SourceError, Err: err}
	}
	metrics.PageFetchTotal.WithLabelValues(SourceNetwork).Inc()

	res := Result{Source: SourceNetwork}
	p, res.KeywordErr = s.enrich(p)
	if res.KeywordErr != nil {
		s.logger.Warn("keyword extraction failed", zap.String("url", url), zap.Error(res.KeywordErr))
	}
	res.Page = p

	// concurrent fetches of one url race here; the last write wins
	if err := s.repo.Upsert(ctx, p); err != nil {
		s.logger.Warn("page cache write failed", zap.String("url", url), zap.Error(err))
	}
	return res
}

func (s *Service) download(ctx context.Context, url string, limit int) (dompage.Page, error) {
	doc, err := s.dl.GetDocument(ctx, url)
	if err != nil {
		return dompage.Page{}, fmt.Errorf("get %s: %w", url, err)
	}
	ex, err := web.Extract(doc.Body, doc.ContentType, limit)
	if err != nil {
		return dompage.Page{}, err //nolint:wrapcheck // already names the parse step
	}
	return dompage.New(url, ex.Title, ex.Content, s.now()) //nolint:wrapcheck // validation error
}

func (s *Service) enrich(p dompage.Page) (dompage.Page, error) {
	var phrases []string
	var kwErr error
	if s.kw != nil {
		res := s.kw.Extract(p.Content())
		phrases, kwErr = res.Phrases, res.Err
	}
	if s.includeURLTerms {
		phrases = keyword.Merge(phrases, keyword.FromURL(p.URL()))
	}
	return p.WithKeywords(phrases), kwErr
}

// Lookup returns one cached page.
func (s *Service) Lookup(ctx context.Context, url string) (dompage.Page, error) {
	p, err := s.repo.Get(ctx, url)
	if err != nil {
		return dompage.Page{}, fmt.Errorf("lookup %s: %w", url, err)
	}
	return p, nil
}

// List returns cached pages ordered by URL, at most limit when limit > 0.
func (s *Service) List(ctx context.Context, limit int) ([]dompage.Page, error) {
	pages, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	if limit > 0 && len(pages) > limit {
		pages = pages[:limit]
	}
	return pages, nil
}

// Count returns the number of cached pages.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return n, nil
}

// Forget removes one page so the next crawl fetches it again.
func (s *Service) Forget(ctx context.Context, url string) error {
	if err := s.repo.Delete(ctx, url); err != nil {
		return fmt.Errorf("delete %s: %w", url, err)
	}
	return nil
}

// Purge removes every cached page.
func (s *Service) Purge(ctx context.Context) (int64, error) {
	n, err := s.repo.Purge(ctx)
	if err != nil {
		return 0, fmt.Errorf("purge pages: %w", err)
	}
	s.logger.Info("page cache purged", zap.Int64("deleted", n))
	return n, nil
}
