package chi

import (
	"context"

	"github.com/kailas-cloud/linkrank/internal/domain/keyword"
	"github.com/kailas-cloud/linkrank/internal/domain/linkfilter"
	dompage "github.com/kailas-cloud/linkrank/internal/domain/page"
	crawluc "github.com/kailas-cloud/linkrank/internal/usecase/crawl"
	healthuc "github.com/kailas-cloud/linkrank/internal/usecase/health"
	suggestuc "github.com/kailas-cloud/linkrank/internal/usecase/suggest"
)

// Crawler runs crawls and classifies links.
type Crawler interface {
	Run(ctx context.Context, req crawluc.Request) (crawluc.Report, error)
	Classify(urls []string, dedupe bool) (linkfilter.Classification, int, error)
}

// Suggester ranks link candidates.
type Suggester interface {
	Suggest(ctx context.Context, req suggestuc.Request) (suggestuc.Response, error)
}

// PageCache manages cached pages.
type PageCache interface {
	Lookup(ctx context.Context, url string) (dompage.Page, error)
	List(ctx context.Context, limit int) ([]dompage.Page, error)
	Count(ctx context.Context) (int, error)
	Forget(ctx context.Context, url string) error
	Purge(ctx context.Context) (int64, error)
}

// KeywordExtractor ranks keyword phrases.
type KeywordExtractor interface {
	Count() int
	ExtractN(s string, n int) keyword.Result
}

// HealthChecker reports dependency status.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
