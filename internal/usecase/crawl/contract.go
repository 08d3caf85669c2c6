package crawl

import (
	"context"

	"github.com/kailas-cloud/linkrank/internal/domain/linkfilter"
	"github.com/kailas-cloud/linkrank/internal/transport/web"
	"github.com/kailas-cloud/linkrank/internal/usecase/fetch"
)

// SitemapResolver expands sitemap URLs into page URLs.
type SitemapResolver interface {
	Resolve(ctx context.Context, sitemaps []string) web.SitemapResult
}

// PageFetcher retrieves one page through the cache.
type PageFetcher interface {
	Fetch(ctx context.Context, url string, req fetch.Request) fetch.Result
}

// ListLoader loads the inclusion and exclusion lists.
type ListLoader interface {
	Load() (linkfilter.Lists, error)
}
