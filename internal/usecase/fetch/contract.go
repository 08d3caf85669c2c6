package fetch

import (
	"context"

	"github.com/kailas-cloud/linkrank/internal/domain/keyword"
	dompage "github.com/kailas-cloud/linkrank/internal/domain/page"
	"github.com/kailas-cloud/linkrank/internal/transport/web"
)

// Repository defines the page store contract.
type Repository interface {
	Get(ctx context.Context, url string) (dompage.Page, error)
	Upsert(ctx context.Context, p dompage.Page) error
	List(ctx context.Context) ([]dompage.Page, error)
	Delete(ctx context.Context, url string) error
	Purge(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int, error)
}

// Downloader retrieves raw page bodies with their Content-Type.
type Downloader interface {
	GetDocument(ctx context.Context, target string) (web.Document, error)
}

// KeywordExtractor ranks keyword phrases in page text.
type KeywordExtractor interface {
	Extract(s string) keyword.Result
}
