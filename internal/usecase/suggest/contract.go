package suggest

import (
	"context"

	"github.com/kailas-cloud/linkrank/internal/domain/linkfilter"
	dompage "github.com/kailas-cloud/linkrank/internal/domain/page"
	"github.com/kailas-cloud/linkrank/internal/domain/relevance"
)

// PageLister reads the cached corpus.
type PageLister interface {
	List(ctx context.Context) ([]dompage.Page, error)
}

// ListLoader loads the inclusion and exclusion lists.
type ListLoader interface {
	Load() (linkfilter.Lists, error)
}

// Ranker scores a corpus against new content.
type Ranker interface {
	ScorerName() string
	Rank(ctx context.Context, content string, corpus []relevance.Document, opts relevance.Options) (
		[]relevance.Suggestion, error,
	)
}
