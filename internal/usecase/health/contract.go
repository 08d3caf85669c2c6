package health

import (
	"context"

	"github.com/kailas-cloud/linkrank/internal/domain/linkfilter"
)

// DBPinger checks page store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// ListLoader reads the inclusion and exclusion lists.
type ListLoader interface {
	Load() (linkfilter.Lists, error)
}
