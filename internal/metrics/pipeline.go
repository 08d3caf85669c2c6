package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every linkrank metric.
const Namespace = "linkrank"

// Page fetch sources.
const (
	SourceCache   = "cache"
	SourceNetwork = "network"
	SourceError   = "error"
)

// Pipeline Prometheus metrics.
var (
	SitemapFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sitemap_fetch_total",
			Help:      "Total number of sitemap documents fetched",
		},
		[]string{"status"}, // "ok" / "error"
	)

	SitemapURLsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sitemap_urls_total",
			Help:      "Total page URLs extracted from sitemaps",
		},
	)

	PageFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "page_fetch_total",
			Help:      "Total page fetches by source",
		},
		[]string{"source"},
	)

	PageFetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "page_fetch_duration_seconds",
			Help:      "Network page fetch duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	RankRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "rank_requests_total",
			Help:      "Total relevance ranking requests",
		},
		[]string{"scorer", "status"},
	)

	RankDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "rank_duration_seconds",
			Help:      "Relevance ranking duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"scorer"},
	)

	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"model", "status"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "embedding_cache_total",
			Help:      "Embedding cache lookups by result",
		},
		[]string{"result"},
	)
)

var pipelineRegistered bool

// RegisterPipelineMetrics registers crawl and ranking metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineRegistered {
		return
	}
	prometheus.MustRegister(SitemapFetchTotal)
	prometheus.MustRegister(SitemapURLsTotal)
	prometheus.MustRegister(PageFetchTotal)
	prometheus.MustRegister(PageFetchDuration)
	prometheus.MustRegister(RankRequestsTotal)
	prometheus.MustRegister(RankDuration)
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingCacheTotal)
	pipelineRegistered = true
}

// ObserveRank records one ranking request.
func ObserveRank(scorer string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	RankRequestsTotal.WithLabelValues(scorer, status).Inc()
	RankDuration.WithLabelValues(scorer).Observe(time.Since(start).Seconds())
}

// ObserveSitemap records one sitemap document fetch.
func ObserveSitemap(urls int, err error) {
	if err != nil {
		SitemapFetchTotal.WithLabelValues("error").Inc()
		return
	}
	SitemapFetchTotal.WithLabelValues("ok").Inc()
	SitemapURLsTotal.Add(float64(urls))
}
