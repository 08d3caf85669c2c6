package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/linkrank/internal/config"
	"github.com/kailas-cloud/linkrank/internal/db"
	dbRedis "github.com/kailas-cloud/linkrank/internal/db/redis"
	"github.com/kailas-cloud/linkrank/internal/db/sqldb"
	"github.com/kailas-cloud/linkrank/internal/domain"
	"github.com/kailas-cloud/linkrank/internal/domain/keyword"
	"github.com/kailas-cloud/linkrank/internal/domain/relevance"
	"github.com/kailas-cloud/linkrank/internal/domain/tfidf"
	"github.com/kailas-cloud/linkrank/internal/metrics"
	"github.com/kailas-cloud/linkrank/internal/repository/embcache"
	"github.com/kailas-cloud/linkrank/internal/repository/lists"
	pagerepo "github.com/kailas-cloud/linkrank/internal/repository/page"
	chiTransport "github.com/kailas-cloud/linkrank/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/linkrank/internal/transport/openai"
	"github.com/kailas-cloud/linkrank/internal/transport/web"
	crawluc "github.com/kailas-cloud/linkrank/internal/usecase/crawl"
	fetchuc "github.com/kailas-cloud/linkrank/internal/usecase/fetch"
	healthuc "github.com/kailas-cloud/linkrank/internal/usecase/health"
	suggestuc "github.com/kailas-cloud/linkrank/internal/usecase/suggest"
)

// backend is the lifecycle surface shared by every page store driver.
type backend interface {
	db.Pinger
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// app is the wired object graph.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	backend  backend
	keywords *keyword.Extractor
	fetch    *fetchuc.Service
	crawl    *crawluc.Service
	suggest  *suggestuc.Service
	health   *healthuc.Service
}

// build is the composition root.
func build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	metrics.RegisterPipelineMetrics()

	be, repo, kv, err := openPageStore(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	readiness := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := be.WaitForReady(ctx, readiness); err != nil {
		be.Close()
		return nil, fmt.Errorf("page store not ready: %w", err)
	}
	logger.Info("Connected to page store", zap.String("driver", cfg.Database.Driver))

	client := web.NewClient(web.ClientConfig{
		Timeout:      cfg.Crawler.Timeout(),
		UserAgent:    cfg.Crawler.UserAgent,
		MaxRetries:   cfg.Crawler.MaxRetries,
		BaseDelay:    time.Duration(cfg.Crawler.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:     time.Duration(cfg.Crawler.RetryMaxDelayMs) * time.Millisecond,
		MaxBodyBytes: cfg.Crawler.MaxBodyBytes,
		Logger:       logger,
	}, nil)
	resolver := web.NewResolver(client, cfg.Crawler.FollowSitemapIndex, logger)
	listRepo := lists.New(cfg.Lists.ExclusionFile, cfg.Lists.InclusionFile)
	extractor := keyword.NewExtractor(cfg.Keywords.Count)

	fetchSvc := fetchuc.New(repo, client, extractor, fetchuc.Options{
		WordLimit:       cfg.Crawler.WordLimit,
		IncludeURLTerms: cfg.Keywords.IncludeURLTerms,
		Logger:          logger,
	})

	scorer, embedder := buildScorer(cfg, kv, logger)
	ranker := relevance.NewRanker(scorer, relevance.Options{
		TitleWeight: cfg.Ranking.TitleWeight,
		Threshold:   cfg.Ranking.Threshold,
		TopK:        cfg.Ranking.TopK,
	})

	// nil interface, not a typed nil pointer, when no embedding backend
	var embChecker healthuc.EmbeddingChecker
	if embedder != nil {
		embChecker = embedder
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		backend:  be,
		keywords: extractor,
		fetch:    fetchSvc,
		crawl:    crawluc.New(resolver, fetchSvc, listRepo, cfg.Crawler.Workers, logger),
		suggest:  suggestuc.New(repo, listRepo, ranker, logger),
		health:   healthuc.New(be, embChecker, listRepo),
	}, nil
}

func (a *app) Close() { a.backend.Close() }

func (a *app) server() *chiTransport.Server {
	return chiTransport.NewServer(a.crawl, a.suggest, a.fetch, a.keywords, a.health, a.logger)
}

// openPageStore opens the configured driver. The key-value store is nil
// for SQL drivers.
func openPageStore(ctx context.Context, cfg config.DatabaseConfig) (backend, fetchuc.Repository, db.KVStore, error) {
	switch cfg.Driver {
	case config.DriverSQLite, config.DriverPostgres:
		dialect := sqldb.SQLite
		if cfg.Driver == config.DriverPostgres {
			dialect = sqldb.Postgres
		}
		conn, err := sqldb.Open(ctx, sqldb.Config{Dialect: dialect, Path: cfg.Path, DSN: cfg.DSN})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
		}
		return conn, pagerepo.NewSQLRepo(conn), nil, nil
	case config.DriverRedis, config.DriverValkey:
		store, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.Addrs, Password: cfg.Password})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
		}
		return store, pagerepo.NewHashRepo(store, cfg.KeyPrefix), store, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// buildScorer returns the configured scorer and, for the embedding scorer,
// its embedder for health checks. With a key-value store, embeddings are
// cached per model.
func buildScorer(cfg config.Config, kv db.KVStore, logger *zap.Logger) (relevance.Scorer, *openaiEmb.Embedder) {
	if cfg.Ranking.Scorer == config.ScorerEmbedding {
		emb := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Logger:     logger,
		})
		logger.Info("Embedding scorer enabled",
			zap.String("model", cfg.Embedding.Model),
			zap.Bool("cached", kv != nil),
		)
		var be domain.BatchEmbedder = emb
		if kv != nil {
			be = embcache.New(emb, kv, cfg.Database.KeyPrefix, cfg.Embedding.Model, metrics.EmbeddingCacheTotal, logger)
		}
		return openaiEmb.NewScorer(be), emb
	}
	return relevance.NewTFIDFScorer(tfidf.Config{
		MaxFeatures: cfg.Ranking.MaxFeatures,
		NgramMax:    cfg.Ranking.NgramMax,
		MinDF:       cfg.Ranking.MinDF,
		MaxDF:       cfg.Ranking.MaxDF,
	}), nil
}
