package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/linkrank/internal/domain/keyword"
	"github.com/kailas-cloud/linkrank/internal/domain/relevance"
	logpkg "github.com/kailas-cloud/linkrank/internal/logger"
	"github.com/kailas-cloud/linkrank/internal/repository/lists"
	chiTransport "github.com/kailas-cloud/linkrank/internal/transport/chi"
	crawluc "github.com/kailas-cloud/linkrank/internal/usecase/crawl"
	suggestuc "github.com/kailas-cloud/linkrank/internal/usecase/suggest"
	"github.com/kailas-cloud/linkrank/internal/version"
)

// ServeAction runs the HTTP API until SIGINT/SIGTERM.
func ServeAction(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.Close()
	defer func() { _ = a.logger.Sync() }()

	cfg := a.cfg
	a.logger.Info("Starting linkrank API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("scorer", cfg.Ranking.Scorer),
	)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.NewRouter(a.server(), a.logger),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-c.Context.Done():
		a.logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Error during shutdown", zap.Error(err))
	}
	a.logger.Info("Server stopped gracefully")
	return nil
}

// CrawlAction resolves sitemaps, fetches every page and prints the report.
func CrawlAction(c *cli.Context) error {
	sitemaps := append(c.StringSlice("sitemap"), c.Args().Slice()...)
	if len(sitemaps) == 0 {
		return cli.Exit("at least one sitemap URL is required", 2)
	}

	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.crawl.Run(c.Context, crawluc.Request{
		Sitemaps:  sitemaps,
		WordLimit: c.Int("word-limit"),
		Refresh:   c.Bool("refresh"),
	})
	if err != nil {
		return fmt.Errorf("crawl: %w", err)
	}
	return printJSON(c.App.Writer, report)
}

// SuggestAction ranks cached pages against content from --content, --file or stdin.
func SuggestAction(c *cli.Context) error {
	content, err := readInput(c, "content")
	if err != nil {
		return err
	}

	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.Close()

	req := suggestuc.Request{
		Content:     content,
		TitleWeight: c.Int("title-weight"),
		Limit:       c.Int("limit"),
		URLs:        c.StringSlice("url"),
	}
	if c.IsSet("threshold") {
		req.Threshold = relevance.Threshold(c.Float64("threshold"))
	}
	resp, err := a.suggest.Suggest(c.Context, req)
	if err != nil {
		return fmt.Errorf("suggest: %w", err)
	}
	return printJSON(c.App.Writer, resp)
}

// ClassifyAction partitions URLs from args or --file. It needs only the
// list files, so no page store is opened.
func ClassifyAction(c *cli.Context) error {
	urls := c.Args().Slice()
	if path := c.String("file"); path != "" {
		fromFile, err := readLines(path)
		if err != nil {
			return err
		}
		urls = append(urls, fromFile...)
	}

	cfg, env, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	svc := crawluc.New(nil, nil, lists.New(cfg.Lists.ExclusionFile, cfg.Lists.InclusionFile), 1, logger)
	cls, dropped, err := svc.Classify(urls, c.Bool("dedupe"))
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}
	return printJSON(c.App.Writer, chiTransport.ClassifyResponse{Classification: cls, Duplicates: dropped})
}

// KeywordsAction prints the RAKE phrases of text from --text, --file or stdin.
func KeywordsAction(c *cli.Context) error {
	input, err := readInput(c, "text")
	if err != nil {
		return err
	}
	cfg, _, err := loadConfig(c)
	if err != nil {
		return err
	}

	ext := keyword.NewExtractor(cfg.Keywords.Count)
	n := c.Int("count")
	if n <= 0 {
		n = ext.Count()
	}
	res := ext.ExtractN(input, n)
	phrases := res.Phrases
	if phrases == nil {
		phrases = []string{}
	}
	return printJSON(c.App.Writer, chiTransport.KeywordsResponse{Keywords: res.String(), Phrases: phrases})
}

// PagesListAction prints cached pages without their content.
func PagesListAction(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.Close()

	pages, err := a.fetch.List(c.Context, c.Int("limit"))
	if err != nil {
		return err //nolint:wrapcheck // already wrapped by the service
	}
	total, err := a.fetch.Count(c.Context)
	if err != nil {
		return err //nolint:wrapcheck // already wrapped by the service
	}
	items := make([]chiTransport.PageResponse, len(pages))
	for i := range pages {
		items[i] = chiTransport.PageToResponse(&pages[i], false)
	}
	return printJSON(c.App.Writer, chiTransport.PageListResponse{Items: items, Total: total})
}

// PagesDeleteAction forgets one page.
func PagesDeleteAction(c *cli.Context) error {
	url := strings.TrimSpace(c.Args().First())
	if url == "" {
		return cli.Exit("a page URL is required", 2)
	}
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.fetch.Forget(c.Context, url); err != nil {
		return err //nolint:wrapcheck // already wrapped by the service
	}
	return printJSON(c.App.Writer, map[string]string{"deleted": url})
}

// PagesPurgeAction forgets every cached page.
func PagesPurgeAction(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.fetch.Purge(c.Context)
	if err != nil {
		return err //nolint:wrapcheck // already wrapped by the service
	}
	return printJSON(c.App.Writer, map[string]int64{"deleted": n})
}

// readInput returns the flag value, the --file contents, or stdin, in that order.
func readInput(c *cli.Context, flag string) (string, error) {
	if v := c.String(flag); v != "" {
		return v, nil
	}
	var (
		data []byte
		err  error
	)
	if path := c.String("file"); path != "" {
		data, err = os.ReadFile(filepath.Clean(path))
	} else {
		data, err = io.ReadAll(c.App.Reader)
	}
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", cli.Exit(fmt.Sprintf("no input: use --%s, --file or stdin", flag), 2)
	}
	return string(data), nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			out = append(out, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
