// Command linkrank crawls sitemaps into a page cache and suggests internal
// links for new content.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/linkrank/internal/config"
	logpkg "github.com/kailas-cloud/linkrank/internal/logger"
	"github.com/kailas-cloud/linkrank/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "linkrank:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "linkrank",
		Usage:   "sitemap crawler and internal link suggester",
		Version: fmt.Sprintf("%s (%s, %s)", version.Version, version.Commit, version.Date),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file path (default: config/$ENV.yaml)",
				EnvVars: []string{"LINKRANK_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: ServeAction,
			},
			{
				Name:      "crawl",
				Usage:     "resolve sitemaps and cache every page",
				ArgsUsage: "[sitemap-url...]",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "sitemap", Aliases: []string{"s"}, Usage: "sitemap URL (repeatable)"},
					&cli.IntFlag{Name: "word-limit", Usage: "words kept per page (default from config)"},
					&cli.BoolFlag{Name: "refresh", Usage: "ignore cached pages"},
				},
				Action: CrawlAction,
			},
			{
				Name:  "suggest",
				Usage: "rank cached pages as link targets for content",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "content", Usage: "content text"},
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "read content from file"},
					&cli.Float64Flag{Name: "threshold", Usage: "minimum similarity in [0,1]"},
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "maximum suggestions"},
					&cli.IntFlag{Name: "title-weight", Usage: "title repetitions in page text"},
					&cli.StringSliceFlag{Name: "url", Usage: "restrict the corpus to these URLs"},
				},
				Action: SuggestAction,
			},
			{
				Name:      "classify",
				Usage:     "partition links with the inclusion and exclusion lists",
				ArgsUsage: "[url...]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "read URLs from file, one per line"},
					&cli.BoolFlag{Name: "dedupe", Usage: "drop repeated URLs first"},
				},
				Action: ClassifyAction,
			},
			{
				Name:  "keywords",
				Usage: "extract keyword phrases from text",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "text", Usage: "input text"},
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "read text from file"},
					&cli.IntFlag{Name: "count", Usage: "phrases returned"},
				},
				Action: KeywordsAction,
			},
			{
				Name:  "pages",
				Usage: "inspect and purge the page cache",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "print cached pages",
						Flags:  []cli.Flag{&cli.IntFlag{Name: "limit", Usage: "maximum pages (0 for all)"}},
						Action: PagesListAction,
					},
					{
						Name:      "delete",
						Usage:     "forget one cached page",
						ArgsUsage: "<url>",
						Action:    PagesDeleteAction,
					},
					{
						Name:   "purge",
						Usage:  "forget every cached page",
						Action: PagesPurgeAction,
					},
				},
			},
		},
	}
}

// loadConfig reads --config when set, else config/<ENV>.yaml.
func loadConfig(c *cli.Context) (config.Config, string, error) {
	env := config.GetEnv()
	var (
		cfg config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return config.Config{}, "", fmt.Errorf("load config: %w", err)
	}
	return cfg, env, nil
}

// setup loads config and logger and wires the object graph. Callers close the app.
func setup(c *cli.Context) (*app, error) {
	cfg, env, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	a, err := build(c.Context, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	logger.Debug("linkrank wired",
		zap.String("version", version.Version),
		zap.String("env", env),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("scorer", cfg.Ranking.Scorer),
	)
	return a, nil
}
