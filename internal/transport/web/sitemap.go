package web

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/kailas-cloud/linkrank/internal/metrics"
)

// SitemapNamespace is the sitemaps.org protocol namespace.
const SitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// maxSitemapFetches bounds index traversal per Resolve call.
const maxSitemapFetches = 500

// fetcher is the consumer interface for HTTP downloads (ISP).
type fetcher interface {
	Get(ctx context.Context, target string) ([]byte, error)
}

// SitemapFailure records one sitemap that could not be processed.
type SitemapFailure struct {
	Sitemap string `json:"sitemap"`
	Err     error  `json:"-"`
}

// MarshalJSON renders the error as text.
func (f SitemapFailure) MarshalJSON() ([]byte, error) {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(struct { //nolint:wrapcheck // plain struct, cannot fail
		Sitemap string `json:"sitemap"`
		Error   string `json:"error"`
	}{f.Sitemap, msg})
}

// SitemapResult is the flattened outcome of resolving several sitemaps.
type SitemapResult struct {
	URLs     []string
	Failures []SitemapFailure
}

// Resolver extracts page URLs from sitemap documents.
type Resolver struct {
	client      fetcher
	followIndex bool
	logger      *zap.Logger
}

// NewResolver creates a sitemap resolver. With followIndex, <sitemapindex>
// children are fetched instead of being returned as page URLs.
func NewResolver(client fetcher, followIndex bool, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{client: client, followIndex: followIndex, logger: logger}
}

// Resolve fetches every sitemap in order and concatenates their <loc>
// values. A failing sitemap is recorded and skipped; Resolve itself never
// fails. Duplicates are kept.
func (r *Resolver) Resolve(ctx context.Context, sitemaps []string) SitemapResult {
	res := SitemapResult{URLs: []string{}}
	queue := append([]string(nil), sitemaps...)
	visited := make(map[string]bool, len(sitemaps))
	fetches := 0

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		// an index may reference the same child twice; top-level input
		// sitemaps are processed as given
		if r.followIndex {
			if visited[current] {
				continue
			}
			visited[current] = true
		}
		if fetches >= maxSitemapFetches {
			res.Failures = append(res.Failures, SitemapFailure{
				Sitemap: current,
				Err:     fmt.Errorf("sitemap fetch limit %d reached", maxSitemapFetches),
			})
			continue
		}
		fetches++

		doc, err := r.fetch(ctx, current)
		metrics.ObserveSitemap(len(doc.Locs), err)
		if err != nil {
			r.logger.Warn("sitemap failed", zap.String("sitemap", current), zap.Error(err))
			res.Failures = append(res.Failures, SitemapFailure{Sitemap: current, Err: err})
			continue
		}

		if doc.Index && r.followIndex {
			queue = append(queue, doc.Locs...)
			continue
		}
		res.URLs = append(res.URLs, doc.Locs...)
	}
	return res
}

func (r *Resolver) fetch(ctx context.Context, sitemap string) (SitemapDocument, error) {
	data, err := r.client.Get(ctx, sitemap)
	if err != nil {
		return SitemapDocument{}, fmt.Errorf("fetch sitemap: %w", err)
	}
	doc, err := ParseSitemap(bytes.NewReader(data))
	if err != nil {
		return SitemapDocument{}, fmt.Errorf("parse sitemap: %w", err)
	}
	return doc, nil
}

// SitemapDocument is one parsed sitemap or sitemap index.
type SitemapDocument struct {
	Index bool
	Locs  []string
}

// ParseSitemap returns every namespaced <loc> value in document order and
// whether the root is a <sitemapindex>.
func ParseSitemap(r io.Reader) (SitemapDocument, error) {
	var (
		doc    SitemapDocument
		inLoc  bool
		buf    strings.Builder
		rooted bool
	)
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return SitemapDocument{}, err //nolint:wrapcheck // wrapped by caller
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if !rooted {
				rooted = true
				doc.Index = t.Name.Local == "sitemapindex"
			}
			if t.Name.Local == "loc" && t.Name.Space == SitemapNamespace {
				inLoc = true
				buf.Reset()
			}
		case xml.CharData:
			if inLoc {
				buf.Write(t)
			}
		case xml.EndElement:
			if inLoc && t.Name.Local == "loc" {
				inLoc = false
				if loc := strings.TrimSpace(buf.String()); loc != "" {
					doc.Locs = append(doc.Locs, loc)
				}
			}
		}
	}
	if !rooted {
		return SitemapDocument{}, errors.New("empty document")
	}
	return doc, nil
}
