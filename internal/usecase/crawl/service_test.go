package crawl

import (
	"context"
	"errors"
	"io/fs"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/linkrank/internal/domain"
	"github.com/kailas-cloud/linkrank/internal/domain/linkfilter"
	dompage "github.com/kailas-cloud/linkrank/internal/domain/page"
	"github.com/kailas-cloud/linkrank/internal/transport/web"
	"github.com/kailas-cloud/linkrank/internal/usecase/fetch"
)

// --- Mocks ---

type mockResolver struct {
	result web.SitemapResult
	got    []string
}

func (m *mockResolver) Resolve(_ context.Context, sitemaps []string) web.SitemapResult {
	m.got = sitemaps
	return m.result
}

type mockFetcher struct {
	mu       sync.Mutex
	fetched  []string
	failing  map[string]bool
	cached   map[string]bool
	badWords map[string]bool
	req      fetch.Request
}

func (m *mockFetcher) Fetch(_ context.Context, url string, req fetch.Request) fetch.Result {
	m.mu.Lock()
	m.fetched = append(m.fetched, url)
	m.req = req
	m.mu.Unlock()

	if m.failing[url] {
		err := errors.New("timeout")
		return fetch.Result{Page: dompage.NewError(url, err, time.Now()), Source: fetch.SourceError, Err: err}
	}
	p, _ := dompage.New(url, "Title "+url, "content", time.Now())
	res := fetch.Result{Page: p.WithKeywords([]string{"kw"}), Source: fetch.SourceNetwork}
	if m.cached[url] {
		res.Source = fetch.SourceCache
	}
	if m.badWords[url] {
		res.KeywordErr = domain.ErrMalformedText
	}
	return res
}

type mockLists struct {
	lists linkfilter.Lists
	err   error
}

func (m *mockLists) Load() (linkfilter.Lists, error) { return m.lists, m.err }

// --- Tests ---

func TestRun_Pipeline(t *testing.T) {
	res := &mockResolver{result: web.SitemapResult{
		URLs: []string{
			"https://spam.com/x",
			"https://other.com/z",
			"https://acviss.com/y",
			"https://other.com/z",
		},
		Failures: []web.SitemapFailure{{Sitemap: "https://bad/sitemap.xml", Err: errors.New("boom")}},
	}}
	f := &mockFetcher{cached: map[string]bool{"https://acviss.com/y": true}}
	lists := &mockLists{lists: linkfilter.Lists{Exclusion: []string{"spam.com"}, Inclusion: []string{"acviss.com"}}}
	svc := New(res, f, lists, 1, nil)

	rep, err := svc.Run(context.Background(), Request{
		Sitemaps:  []string{" https://a.com/sitemap.xml ", ""},
		WordLimit: 50,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(res.got, []string{"https://a.com/sitemap.xml"}) {
		t.Errorf("resolver got %q", res.got)
	}
	if rep.SitemapURLs != 4 || rep.Duplicates != 1 {
		t.Errorf("SitemapURLs = %d, Duplicates = %d", rep.SitemapURLs, rep.Duplicates)
	}
	if rep.Included != 1 || rep.Excluded != 1 || rep.Remaining != 1 {
		t.Errorf("classification = %d/%d/%d", rep.Included, rep.Excluded, rep.Remaining)
	}
	if rep.CacheHits != 1 || rep.Fetched != 1 || rep.Failed != 0 {
		t.Errorf("cache=%d fetched=%d failed=%d", rep.CacheHits, rep.Fetched, rep.Failed)
	}
	if len(rep.SitemapFailures) != 1 {
		t.Errorf("SitemapFailures = %+v", rep.SitemapFailures)
	}
	// included first, excluded never fetched
	want := []string{"https://acviss.com/y", "https://other.com/z"}
	if !reflect.DeepEqual(f.fetched, want) {
		t.Errorf("fetched = %q, want %q", f.fetched, want)
	}
	if rep.Pages[0].Class != "included" || rep.Pages[1].Class != "remaining" {
		t.Errorf("pages = %+v", rep.Pages)
	}
	if f.req.WordLimit != 50 {
		t.Errorf("word limit not forwarded: %+v", f.req)
	}
}

func TestRun_FailuresIsolated(t *testing.T) {
	urls := []string{"https://a.com/1", "https://a.com/2", "https://a.com/3", "https://a.com/4"}
	f := &mockFetcher{
		failing:  map[string]bool{"https://a.com/2": true},
		badWords: map[string]bool{"https://a.com/3": true},
	}
	svc := New(&mockResolver{result: web.SitemapResult{URLs: urls}}, f, &mockLists{}, 3, nil)

	rep, err := svc.Run(context.Background(), Request{Sitemaps: []string{"s"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.Fetched != 3 || rep.Failed != 1 || rep.KeywordFailures != 1 {
		t.Errorf("fetched=%d failed=%d kwfail=%d", rep.Fetched, rep.Failed, rep.KeywordFailures)
	}
	// order preserved regardless of worker scheduling
	for i, p := range rep.Pages {
		if p.URL != urls[i] {
			t.Errorf("Pages[%d] = %s, want %s", i, p.URL, urls[i])
		}
	}
	if rep.Pages[1].Error == "" || rep.Pages[1].Title != dompage.ErrorTitle {
		t.Errorf("failed page outcome = %+v", rep.Pages[1])
	}
}

func TestRun_NoSitemaps(t *testing.T) {
	svc := New(&mockResolver{}, &mockFetcher{}, &mockLists{}, 1, nil)
	_, err := svc.Run(context.Background(), Request{Sitemaps: []string{"  "}})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestRun_AllSitemapsFail(t *testing.T) {
	res := &mockResolver{result: web.SitemapResult{
		URLs:     []string{},
		Failures: []web.SitemapFailure{{Sitemap: "a", Err: errors.New("x")}},
	}}
	rep, err := New(res, &mockFetcher{}, &mockLists{}, 2, nil).Run(context.Background(), Request{Sitemaps: []string{"a"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Pages) != 0 || len(rep.SitemapFailures) != 1 {
		t.Errorf("rep = %+v", rep)
	}
}

func TestRun_MissingListDegrades(t *testing.T) {
	lists := &mockLists{
		lists: linkfilter.Lists{Inclusion: []string{"a.com"}},
		err:   errors.Join(domain.NewListNotFound("exclusion_list.txt", fs.ErrNotExist)),
	}
	res := &mockResolver{result: web.SitemapResult{URLs: []string{"https://a.com/1"}}}
	rep, err := New(res, &mockFetcher{}, lists, 1, nil).Run(context.Background(), Request{Sitemaps: []string{"s"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Warnings) != 1 || rep.Included != 1 {
		t.Errorf("Warnings = %q, Included = %d", rep.Warnings, rep.Included)
	}
}

func TestRun_ListReadErrorFails(t *testing.T) {
	lists := &mockLists{err: errors.New("permission denied")}
	res := &mockResolver{result: web.SitemapResult{URLs: []string{"https://a.com/1"}}}
	if _, err := New(res, &mockFetcher{}, lists, 1, nil).Run(context.Background(), Request{Sitemaps: []string{"s"}}); err == nil {
		t.Fatal("expected error")
	}
}

func TestClassify(t *testing.T) {
	lists := &mockLists{lists: linkfilter.Lists{Exclusion: []string{"spam.com"}, Inclusion: []string{"acviss.com"}}}
	svc := New(&mockResolver{}, &mockFetcher{}, lists, 1, nil)
	in := []string{"https://spam.com/x", "https://acviss.com/y", "https://other.com/z", "https://other.com/z"}

	cls, dropped, err := svc.Classify(in, false)
	if err != nil || dropped != 0 || cls.Total() != 4 {
		t.Fatalf("Classify() = %+v, %d, %v", cls, dropped, err)
	}
	cls, dropped, err = svc.Classify(in, true)
	if err != nil || dropped != 1 || len(cls.Remaining) != 1 {
		t.Fatalf("Classify(dedupe) = %+v, %d, %v", cls, dropped, err)
	}
}

func TestClassify_MissingList(t *testing.T) {
	lists := &mockLists{err: errors.Join(domain.NewListNotFound("inclusion_list.txt", fs.ErrNotExist))}
	svc := New(&mockResolver{}, &mockFetcher{}, lists, 1, nil)
	if _, _, err := svc.Classify([]string{"x"}, false); !errors.Is(err, domain.ErrListNotFound) {
		t.Fatalf("err = %v, want ErrListNotFound", err)
	}
}
