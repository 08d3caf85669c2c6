package page

import (
	"fmt"
	"strings"
	"time"
)

// Sentinel titles and bodies produced by the content fetcher.
const (
	ErrorTitle     = "Error"
	NoTitle        = "No Title"
	NoContent      = "No Content"
	errorBodyLabel = "Error fetching content: "
)

// KeywordSeparator joins keyword phrases into their display/storage form.
const KeywordSeparator = ", "

// Page is a fetched web page (immutable value object). The URL is its sole identity.
type Page struct {
	url       string
	title     string
	content   string
	keywords  []string
	fetchedAt time.Time
	failed    bool
}

// New validates and creates a Page from a successful fetch.
func New(url, title, content string, fetchedAt time.Time) (Page, error) {
	if strings.TrimSpace(url) == "" {
		return Page{}, fmt.Errorf("page url is required")
	}
	return Page{url: url, title: title, content: content, fetchedAt: fetchedAt}, nil
}

// NewError synthesizes the sentinel page for a fetch that failed.
func NewError(url string, cause error, at time.Time) Page {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return Page{
		url:       url,
		title:     ErrorTitle,
		content:   errorBodyLabel + msg,
		fetchedAt: at,
		failed:    true,
	}
}

// Reconstruct creates a Page without validation (storage hydration).
func Reconstruct(url, title, content string, keywords []string, fetchedAt time.Time) Page {
	return Page{
		url:       url,
		title:     title,
		content:   content,
		keywords:  keywords,
		fetchedAt: fetchedAt,
		failed:    title == ErrorTitle && strings.HasPrefix(content, errorBodyLabel),
	}
}

// URL returns the page identity.
func (p *Page) URL() string { return p.url }

// Title returns the document title.
func (p *Page) Title() string { return p.title }

// Content returns the word-bounded body text.
func (p *Page) Content() string { return p.content }

// Keywords returns the ranked keyword phrases.
func (p *Page) Keywords() []string { return p.keywords }

// KeywordString returns the keywords joined for display and scoring.
func (p *Page) KeywordString() string { return strings.Join(p.keywords, KeywordSeparator) }

// FetchedAt returns when the page was fetched.
func (p *Page) FetchedAt() time.Time { return p.fetchedAt }

// Failed reports whether this is a synthesized error page.
func (p *Page) Failed() bool { return p.failed }

// WithKeywords returns a copy carrying the given keyword phrases.
func (p *Page) WithKeywords(keywords []string) Page {
	kw := make([]string, len(keywords))
	copy(kw, keywords)
	return Page{
		url: p.url, title: p.title, content: p.content,
		keywords: kw, fetchedAt: p.fetchedAt, failed: p.failed,
	}
}

// SplitKeywords parses a stored keyword string back into phrases.
func SplitKeywords(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, KeywordSeparator)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
