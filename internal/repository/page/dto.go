package page

import (
	"strconv"
	"time"

	dompage "github.com/kailas-cloud/linkrank/internal/domain/page"
)

const (
	fieldURL       = "url"
	fieldTitle     = "title"
	fieldContent   = "content"
	fieldKeywords  = "keywords"
	fieldFetchedAt = "fetched_at"
)

// buildHashFields flattens a Page for HSET.
func buildHashFields(p *dompage.Page) map[string]string {
	return map[string]string{
		fieldURL:       p.URL(),
		fieldTitle:     p.Title(),
		fieldContent:   p.Content(),
		fieldKeywords:  p.KeywordString(),
		fieldFetchedAt: strconv.FormatInt(toMillis(p.FetchedAt()), 10),
	}
}

// parseHashFields rebuilds a Page from HGETALL output.
func parseHashFields(m map[string]string) dompage.Page {
	ms, _ := strconv.ParseInt(m[fieldFetchedAt], 10, 64)
	return dompage.Reconstruct(
		m[fieldURL],
		m[fieldTitle],
		m[fieldContent],
		dompage.SplitKeywords(m[fieldKeywords]),
		fromMillis(ms),
	)
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
