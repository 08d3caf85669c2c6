package web

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	dompage "github.com/kailas-cloud/linkrank/internal/domain/page"
)

// DefaultWordLimit bounds extracted body text.
const DefaultWordLimit = 1000

// contentSelectors are tried in order; the first match is the content block.
var contentSelectors = []string{"div.main-content", "article", "section"}

// Extracted is the title and word-bounded body of an HTML page.
type Extracted struct {
	Title   string
	Content string
}

// Extract parses HTML and returns its title and the first wordLimit words
// of the primary content block. The body is decoded to UTF-8 using the
// Content-Type charset, a BOM or a <meta> declaration, in that order.
func Extract(body []byte, contentType string, wordLimit int) (Extracted, error) {
	if wordLimit <= 0 {
		wordLimit = DefaultWordLimit
	}
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return Extracted{}, fmt.Errorf("decode html: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Extracted{}, fmt.Errorf("parse html: %w", err)
	}

	title := dompage.NoTitle
	if t := doc.Find("title").First(); t.Length() > 0 {
		title = strings.TrimSpace(t.Text())
	}

	text := dompage.NoContent
	for _, sel := range contentSelectors {
		if block := doc.Find(sel).First(); block.Length() > 0 {
			text = blockText(block.Nodes[0])
			break
		}
	}

	return Extracted{Title: title, Content: firstWords(text, wordLimit)}, nil
}

// nonContent elements hold code or markup, never readable text.
var nonContent = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// blockText joins the readable text nodes under n with single spaces.
func blockText(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.ElementNode && nonContent[n.Data]:
			return
		case n.Type == html.TextNode:
			parts = append(parts, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}

func firstWords(s string, limit int) string {
	words := strings.Fields(s)
	if len(words) > limit {
		words = words[:limit]
	}
	return strings.Join(words, " ")
}
