package web

import (
	"strings"
	"testing"
	"unicode/utf8"

	dompage "github.com/kailas-cloud/linkrank/internal/domain/page"
)

func TestExtract_PrefersMainContent(t *testing.T) {
	html := `<html><head><title>  My Post </title></head><body>
		<section>section text</section>
		<article>article text</article>
		<div class="wrapper main-content"><p>Main <b>content</b></p>
		<p>second   para</p></div>
	</body></html>`
	got, err := Extract([]byte(html), "", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "My Post" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.Content != "Main content second para" {
		t.Errorf("Content = %q", got.Content)
	}
}

func TestExtract_FallbackOrder(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"article before section", `<section>s</section><article>a1</article><article>a2</article>`, "a1"},
		{"section", `<div>nav</div><section>first</section><section>second</section>`, "first"},
		{"div without class", `<div class="content">x</div>`, dompage.NoContent},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Extract([]byte("<html><body>"+tc.body+"</body></html>"), "", 100)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Content != tc.want {
				t.Errorf("Content = %q, want %q", got.Content, tc.want)
			}
		})
	}
}

func TestExtract_NoTitle(t *testing.T) {
	got, _ := Extract([]byte(`<html><body><article>x</article></body></html>`), "", 10)
	if got.Title != dompage.NoTitle {
		t.Errorf("Title = %q, want %q", got.Title, dompage.NoTitle)
	}
}

func TestExtract_WordLimit(t *testing.T) {
	words := make([]string, 50)
	for i := range words {
		words[i] = "w"
	}
	body := "<article>" + strings.Join(words, "\n\t ") + "</article>"
	got, _ := Extract([]byte(body), "", 7)
	if n := len(strings.Fields(got.Content)); n != 7 {
		t.Errorf("word count = %d, want 7", n)
	}
	if strings.Contains(got.Content, "  ") || strings.ContainsAny(got.Content, "\n\t") {
		t.Errorf("whitespace not collapsed: %q", got.Content)
	}
}

func TestExtract_DefaultWordLimit(t *testing.T) {
	body := "<article>" + strings.Repeat("word ", DefaultWordLimit+20) + "</article>"
	got, _ := Extract([]byte(body), "", 0)
	if n := len(strings.Fields(got.Content)); n != DefaultWordLimit {
		t.Errorf("word count = %d, want %d", n, DefaultWordLimit)
	}
}

func TestExtract_AdjacentInlineText(t *testing.T) {
	got, _ := Extract([]byte(`<article><span>anti</span><span>counterfeit</span></article>`), "", 10)
	if got.Content != "anti counterfeit" {
		t.Errorf("Content = %q", got.Content)
	}
}

func TestExtract_DecodesCharset(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{
			"meta charset",
			"",
			"<html><head><meta charset=\"iso-8859-1\"><title>Caf\xe9 Labels</title></head>" +
				"<body><article>Caf\xe9 cr\xe8me labels</article></body></html>",
		},
		{
			"header charset",
			"text/html; charset=ISO-8859-1",
			"<html><head><title>Caf\xe9 Labels</title></head>" +
				"<body><article>Caf\xe9 cr\xe8me labels</article></body></html>",
		},
		{
			"utf-8 header",
			"text/html; charset=utf-8",
			"<html><head><title>Café Labels</title></head>" +
				"<body><article>Café crème labels</article></body></html>",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Extract([]byte(tc.body), tc.contentType, 100)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Title != "Café Labels" {
				t.Errorf("Title = %q", got.Title)
			}
			if got.Content != "Café crème labels" {
				t.Errorf("Content = %q", got.Content)
			}
			if !utf8.ValidString(got.Title) || !utf8.ValidString(got.Content) {
				t.Error("extracted text is not valid UTF-8")
			}
		})
	}
}

func TestExtract_SkipsScriptAndStyle(t *testing.T) {
	body := `<html><body><article><p>Brand protection labels.</p>` +
		`<script>var trackingPixel = function(){ gtag('config','UA-1'); };</script>` +
		`<style>.hero{color:red}</style>` +
		`<noscript>Enable JavaScript</noscript>` +
		`<template><p>hidden row</p></template>` +
		`<p>Tamper evident seals.</p></article></body></html>`
	got, err := Extract([]byte(body), "", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Content != "Brand protection labels. Tamper evident seals." {
		t.Errorf("Content = %q", got.Content)
	}
}
