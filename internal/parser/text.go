package parser

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// markerRe matches paragraph markers such as {פ} and {ס}.
var markerRe = regexp.MustCompile(`\{[^}]+\}`)

// CountWords counts whitespace-separated words in one verse of Hebrew text
// after dropping markup and paragraph markers.
func CountWords(verse string) int {
	text := markerRe.ReplaceAllString(StripMarkup(verse), " ")
	return len(strings.Fields(text))
}

// StripMarkup returns the text content of an HTML fragment with entities
// decoded. Tags become spaces so adjacent words never merge.
func StripMarkup(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return fragment
	}

	var buf strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a malformed tail; either way the text so far stands.
			return buf.String()
		case html.TextToken:
			buf.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			buf.WriteByte(' ')
		}
	}
}
