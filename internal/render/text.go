package render

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// StripHTML returns the visible text of s with tags removed, entities
// decoded and runs of whitespace collapsed to single spaces. Script and
// style contents are dropped.
func StripHTML(s string) string {
	var b strings.Builder
	skip := 0
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a reader error; either way keep what was read.
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken:
			name, _ := z.TagName()
			if isRawText(name) {
				skip++
			}
			if isBlock(name) {
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if isRawText(name) && skip > 0 {
				skip--
			}
			if isBlock(name) {
				b.WriteByte(' ')
			}
		case html.SelfClosingTagToken:
			b.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isRawText(tag []byte) bool {
	switch string(tag) {
	case "script", "style":
		return true
	}
	return false
}

func isBlock(tag []byte) bool {
	switch string(tag) {
	case "p", "div", "br", "li", "ul", "ol", "h1", "h2", "h3", "h4", "h5", "h6", "tr", "td", "th", "section", "article":
		return true
	}
	return false
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	if n == 1 {
		return "…"
	}
	return strings.TrimRight(string(runes[:n-1]), " ") + "…"
}

// Snippet prepares free text from the crawler for a single table cell.
func Snippet(s string, n int) string {
	return Truncate(StripHTML(s), n)
}
