package ingest

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// sanitizeText strips any markup that survived extraction (JSON fields often
// carry HTML fragments), unescapes entities and normalizes whitespace.
func sanitizeText(s string) string {
	if s == "" {
		return ""
	}
	s = sanitizeUTF8(s)
	if strings.ContainsAny(s, "<&") {
		s = html.UnescapeString(strictPolicy.Sanitize(s))
	}
	return cleanText(s)
}

func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "")
}

// selectionText returns the sanitized text of a selection.
func selectionText(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	return sanitizeText(sel.Text())
}
