// Package textnorm canonicalizes search-result text before scoring.
package textnorm

import (
	"html"
	"strings"
	"unicode"

	xhtml "golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldAccents decomposes characters and removes combining marks, so
// "Séoul" folds to "Seoul".
var foldAccents = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// Normalize canonicalizes raw text: HTML entities are unescaped, markup is
// stripped, accents are folded away, remaining non-ASCII runes are dropped,
// everything is lowercased and runs of whitespace collapse to single
// spaces. Total and idempotent; empty input yields the empty string.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	text = html.UnescapeString(text)
	text = stripMarkup(text)

	folded, _, err := transform.String(foldAccents, text)
	if err == nil {
		text = folded
	}

	var b strings.Builder
	b.Grow(len(text))
	space := false
	for _, r := range text {
		if r > unicode.MaxASCII {
			continue
		}
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// stripMarkup drops any HTML tags, keeping text content. Descriptions
// returned by the search API occasionally carry leftover markup.
func stripMarkup(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}

	tok := xhtml.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	b.Grow(len(s))
	for {
		tt := tok.Next()
		switch tt {
		case xhtml.ErrorToken:
			return b.String()
		case xhtml.TextToken:
			b.Write(tok.Text())
		}
	}
}
