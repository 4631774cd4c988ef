package store

import (
	"strings"
	"unicode"

	"github.com/surgebase/porter2"
)

// stemText lowercases and Porter-stems every word in s, so that both the
// text written into symbol_fts and the terms a caller searches with land
// on the same root form ("indexing" and "indexed" both become "index").
// Words are split on anything that isn't a letter or digit; identifiers
// like "foo.Bar" split into "foo" and "Bar" the same way a dotted
// qualified name reads.
func stemText(s string) string {
	if s == "" {
		return ""
	}
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return ""
	}
	stemmed := make([]string, 0, len(words))
	for _, w := range words {
		stemmed = append(stemmed, porter2.Stem(strings.ToLower(w)))
	}
	return strings.Join(stemmed, " ")
}
