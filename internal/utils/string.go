package utils

import "strings"

// SplitList splits a comma or whitespace separated list, dropping empty items.
// "plural,genitive" and "plural genitive" both give [plural genitive].
func SplitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}
