// Package service contains the application's business logic layer.
package service

import (
	"strings"
	"unicode"
)

// tokenize lowercases the text and splits it on anything that is not a
// letter or digit. It is Unicode-aware so Urdu script queries tokenize
// the same way English ones do.
func tokenize(text string) []string {
	lower := strings.ToLower(text)
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// tokenSet returns the distinct tokens of text.
func tokenSet(text string) map[string]struct{} {
	tokens := tokenize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
