// Package text splits documents into tokens and sentences and provides the
// normalization shared by every lexical comparison in the pipeline.
package text

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize returns s in NFC form, lowercased.
func Normalize(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// Fold lowercases s and strips combining marks, so "Función" folds to "funcion".
// Comparisons between user text, lexicon entries and article text all go
// through Fold.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(out)
}

// Len returns the number of characters in s.
func Len(s string) int {
	return utf8.RuneCountInString(s)
}

// Prefix returns the first n characters of s.
func Prefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Relevant filters tokens shorter than minLen characters and tokens rejected
// by stop. Order and duplicates are preserved.
func Relevant(tokens []string, minLen int, stop func(string) bool) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if Len(tok) < minLen {
			continue
		}
		if stop != nil && stop(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Words splits folded text into letter/digit runs. It is the tokenization used
// on article text, where only membership matters.
func Words(s string) []string {
	return strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// ContainsWordPrefix reports whether folded haystack contains needle starting
// at a word boundary. Both arguments must already be folded.
func ContainsWordPrefix(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	for i := 0; i+len(needle) <= len(haystack); {
		j := strings.Index(haystack[i:], needle)
		if j < 0 {
			return false
		}
		pos := i + j
		if pos == 0 {
			return true
		}
		prev, _ := utf8.DecodeLastRuneInString(haystack[:pos])
		if !unicode.IsLetter(prev) && !unicode.IsNumber(prev) {
			return true
		}
		i = pos + 1
	}
	return false
}

// CountOccurrences returns the number of non-overlapping occurrences of needle
// in haystack. Both arguments must already be folded.
func CountOccurrences(haystack, needle string) int {
	if needle == "" {
		return 0
	}
	return strings.Count(haystack, needle)
}
