// Package terms derives a short ranked list of search terms from a document.
package terms

import (
	"sort"
	"strings"
	"unicode"

	"github.com/helixir/citation-service/internal/lexicon"
	"github.com/helixir/citation-service/internal/text"
)

const (
	// MaxTerms is the upper bound on extracted terms.
	MaxTerms = 4

	// DefaultTerm is returned when the input has no usable word at all.
	DefaultTerm = "fisioterapia"

	minRelevantLen   = 4
	minBigramLen     = 9
	minTrigramLen    = 13
	minTechnicalLen  = 7
	minFrequentLen   = 5
	minLongLen       = 6
	maxCompounds     = 2
	maxTechnical     = 2
	frequentPoolSize = 5
	longFallbackSize = 3
)

// Extractor selects search terms, preferring multi-word and technical terms
// over frequent generic words.
type Extractor struct {
	lex      *lexicon.Lexicon
	maxTerms int
}

// New creates an Extractor returning at most maxTerms terms. Values outside
// 1..MaxTerms are clamped.
func New(lex *lexicon.Lexicon, maxTerms int) *Extractor {
	if maxTerms <= 0 || maxTerms > MaxTerms {
		maxTerms = MaxTerms
	}
	return &Extractor{lex: lex, maxTerms: maxTerms}
}

// Extract returns between 1 and maxTerms terms for the document raw, whose
// tokens (as produced by a text.Tokenizer) are given.
func (e *Extractor) Extract(raw string, tokens []string) []string {
	relevant := text.Relevant(tokens, minRelevantLen, e.lex.IsNoise)
	compounds := e.compounds(tokens)

	var technical []string
	for _, tok := range relevant {
		if text.Len(tok) >= minTechnicalLen || e.lex.HasTechnicalAffix(tok) {
			technical = append(technical, tok)
		}
	}

	sel := &selection{max: e.maxTerms}

	for _, c := range rank(compounds, maxCompounds) {
		sel.add(c)
	}

	for _, tok := range firstDistinct(technical, maxTechnical) {
		if !sel.contains(tok) {
			sel.add(tok)
		}
	}

	for _, tok := range rank(relevant, frequentPoolSize) {
		if text.Len(tok) >= minFrequentLen && !sel.contains(tok) {
			sel.add(tok)
		}
	}

	if len(sel.terms) < 2 {
		var long []string
		for _, tok := range relevant {
			if text.Len(tok) >= minLongLen {
				long = append(long, tok)
			}
		}
		for _, tok := range firstDistinct(long, longFallbackSize) {
			if !sel.has(tok) {
				sel.add(tok)
			}
		}
	}

	if len(sel.terms) == 0 {
		return []string{Fallback(raw)}
	}
	return sel.terms
}

// Fallback returns the first word of raw, or DefaultTerm.
func Fallback(raw string) string {
	for _, f := range strings.Fields(raw) {
		w := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if w != "" {
			return w
		}
	}
	return DefaultTerm
}

// compounds returns the candidate bigrams followed by the candidate trigrams,
// in text order.
func (e *Extractor) compounds(tokens []string) []string {
	var out []string
	for i := 0; i+1 < len(tokens); i++ {
		a, b := tokens[i], tokens[i+1]
		if e.lex.IsNoise(a) || e.lex.IsNoise(b) {
			continue
		}
		if phrase := a + " " + b; text.Len(phrase) >= minBigramLen {
			out = append(out, phrase)
		}
	}
	for i := 0; i+2 < len(tokens); i++ {
		a, b, c := tokens[i], tokens[i+1], tokens[i+2]
		if e.lex.IsNoise(a) || e.lex.IsNoise(b) || e.lex.IsNoise(c) {
			continue
		}
		if text.Len(a) < minRelevantLen || text.Len(b) < minRelevantLen {
			continue
		}
		if phrase := a + " " + b + " " + c; text.Len(phrase) >= minTrigramLen {
			out = append(out, phrase)
		}
	}
	return out
}

// rank returns up to n distinct items ordered by descending frequency, ties
// kept in first-occurrence order.
func rank(items []string, n int) []string {
	counts := make(map[string]int, len(items))
	var order []string
	for _, it := range items {
		if counts[it] == 0 {
			order = append(order, it)
		}
		counts[it]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}

func firstDistinct(items []string, n int) []string {
	seen := make(map[string]struct{}, n)
	var out []string
	for _, it := range items {
		if len(out) == n {
			break
		}
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

type selection struct {
	terms []string
	max   int
}

func (s *selection) add(term string) {
	if len(s.terms) < s.max {
		s.terms = append(s.terms, term)
	}
}

// contains reports whether term already appears inside a chosen term.
func (s *selection) contains(term string) bool {
	return strings.Contains(text.Fold(strings.Join(s.terms, " ")), text.Fold(term))
}

func (s *selection) has(term string) bool {
	for _, t := range s.terms {
		if t == term {
			return true
		}
	}
	return false
}
