// Package weave inserts inline (Author, Year) markers into a document.
package weave

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/helixir/citation-service/internal/domain"
	"github.com/helixir/citation-service/internal/text"
)

const (
	// DefaultEvery marks every third sentence when the cadence applies.
	DefaultEvery = 3

	// DefaultMinSentences is the sentence count a document must exceed for
	// the cadence to apply.
	DefaultMinSentences = 3

	// UnknownAuthor stands in for a missing author list.
	UnknownAuthor = "Autor desconocido"

	// NoDate stands in for a missing year.
	NoDate = "s.f."
)

// Config holds weaver settings.
type Config struct {
	// Every is the cadence period in sentences.
	Every int

	// MinSentences is the threshold above which the cadence applies.
	MinSentences int
}

// Weaver places citation markers. It is safe for concurrent use.
type Weaver struct {
	tok      text.Tokenizer
	triggers []string
	every    int
	min      int
}

// New creates a Weaver. Triggers are compared against folded sentences.
func New(tok text.Tokenizer, triggers []string, cfg Config) *Weaver {
	if cfg.Every <= 0 {
		cfg.Every = DefaultEvery
	}
	if cfg.MinSentences <= 0 {
		cfg.MinSentences = DefaultMinSentences
	}
	folded := make([]string, 0, len(triggers))
	for _, t := range triggers {
		if t = text.Fold(strings.TrimSpace(t)); t != "" {
			folded = append(folded, t)
		}
	}
	return &Weaver{tok: tok, triggers: folded, every: cfg.Every, min: cfg.MinSentences}
}

// Weave marks the sentences of doc that need a citation, consuming articles
// in order and never citing one twice. A first pass marks sentences that
// contain a trigger or fall on the cadence; a second pass places leftover
// articles on the last unmarked sentences, in order. Articles left over
// after both passes are not cited.
func (w *Weaver) Weave(doc string, articles []*domain.Article) domain.WovenText {
	sentences := w.tok.Sentences(doc)
	out := domain.WovenText{Text: doc}
	if len(sentences) == 0 || len(articles) == 0 {
		return out
	}

	assigned := make([]int, len(sentences))
	for i := range assigned {
		assigned[i] = -1
	}
	next := 0

	for i, s := range sentences {
		if next >= len(articles) {
			break
		}
		if !hasWords(s) {
			continue
		}
		if w.NeedsCitation(s, i, len(sentences)) {
			assigned[i] = next
			next++
		}
	}

	if next < len(articles) {
		var free []int
		for i := len(sentences) - 1; i >= 0 && len(free) < len(articles)-next; i-- {
			if assigned[i] < 0 && hasWords(sentences[i]) {
				free = append(free, i)
			}
		}
		for j := len(free) - 1; j >= 0; j-- {
			assigned[free[j]] = next
			next++
		}
	}

	var b strings.Builder
	for i, s := range sentences {
		if assigned[i] < 0 {
			b.WriteString(s)
			continue
		}
		a := articles[assigned[i]]
		b.WriteString(insertMarker(s, Marker(a)))
		out.Markers = append(out.Markers, domain.CitationMarker{
			SentenceIndex:   i,
			ReferenceNumber: assigned[i] + 1,
		})
	}
	out.Text = b.String()
	out.Cited = append(out.Cited, articles[:next]...)
	return out
}

// NeedsCitation reports whether the sentence at index i of total needs a
// citation in the first pass.
func (w *Weaver) NeedsCitation(sentence string, i, total int) bool {
	folded := text.Fold(sentence)
	for _, t := range w.triggers {
		if strings.Contains(folded, t) {
			return true
		}
	}
	return total > w.min && (i+1)%w.every == 0
}

// Marker returns the inline marker of a: "(Surname, Year)".
func Marker(a *domain.Article) string {
	author := UnknownAuthor
	if len(a.Authors) > 0 {
		if s := a.Authors[0].Surname(); s != "" {
			author = s
		}
	}
	year := NoDate
	if a.Year > 0 {
		year = strconv.Itoa(a.Year)
	}
	return "(" + author + ", " + year + ")"
}

// insertMarker places marker before the sentence's terminal punctuation,
// adding a period when the sentence has none.
func insertMarker(sentence, marker string) string {
	body, punct, space := text.SplitTerminal(sentence)
	if !strings.ContainsAny(punct, ".!?") {
		body += punct
		punct = "."
	}
	return body + " " + marker + punct + space
}

func hasWords(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsNumber(r)
	}) >= 0
}
