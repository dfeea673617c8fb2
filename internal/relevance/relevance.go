// Package relevance scores candidate articles against the terms, concepts
// and controlled vocabulary of a request and admits those above a
// per-source threshold.
package relevance

import (
	"math"
	"net/url"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/helixir/citation-service/internal/domain"
	"github.com/helixir/citation-service/internal/lexicon"
	"github.com/helixir/citation-service/internal/text"
)

// minTermLen is the rune count a term must exceed to be scored.
const minTermLen = 3

// Weights are the additive contributions of each scoring rule.
type Weights struct {
	Title            float64
	Body             float64
	PartialTitle     float64
	Occurrence       float64
	MeSHExact        float64
	MeSHPartial      float64
	Concept          float64
	Quality          float64
	DensityScale     float64
	DensityCap       float64
	UntrustedPenalty float64
}

// DefaultWeights returns the weights used when none are configured.
func DefaultWeights() Weights {
	return Weights{
		Title:            12,
		Body:             6,
		PartialTitle:     5,
		Occurrence:       3,
		MeSHExact:        20,
		MeSHPartial:      5,
		Concept:          12,
		Quality:          8,
		DensityScale:     50,
		DensityCap:       10,
		UntrustedPenalty: -5,
	}
}

// DefaultThresholds returns the admission thresholds per source.
func DefaultThresholds() map[domain.SourceType]float64 {
	return map[domain.SourceType]float64{
		domain.SourceTypePubMed:  15,
		domain.SourceTypeScholar: 10,
	}
}

// Config holds scorer settings.
type Config struct {
	Weights    Weights
	Thresholds map[domain.SourceType]float64
}

// Input is what a request contributes to scoring.
type Input struct {
	Terms      []string
	Concepts   []string
	Vocabulary []string
}

// Scorer computes relevance scores. It holds no per-request state and is
// safe for concurrent use.
type Scorer struct {
	lex     *lexicon.Lexicon
	weights Weights
	thresh  map[domain.SourceType]float64
	logger  zerolog.Logger
}

// New creates a Scorer. Zero-valued Weights select DefaultWeights and
// missing thresholds fall back to DefaultThresholds.
func New(lex *lexicon.Lexicon, cfg Config, logger zerolog.Logger) *Scorer {
	if cfg.Weights == (Weights{}) {
		cfg.Weights = DefaultWeights()
	}
	thresh := DefaultThresholds()
	for k, v := range cfg.Thresholds {
		thresh[k] = v
	}
	return &Scorer{
		lex:     lex,
		weights: cfg.Weights,
		thresh:  thresh,
		logger:  logger.With().Str("component", "relevance").Logger(),
	}
}

// Threshold returns the admission threshold of source.
func (s *Scorer) Threshold(source domain.SourceType) float64 {
	return s.thresh[source]
}

// Score returns the relevance score of a against in.
func (s *Scorer) Score(a *domain.Article, in Input) float64 {
	w := s.weights
	title := text.Fold(a.Title)
	body := text.Fold(a.Body())
	combined := text.Fold(a.CombinedText())
	titleWords := wordSet(text.Words(a.Title))

	var score float64
	var matchers []string

	for _, term := range in.Terms {
		t := text.Fold(strings.TrimSpace(term))
		if text.Len(t) <= minTermLen {
			continue
		}
		switch {
		case strings.Contains(title, t):
			score += w.Title
		case strings.Contains(body, t):
			score += w.Body
		case anyLongWordIn(t, titleWords):
			score += w.PartialTitle
		}
		score += float64(text.CountOccurrences(combined, t)) * w.Occurrence
		matchers = append(matchers, longWords(t)...)
	}

	score += s.vocabularyScore(a, combined, in.Vocabulary)

	for _, c := range in.Concepts {
		fc := text.Fold(c)
		if fc != "" && text.ContainsWordPrefix(combined, fc) {
			score += w.Concept
		}
		matchers = append(matchers, longWords(fc)...)
	}

	quality := combined + " " + text.Fold(strings.Join(a.PublicationTypes, " "))
	for _, q := range s.lex.QualityTerms() {
		if strings.Contains(quality, q) {
			score += w.Quality
		}
	}

	score += density(text.Words(combined), matchers, w.DensityScale, w.DensityCap)

	if a.Source == domain.SourceTypeScholar && !s.trusted(a.URL) {
		score += w.UntrustedPenalty
	}

	return score
}

// vocabularyScore rewards controlled-vocabulary headings. Articles indexed
// with MeSH are matched against their headings, others against their text.
func (s *Scorer) vocabularyScore(a *domain.Article, combined string, vocab []string) float64 {
	haystack := combined
	if len(a.MeSH) > 0 {
		folded := make([]string, len(a.MeSH))
		for i, m := range a.MeSH {
			folded[i] = text.Fold(m)
		}
		haystack = strings.Join(folded, " | ")
	}
	words := wordSet(text.Words(haystack))

	var score float64
	for _, v := range vocab {
		fv := text.Fold(strings.TrimSpace(v))
		if fv == "" {
			continue
		}
		switch {
		case exactVocab(a, haystack, fv):
			score += s.weights.MeSHExact
		case anyLongWordIn(fv, words):
			score += s.weights.MeSHPartial
		}
	}
	return score
}

func exactVocab(a *domain.Article, haystack, v string) bool {
	if len(a.MeSH) == 0 {
		return text.ContainsWordPrefix(haystack, v)
	}
	for _, h := range strings.Split(haystack, " | ") {
		if h == v {
			return true
		}
	}
	return false
}

// trusted reports whether link points to a trusted host or a PDF.
func (s *Scorer) trusted(link string) bool {
	link = strings.TrimSpace(link)
	if link == "" {
		return false
	}
	host, path := link, link
	if u, err := url.Parse(link); err == nil && u.Host != "" {
		host, path = u.Host, u.Path
	}
	return s.lex.IsTrustedHost(host) || strings.HasSuffix(strings.ToLower(path), ".pdf")
}

// Rank scores every article of one source and returns the admitted ones
// sorted by score descending, stable on ties, plus the rejected ones in
// input order.
func (s *Scorer) Rank(articles []*domain.Article, in Input) (admitted, rejected []*domain.ScoredArticle) {
	for _, a := range articles {
		if a == nil {
			continue
		}
		score := s.Score(a, in)
		sa := &domain.ScoredArticle{Article: *a, Score: score}
		if score >= s.Threshold(a.Source) {
			sa.Admitted = true
			admitted = append(admitted, sa)
			continue
		}
		s.logger.Debug().
			Str("source", string(a.Source)).
			Str("id", a.ID).
			Float64("score", score).
			Float64("threshold", s.Threshold(a.Source)).
			Msg("discarding low-relevance candidate")
		rejected = append(rejected, sa)
	}

	sort.SliceStable(admitted, func(i, j int) bool {
		return admitted[i].Score > admitted[j].Score
	})
	return admitted, rejected
}

// density returns min(limit, share of words matched by any matcher × scale).
func density(words, matchers []string, scale, limit float64) float64 {
	if len(words) == 0 || len(matchers) == 0 {
		return 0
	}
	matched := 0
	for _, w := range words {
		for _, m := range matchers {
			if strings.HasPrefix(w, m) {
				matched++
				break
			}
		}
	}
	return math.Min(limit, float64(matched)/float64(len(words))*scale)
}

func longWords(s string) []string {
	var out []string
	for _, w := range strings.Fields(s) {
		if text.Len(w) > minTermLen {
			out = append(out, w)
		}
	}
	return out
}

func anyLongWordIn(s string, set map[string]struct{}) bool {
	for _, w := range longWords(s) {
		if _, ok := set[w]; ok {
			return true
		}
	}
	return false
}

func wordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
