// Package citation runs the citation pipeline: analysis of a topic or
// document, source queries, relevance filtering, selection, weaving and
// reference formatting.
//
// Every stage runs behind guard, which converts a panic into a
// *domain.InternalError, logs it, records it and substitutes the stage's
// fallback value. A request therefore always ends with a valid, possibly
// smaller, result.
package citation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/citation-service/internal/classify"
	"github.com/helixir/citation-service/internal/domain"
	"github.com/helixir/citation-service/internal/lexicon"
	"github.com/helixir/citation-service/internal/papersources"
	"github.com/helixir/citation-service/internal/query"
	"github.com/helixir/citation-service/internal/reference"
	"github.com/helixir/citation-service/internal/relevance"
	"github.com/helixir/citation-service/internal/selection"
	"github.com/helixir/citation-service/internal/terms"
	"github.com/helixir/citation-service/internal/text"
	"github.com/helixir/citation-service/internal/weave"
)

const (
	// DefaultMaxTopicLength bounds a topic in characters.
	DefaultMaxTopicLength = 200

	// DefaultMaxTextLength bounds a document in characters.
	DefaultMaxTextLength = 5000

	// minTokenLen is the shortest token kept for classification.
	minTokenLen = 3

	// MessageNoArticles explains an empty result when sources answered.
	MessageNoArticles = "No se encontraron artículos relevantes para el texto proporcionado."

	// MessageSourcesUnavailable explains an empty result when every source failed.
	MessageSourcesUnavailable = "No fue posible consultar las fuentes bibliográficas; el texto se devuelve sin citas."
)

// Searcher runs source queries. *papersources.Registry implements it.
type Searcher interface {
	SearchAll(ctx context.Context, params []papersources.SearchParams) []papersources.SourceResult
}

// Config holds pipeline settings. Zero values select each stage's defaults.
type Config struct {
	Tokenizer       string
	QueryVariant    domain.QueryVariant
	RecencyYears    int
	ScholarYearFrom int
	MaxTerms        int

	Weights    relevance.Weights
	Thresholds map[domain.SourceType]float64

	PerSource         map[domain.SourceType]int
	MaxSelected       int
	TitlePrefixLength int

	CadenceEvery        int
	CadenceMinSentences int

	MaxTopicLength int
	MaxTextLength  int
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder installs a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithClock sets the clock used for query year bounds.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.builder = s.builder.WithClock(now)
	}
}

// Service runs the pipeline. It holds only read-only state and is safe for
// concurrent use; each call is independent.
type Service struct {
	lex        *lexicon.Lexicon
	tok        text.Tokenizer
	classifier *classify.Classifier
	extractor  *terms.Extractor
	builder    *query.Builder
	searcher   Searcher
	scorer     *relevance.Scorer
	selector   *selection.Selector
	weaver     *weave.Weaver
	formatter  *reference.Formatter
	perSource  map[domain.SourceType]int
	maxTopic   int
	maxText    int
	metrics    Recorder
	logger     zerolog.Logger
}

// New assembles a Service over lex and searcher.
func New(lex *lexicon.Lexicon, searcher Searcher, cfg Config, logger zerolog.Logger, opts ...Option) (*Service, error) {
	if cfg.Tokenizer == "" {
		cfg.Tokenizer = text.Linguistic
	}
	tok, err := text.New(cfg.Tokenizer, lex.Abbreviations())
	if err != nil {
		return nil, fmt.Errorf("creating tokenizer: %w", err)
	}
	if cfg.MaxTopicLength <= 0 {
		cfg.MaxTopicLength = DefaultMaxTopicLength
	}
	if cfg.MaxTextLength <= 0 {
		cfg.MaxTextLength = DefaultMaxTextLength
	}

	perSource := selection.DefaultPerSource()
	for k, v := range cfg.PerSource {
		perSource[k] = v
	}

	logger = logger.With().Str("component", "citation").Logger()

	s := &Service{
		lex:        lex,
		tok:        tok,
		classifier: classify.New(lex),
		extractor:  terms.New(lex, cfg.MaxTerms),
		builder: query.New(lex, query.Config{
			Variant:         cfg.QueryVariant,
			RecencyYears:    cfg.RecencyYears,
			ScholarYearFrom: cfg.ScholarYearFrom,
		}),
		searcher: searcher,
		scorer:   relevance.New(lex, relevance.Config{Weights: cfg.Weights, Thresholds: cfg.Thresholds}, logger),
		selector: selection.New(selection.Config{
			PerSource:         perSource,
			MaxSelected:       cfg.MaxSelected,
			TitlePrefixLength: cfg.TitlePrefixLength,
		}),
		weaver: weave.New(tok, lex.CitationTriggers(), weave.Config{
			Every:        cfg.CadenceEvery,
			MinSentences: cfg.CadenceMinSentences,
		}),
		formatter: reference.New(),
		perSource: perSource,
		maxTopic:  cfg.MaxTopicLength,
		maxText:   cfg.MaxTextLength,
		metrics:   NopRecorder{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TokenizerName returns the name of the tokenizer selected at startup.
func (s *Service) TokenizerName() string {
	return s.tok.Name()
}

// Limits returns the accepted topic and document lengths in characters.
func (s *Service) Limits() (topic, doc int) {
	return s.maxTopic, s.maxText
}

// SearchTopic runs the topic pipeline: analysis, queries, scoring and
// selection, and renders a reference for every selected article.
func (s *Service) SearchTopic(ctx context.Context, topic string) (res *domain.TopicResult, err error) {
	topic = strings.TrimSpace(topic)
	if err := validate("q", topic, s.maxTopic); err != nil {
		return nil, err
	}
	defer s.recoverInternal("search_topic", &err)

	analysis := s.analyze(topic)
	selected, _ := s.collect(ctx, analysis)

	articles := articlesOf(selected)
	entries := guard(s, "reference", []domain.ReferenceEntry{}, func() []domain.ReferenceEntry {
		return s.formatter.Entries(articles)
	})

	s.logger.Info().
		Str("domain", analysis.Domain).
		Strs("terms", analysis.Terms).
		Int("selected", len(selected)).
		Msg("topic search completed")

	return &domain.TopicResult{
		Topic:      topic,
		Analysis:   analysis,
		Selected:   selected,
		References: entries,
	}, nil
}

// CiteText runs the full pipeline over doc and returns it with inline
// markers and the references of the articles actually cited. When nothing
// could be cited the text is returned unchanged with an explanatory Message.
func (s *Service) CiteText(ctx context.Context, doc string) (res *domain.TextCitationResult, err error) {
	if err := validate("texto", strings.TrimSpace(doc), s.maxText); err != nil {
		return nil, err
	}
	defer s.recoverInternal("cite_text", &err)

	analysis := s.analyze(doc)
	selected, allFailed := s.collect(ctx, analysis)
	articles := articlesOf(selected)

	woven := guard(s, "weave", domain.WovenText{Text: doc}, func() domain.WovenText {
		return s.weaver.Weave(doc, articles)
	})
	entries := guard(s, "reference", []domain.ReferenceEntry{}, func() []domain.ReferenceEntry {
		return s.formatter.Entries(woven.Cited)
	})
	s.metrics.RecordCitationsInserted(len(woven.Markers))

	result := &domain.TextCitationResult{
		OriginalText:   doc,
		CitedText:      woven.Text,
		Analysis:       analysis,
		Markers:        woven.Markers,
		References:     entries,
		ReferenceBlock: reference.Block(entries),
	}
	if len(entries) == 0 {
		result.Message = MessageNoArticles
		if allFailed {
			result.Message = MessageSourcesUnavailable
		}
	}

	s.logger.Info().
		Str("domain", analysis.Domain).
		Strs("terms", analysis.Terms).
		Int("selected", len(selected)).
		Int("cited", len(woven.Cited)).
		Int("markers", len(woven.Markers)).
		Msg("text citation completed")

	return result, nil
}

// Analyze returns the lexical reading of doc without querying any source.
func (s *Service) Analyze(doc string) domain.Analysis {
	return s.analyze(doc)
}

func (s *Service) analyze(doc string) domain.Analysis {
	tokens := guard(s, "tokenizer", []string{}, func() []string {
		return s.tok.Tokens(doc)
	})
	relevant := text.Relevant(tokens, minTokenLen, s.lex.IsStopword)

	domainName := guard(s, "classifier", domain.DomainGeneral, func() string {
		return s.classifier.Classify(relevant)
	})
	termList := guard(s, "terms", []string{terms.Fallback(doc)}, func() []string {
		return s.extractor.Extract(doc, tokens)
	})
	concepts := guard(s, "concepts", []string{}, func() []string {
		return s.classifier.Concepts(doc)
	})

	return domain.Analysis{Domain: domainName, Terms: termList, Concepts: concepts}
}

// collect queries every source, scores each source's candidates and
// selects the final articles. allFailed reports whether no source answered.
func (s *Service) collect(ctx context.Context, analysis domain.Analysis) (selected []*domain.ScoredArticle, allFailed bool) {
	queries := guard(s, "query", []domain.Query{}, func() []domain.Query {
		return s.builder.Build(analysis.Domain, analysis.Terms)
	})
	if len(queries) == 0 {
		return nil, true
	}

	params := make([]papersources.SearchParams, len(queries))
	for i, q := range queries {
		params[i] = papersources.SearchParams{Query: q, MaxResults: s.perSource[q.Source]}
		s.metrics.RecordSearchStarted(string(q.Source))
	}

	results := s.searcher.SearchAll(ctx, params)

	allFailed = true
	bySource := make(map[domain.SourceType][]*domain.ScoredArticle, len(results))
	for i, r := range results {
		source := string(r.Source)
		if r.Error != nil {
			s.metrics.RecordSearchFailed(source, r.Result.SearchDuration.Seconds())
			s.logger.Warn().Err(r.Error).Str("source", source).Msg("source contributed no articles")
			continue
		}
		allFailed = false
		s.metrics.RecordSearchCompleted(source, len(r.Result.Articles), r.Result.SearchDuration.Seconds())

		in := relevance.Input{
			Terms:      analysis.Terms,
			Concepts:   analysis.Concepts,
			Vocabulary: params[i].Query.ControlledVocabulary,
		}
		admitted := guard(s, "relevance", []*domain.ScoredArticle{}, func() []*domain.ScoredArticle {
			admitted, rejected := s.scorer.Rank(r.Result.Articles, in)
			s.metrics.RecordCandidates(source, len(admitted), len(rejected))
			return admitted
		})
		bySource[r.Source] = append(bySource[r.Source], admitted...)
	}

	selected = guard(s, "selection", []*domain.ScoredArticle{}, func() []*domain.ScoredArticle {
		return s.selector.Select(bySource)
	})
	s.metrics.RecordArticlesSelected(len(selected))
	return selected, allFailed
}

// guard runs fn and returns its value, or fallback if fn panics.
func guard[T any](s *Service, component string, fallback T, fn func() T) T {
	r := run(component, fn)
	if r.Err != nil {
		s.logger.Error().Err(r.Err).Str("stage", component).Msg("stage failed; using fallback")
		s.metrics.RecordStageDegraded(component)
	}
	return r.Degrade(fallback)
}

func run[T any](component string, fn func() T) (r domain.Result[T]) {
	defer func() {
		if rec := recover(); rec != nil {
			r = domain.Fail[T](domain.NewInternalError(component, fmt.Errorf("panic: %v", rec)))
		}
	}()
	return domain.Ok(fn())
}

func (s *Service) recoverInternal(op string, err *error) {
	if rec := recover(); rec != nil {
		s.logger.Error().Str("operation", op).Interface("panic", rec).Msg("pipeline panicked")
		*err = domain.NewInternalError(op, fmt.Errorf("panic: %v", rec))
	}
}

func validate(field, value string, max int) error {
	if value == "" {
		return domain.NewValidationError(field, "must not be empty")
	}
	if n := text.Len(value); n > max {
		return domain.NewValidationError(field, fmt.Sprintf("exceeds %d characters (got %d)", max, n))
	}
	return nil
}

func articlesOf(scored []*domain.ScoredArticle) []*domain.Article {
	out := make([]*domain.Article, len(scored))
	for i, sa := range scored {
		out[i] = &sa.Article
	}
	return out
}
