// Package query turns a domain label and search terms into boolean query
// strings for each literature source.
package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/helixir/citation-service/internal/domain"
	"github.com/helixir/citation-service/internal/lexicon"
	"github.com/helixir/citation-service/internal/text"
)

const (
	// DefaultRecencyYears bounds biomedical results to the last ten years.
	DefaultRecencyYears = 10

	// DefaultScholarYears bounds general academic results to the last eight years.
	DefaultScholarYears = 8

	minQuotedTermLen = 5
)

// Config holds the query builder settings.
type Config struct {
	Variant domain.QueryVariant

	// RecencyYears is the biomedical publication-date window.
	RecencyYears int

	// ScholarYearFrom is the general academic lower year bound; 0 derives it
	// from the current year.
	ScholarYearFrom int
}

func (c *Config) applyDefaults() {
	if c.Variant == "" {
		c.Variant = domain.QueryVariantBasic
	}
	if c.RecencyYears <= 0 {
		c.RecencyYears = DefaultRecencyYears
	}
}

// Builder assembles source-specific queries. It is safe for concurrent use.
type Builder struct {
	lex *lexicon.Lexicon
	cfg Config
	now func() time.Time
}

// New creates a Builder.
func New(lex *lexicon.Lexicon, cfg Config) *Builder {
	cfg.applyDefaults()
	return &Builder{lex: lex, cfg: cfg, now: time.Now}
}

// WithClock returns a copy of the builder that reads the current year from now.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	c := *b
	c.now = now
	return &c
}

// Build returns one query per source in domain.SourcePriority order.
func (b *Builder) Build(domainName string, terms []string) []domain.Query {
	return []domain.Query{b.PubMed(domainName, terms), b.Scholar(domainName, terms)}
}

// PubMed builds an E-utilities search term: an exact phrase or a conjunction
// of quoted terms, restricted to title and abstract, with recency and, for
// physiotherapy topics, MeSH filters.
func (b *Builder) PubMed(domainName string, terms []string) domain.Query {
	terms = clean(terms)
	const field = "[Title/Abstract]"

	var expr string
	switch {
	case len(terms) == 0:
		expr = quote(domain.DomainGeneral) + field
	case len(terms) == 1:
		expr = quote(terms[0]) + field
	default:
		phrase := "(" + quote(strings.Join(terms, " ")) + field + ")"
		var parts []string
		for _, t := range terms {
			if text.Len(t) >= minQuotedTermLen {
				parts = append(parts, quote(t)+field)
			}
		}
		if len(parts) == 0 {
			parts = []string{quote(terms[0]) + field}
		}
		expr = "(" + phrase + ") OR (" + strings.Join(parts, " AND ") + ")"
	}

	var vocab []string
	if b.isPhysio(domainName, terms) {
		mesh := b.lex.PhysioMeSH()
		expr += " AND (" + disjunction(mesh, "[MeSH Terms]") + ")"
		vocab = append(vocab, mesh...)
	}
	if d, ok := b.lex.Domain(domainName); ok {
		for _, m := range d.MeSH {
			if !containsFold(vocab, m) {
				vocab = append(vocab, m)
			}
		}
	}

	expr += fmt.Sprintf(" AND %s[PDat]", quote(fmt.Sprintf("last %d years", b.cfg.RecencyYears)))

	if b.cfg.Variant == domain.QueryVariantAdvanced {
		expr += " AND (" + disjunction(b.lex.StudyTypes(), "[Publication Type]") + ")"
		expr += " AND (" + disjunction(b.lex.Languages(), "[Language]") + ")"
		expr += " AND (" + disjunction(b.lex.AgeGroups(), "[MeSH Terms]") + ")"
	}

	return domain.Query{
		Source:               domain.SourceTypePubMed,
		Expression:           expr,
		ControlledVocabulary: vocab,
		YearFrom:             b.now().Year() - b.cfg.RecencyYears,
	}
}

// Scholar builds a Google Scholar query: exact phrase or conjunction of
// quoted terms, a physiotherapy keyword filter when relevant, and a trusted
// host restriction.
func (b *Builder) Scholar(domainName string, terms []string) domain.Query {
	terms = clean(terms)

	var expr string
	switch {
	case len(terms) == 0:
		expr = quote(domain.DomainGeneral)
	case len(terms) == 1:
		expr = quote(terms[0])
	default:
		var parts []string
		for _, t := range terms {
			if text.Len(t) >= minQuotedTermLen {
				parts = append(parts, quote(t))
			}
		}
		if len(parts) == 0 {
			parts = []string{quote(terms[0])}
		}
		expr = "(" + quote(strings.Join(terms, " ")) + ") OR (" + strings.Join(parts, " AND ") + ")"
	}

	if b.isPhysio(domainName, terms) {
		expr += " AND (" + disjunction(b.lex.PhysioKeywords(), "") + ")"
	}

	sites := b.lex.ScholarSites()
	restrict := make([]string, 0, len(sites)+1)
	for _, s := range sites {
		restrict = append(restrict, "site:"+s)
	}
	restrict = append(restrict, "filetype:pdf")
	expr += " AND (" + strings.Join(restrict, " OR ") + ")"

	yearFrom := b.cfg.ScholarYearFrom
	if yearFrom <= 0 {
		yearFrom = b.now().Year() - DefaultScholarYears
	}

	return domain.Query{
		Source:     domain.SourceTypeScholar,
		Expression: expr,
		YearFrom:   yearFrom,
	}
}

func (b *Builder) isPhysio(domainName string, terms []string) bool {
	return b.lex.IsPhysio(strings.Join(terms, " ")) || b.lex.IsPhysio(domainName)
}

func clean(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.Join(strings.Fields(strings.ReplaceAll(t, `"`, " ")), " ")
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func quote(s string) string {
	return `"` + s + `"`
}

func disjunction(items []string, tag string) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = quote(it) + tag
	}
	return strings.Join(parts, " OR ")
}

func containsFold(list []string, s string) bool {
	for _, it := range list {
		if strings.EqualFold(it, s) {
			return true
		}
	}
	return false
}
